package pmcodec_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netkeep80/persistmem/internal/pmcodec"
)

type vector3 struct {
	X, Y, Z float64
}

type header struct {
	Kind    uint16
	Flags   uint8
	Active  bool
	Payload int64
	Label   string
	Raw     []byte
}

func TestEncodeDecode_Primitives(t *testing.T) {
	cases := []interface{}{
		true, false,
		int8(-12), int16(-1234), int32(-123456), int64(-123456789),
		uint8(12), uint16(1234), uint32(123456), uint64(123456789),
		float32(3.5), float64(-2.25),
		"hello, pmcodec",
	}

	for _, v := range cases {
		buf := make([]byte, 64)
		n, err := pmcodec.EncodeInto(buf, v)
		require.NoError(t, err)
		require.Greater(t, n, 0)

		switch v.(type) {
		case bool:
			var out bool
			_, err = pmcodec.DecodeFrom(buf, &out)
			require.NoError(t, err)
			assert.Equal(t, v, out)
		case string:
			var out string
			_, err = pmcodec.DecodeFrom(buf, &out)
			require.NoError(t, err)
			assert.Equal(t, v, out)
		}
	}
}

func TestEncodeDecode_FlatStruct(t *testing.T) {
	in := vector3{X: 1.5, Y: -2.5, Z: 3.0}
	buf := make([]byte, 64)

	n, err := pmcodec.EncodeInto(buf, in)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	var out vector3
	_, err = pmcodec.DecodeFrom(buf, &out)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeDecode_MixedFieldStruct(t *testing.T) {
	in := header{
		Kind:    7,
		Flags:   0xFF,
		Active:  true,
		Payload: -99,
		Label:   "segment",
		Raw:     []byte{1, 2, 3, 4},
	}
	buf := make([]byte, 128)

	_, err := pmcodec.EncodeInto(buf, in)
	require.NoError(t, err)

	var out header
	_, err = pmcodec.DecodeFrom(buf, &out)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeInto_BufferTooSmall(t *testing.T) {
	in := header{Label: "this label is long enough to overflow a tiny buffer"}
	buf := make([]byte, 4)

	_, err := pmcodec.EncodeInto(buf, in)
	assert.ErrorIs(t, err, pmcodec.ErrBufferTooSmall)
}

func TestDecodeFrom_RejectsNonPointer(t *testing.T) {
	buf := make([]byte, 16)
	_, _ = pmcodec.EncodeInto(buf, int32(5))

	var out int32
	_, err := pmcodec.DecodeFrom(buf, out)
	assert.Error(t, err)
}

func TestEncodeInto_RejectsUnsupportedType(t *testing.T) {
	buf := make([]byte, 16)
	_, err := pmcodec.EncodeInto(buf, map[string]int{"a": 1})
	assert.ErrorIs(t, err, pmcodec.ErrUnsupportedType)
}

func TestEncodeInto_RejectsNaN(t *testing.T) {
	buf := make([]byte, 16)
	_, err := pmcodec.EncodeInto(buf, math.NaN())
	assert.ErrorIs(t, err, pmcodec.ErrInvalidFloat)
}
