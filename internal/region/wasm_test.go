package region_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netkeep80/persistmem/internal/region"
)

func TestWASMRegion_SizeRoundsUpToPageSize(t *testing.T) {
	r, err := region.OpenWASMRegion(context.Background(), 1000)
	require.NoError(t, err)
	defer r.Close()

	assert.GreaterOrEqual(t, len(r.Bytes()), 1000)
	assert.Zero(t, len(r.Bytes())%65536)
}

func TestWASMRegion_BytesAreWritable(t *testing.T) {
	r, err := region.OpenWASMRegion(context.Background(), 65536)
	require.NoError(t, err)
	defer r.Close()

	buf := r.Bytes()
	copy(buf, []byte("wasm-backed"))

	buf2 := r.Bytes()
	assert.Equal(t, "wasm-backed", string(buf2[:11]))
}

func TestOpenWASMRegion_RejectsZeroSize(t *testing.T) {
	_, err := region.OpenWASMRegion(context.Background(), 0)
	assert.Error(t, err)
}
