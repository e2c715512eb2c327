package pmcodec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Writer encodes tagged values into a fixed-capacity destination slice.
// It writes directly into a PPtr's already-sized payload bytes, so
// every write is bounds-checked against dst instead of growing a
// buffer.
type Writer struct {
	dst []byte
	pos int
	err error
}

// NewWriter returns a Writer over dst, writing from offset 0.
func NewWriter(dst []byte) *Writer {
	return &Writer{dst: dst}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.pos }

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) reserve(n int) []byte {
	if w.err != nil {
		return nil
	}
	if w.pos+n > len(w.dst) {
		w.fail(ErrBufferTooSmall)
		return nil
	}
	b := w.dst[w.pos : w.pos+n]
	w.pos += n
	return b
}

func (w *Writer) writeTag(tag byte) {
	if b := w.reserve(1); b != nil {
		b[0] = tag
	}
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.writeTag(TagBoolTrue)
	} else {
		w.writeTag(TagBoolFalse)
	}
}

func (w *Writer) WriteUint8(v uint8) {
	w.writeTag(TagU8)
	if b := w.reserve(1); b != nil {
		b[0] = v
	}
}

func (w *Writer) WriteInt8(v int8) {
	w.writeTag(TagI8)
	if b := w.reserve(1); b != nil {
		b[0] = byte(v)
	}
}

func (w *Writer) WriteUint16(v uint16) {
	w.writeTag(TagU16)
	if b := w.reserve(2); b != nil {
		binary.LittleEndian.PutUint16(b, v)
	}
}

func (w *Writer) WriteInt16(v int16) {
	w.writeTag(TagI16)
	if b := w.reserve(2); b != nil {
		binary.LittleEndian.PutUint16(b, uint16(v))
	}
}

func (w *Writer) WriteUint32(v uint32) {
	w.writeTag(TagU32)
	if b := w.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, v)
	}
}

func (w *Writer) WriteInt32(v int32) {
	w.writeTag(TagI32)
	if b := w.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, uint32(v))
	}
}

func (w *Writer) WriteUint64(v uint64) {
	w.writeTag(TagU64)
	if b := w.reserve(8); b != nil {
		binary.LittleEndian.PutUint64(b, v)
	}
}

func (w *Writer) WriteInt64(v int64) {
	w.writeTag(TagI64)
	if b := w.reserve(8); b != nil {
		binary.LittleEndian.PutUint64(b, uint64(v))
	}
}

func (w *Writer) WriteFloat32(v float32) {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		w.fail(ErrInvalidFloat)
		return
	}
	w.writeTag(TagF32)
	if b := w.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	}
}

func (w *Writer) WriteFloat64(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		w.fail(ErrInvalidFloat)
		return
	}
	w.writeTag(TagF64)
	if b := w.reserve(8); b != nil {
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

func (w *Writer) WriteString(v string) {
	if !utf8.ValidString(v) {
		w.fail(ErrInvalidUTF8)
		return
	}
	if len(v) > MaxPayloadLen {
		w.fail(ErrTooLarge)
		return
	}
	w.writeTag(TagString)
	if b := w.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, uint32(len(v)))
	}
	if len(v) > 0 {
		if b := w.reserve(len(v)); b != nil {
			copy(b, v)
		}
	}
}

func (w *Writer) WriteBytes(v []byte) {
	if len(v) > MaxPayloadLen {
		w.fail(ErrTooLarge)
		return
	}
	w.writeTag(TagBytes)
	if b := w.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, uint32(len(v)))
	}
	if len(v) > 0 {
		if b := w.reserve(len(v)); b != nil {
			copy(b, v)
		}
	}
}

// WriteStructHeader writes TagStruct and the field count; the caller
// writes fieldCount (name, value) pairs next via WriteFieldName.
func (w *Writer) WriteStructHeader(fieldCount int) {
	w.writeTag(TagStruct)
	if b := w.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, uint32(fieldCount))
	}
}

func (w *Writer) WriteFieldName(name string) {
	if len(name) > 255 {
		w.fail(ErrTooLarge)
		return
	}
	if b := w.reserve(1); b != nil {
		b[0] = byte(len(name))
	}
	if len(name) > 0 {
		if b := w.reserve(len(name)); b != nil {
			copy(b, name)
		}
	}
}
