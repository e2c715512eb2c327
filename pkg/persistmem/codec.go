package persistmem

import (
	"github.com/netkeep80/persistmem/internal/pmcodec"
	"github.com/netkeep80/persistmem/internal/pmerr"
)

// EncodeInto tag-encodes v and writes it into the allocation p points
// to, failing with pmcodec.ErrBufferTooSmall if the allocation is
// smaller than v's encoded form. T must be a primitive or a flat struct
// of primitives — see internal/pmcodec for the exact supported set.
func EncodeInto[T any](m *Manager, p PPtr[T], v T) error {
	if p.IsNull() {
		return pmerr.ErrUnbound
	}
	dst := m.PayloadBytes(p.Offset())
	if dst == nil {
		return pmerr.ErrUnbound
	}
	_, err := pmcodec.EncodeInto(dst, v)
	return err
}

// DecodeFrom reads and tag-decodes the value previously written by
// EncodeInto out of the allocation p points to.
func DecodeFrom[T any](m *Manager, p PPtr[T]) (T, error) {
	var zero T
	if p.IsNull() {
		return zero, pmerr.ErrUnbound
	}
	src := m.PayloadBytes(p.Offset())
	if src == nil {
		return zero, pmerr.ErrUnbound
	}
	_, err := pmcodec.DecodeFrom(src, &zero)
	return zero, err
}
