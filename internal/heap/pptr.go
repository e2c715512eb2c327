package heap

import (
	"unsafe"

	"github.com/netkeep80/persistmem/internal/pmerr"
)

// PPtr is an offset-based typed reference: the byte offset of a user
// payload from its region's base, phantom-typed by T. It replaces a
// raw host pointer so that the reference survives relocation — saving
// a PPtr to disk and reloading the region at a different host address
// resolves to the same payload bytes, because the manager adds the
// current region base to this offset rather than dereferencing a
// stored address. Offset 0 is the null sentinel: no valid payload can
// live there, since the region header occupies it.
//
// PPtr is sized to exactly one host pointer (a bare uint64) with the
// element type carried only as a compile-time phantom via Go generics,
// so storing one costs nothing beyond the offset itself.
type PPtr[T any] uint64

// NullPPtr returns the null pointer for T.
func NullPPtr[T any]() PPtr[T] { return 0 }

// IsNull reports whether p is the null pointer.
func (p PPtr[T]) IsNull() bool { return p == 0 }

// Offset returns the raw byte offset this pointer carries.
func (p PPtr[T]) Offset() uint64 { return uint64(p) }

// Resolve converts p to a host pointer by adding m's current region
// base, with no bounds check — the fast unchecked path. It returns nil
// if p is null or m is nil or unbound. Resolve takes no lock: the
// caller is responsible for ensuring the referenced allocation is not
// concurrently freed or relocated.
func (p PPtr[T]) Resolve(m *Manager) *T {
	if p == 0 || m == nil || m.arena == nil {
		return nil
	}
	region := m.arena.region
	if uint64(p) >= uint64(len(region)) {
		return nil
	}
	return (*T)(unsafe.Pointer(&region[p]))
}

// ResolveChecked is Resolve's bounds-checked sibling: it verifies the
// full sizeof(T) footprint fits within the region before returning a
// pointer, returning an error instead of a silently truncated or
// out-of-bounds pointer. Prefer this variant in tests.
func (p PPtr[T]) ResolveChecked(m *Manager) (*T, error) {
	if m == nil || m.arena == nil {
		return nil, pmerr.ErrUnbound
	}
	if p == 0 {
		return nil, nil
	}
	region := m.arena.region
	var zero T
	end := uint64(p) + uint64(unsafe.Sizeof(zero))
	if uint64(p) < uint64(HeaderSize) || end > uint64(len(region)) {
		return nil, pmerr.ErrCorrupt
	}
	return (*T)(unsafe.Pointer(&region[p])), nil
}

// ResolveAt returns a pointer to the i-th element of an array allocated
// at p, equivalent to Resolve(m) + i*sizeof(T). It is nil whenever
// Resolve would be nil, or when the i-th element would fall outside the
// region.
func (p PPtr[T]) ResolveAt(m *Manager, i int) *T {
	if p == 0 || m == nil || m.arena == nil {
		return nil
	}
	var zero T
	elemSize := uint64(unsafe.Sizeof(zero))
	pos := uint64(p) + uint64(i)*elemSize
	region := m.arena.region
	if pos+elemSize > uint64(len(region)) {
		return nil
	}
	return (*T)(unsafe.Pointer(&region[pos]))
}

// AllocateTyped reserves room for count values of T (count defaults to
// 1 for count <= 0) and returns a typed pointer to them. Go does not
// allow methods to carry their own type parameters, so this is a free
// function over *Manager rather than a Manager method.
func AllocateTyped[T any](m *Manager, count int) PPtr[T] {
	if count <= 0 {
		count = 1
	}
	var zero T
	size := uint64(unsafe.Sizeof(zero)) * uint64(count)
	return PPtr[T](m.Allocate(size))
}

// DeallocateTyped frees a typed allocation. A null p is a no-op.
func DeallocateTyped[T any](m *Manager, p PPtr[T]) {
	if p.IsNull() {
		return
	}
	m.Deallocate(uint64(p))
}

// ReallocateTyped resizes a typed allocation to hold count values of T.
func ReallocateTyped[T any](m *Manager, p PPtr[T], count int) PPtr[T] {
	if count < 0 {
		count = 0
	}
	var zero T
	size := uint64(unsafe.Sizeof(zero)) * uint64(count)
	return PPtr[T](m.Reallocate(uint64(p), size))
}
