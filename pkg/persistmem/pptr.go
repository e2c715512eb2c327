package persistmem

import "github.com/netkeep80/persistmem/internal/heap"

// PPtr is the offset-based typed reference returned by AllocateTyped.
// A generic type alias (requires go 1.24+) so it names the exact same
// type as internal/heap.PPtr[T] — callers never import internal/heap
// directly, but the type identity is shared, so a PPtr[T] produced by
// one call works with every method below without conversion.
type PPtr[T any] = heap.PPtr[T]

// NullPPtr returns the null pointer for T.
func NullPPtr[T any]() PPtr[T] { return heap.NullPPtr[T]() }

// AllocateTyped reserves room for count values of T (count <= 0 means
// 1) and returns a typed pointer to them.
func AllocateTyped[T any](m *Manager, count int) PPtr[T] {
	return heap.AllocateTyped[T](m, count)
}

// DeallocateTyped frees a typed allocation. A null p is a no-op.
func DeallocateTyped[T any](m *Manager, p PPtr[T]) {
	heap.DeallocateTyped[T](m, p)
}

// ReallocateTyped resizes a typed allocation to hold count values of T.
func ReallocateTyped[T any](m *Manager, p PPtr[T], count int) PPtr[T] {
	return heap.ReallocateTyped[T](m, p, count)
}
