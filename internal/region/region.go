// Package region supplies the backing byte slices a heap.Manager binds
// to: a plain OS file for the common case, and a WASM linear-memory
// instance for hosts that want the image to live inside a wazero guest
// address space. Both satisfy the same Region interface so
// pkg/persistmem can treat them interchangeably.
package region

// Region is a resizable-by-recreation byte buffer that a heap.Manager
// can Create or Load against. Bytes returns the live backing slice —
// mutations the allocator makes through it are visible immediately,
// with no copy-back step required until Close persists them.
type Region interface {
	// Bytes returns the backing slice. Its length is fixed for the
	// lifetime of the Region.
	Bytes() []byte

	// Close releases any resources the Region holds. For a file-backed
	// Region this also persists Bytes() back to disk; callers that want
	// an explicit, separately-timed persist should use Save instead.
	Close() error
}

// Saver is implemented by Regions that support persisting without
// releasing their resources, letting a caller save periodically and
// keep working against the same buffer.
type Saver interface {
	Save() error
}
