// Package persistmem provides an offset-based persistent memory
// manager: a free-list allocator embedded in a single contiguous byte
// region, addressed entirely by PPtr[T] offsets rather than host
// pointers, so that an image saved to disk (or to WASM linear memory)
// resolves correctly after being reloaded at a different base address.
//
// Typical use:
//
//	img, err := persistmem.CreateImage("state.pmem", 1<<20)
//	if err != nil { ... }
//	defer img.Close()
//
//	p := persistmem.AllocateTyped[MyStruct](img.Manager, 1)
//	v := p.Resolve(img.Manager)
//	v.Field = 42
//
//	if err := img.Save(); err != nil { ... }
package persistmem

import (
	"github.com/netkeep80/persistmem/internal/heap"
)

// Manager is the singleton binding to an active region: allocate,
// deallocate, reallocate, and validate all operate through it.
type Manager = heap.Manager

// Config and Option mirror heap.Config/heap.Option for callers who want
// to build a Manager directly instead of through CreateImage/LoadImage.
type Config = heap.Config
type Option = heap.Option

// Stats is a snapshot of allocator activity.
type Stats = heap.Stats

// ValidationIssue describes one invariant violation found by Validate.
type ValidationIssue = heap.ValidationIssue

// NewManager, WithLogger, and WithChecksumVerification are re-exported
// unchanged from internal/heap for callers managing their own region.
var (
	NewManager               = heap.NewManager
	WithLogger               = heap.WithLogger
	WithChecksumVerification = heap.WithChecksumVerification
)
