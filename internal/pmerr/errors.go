// Package pmerr defines the sentinel error catalog surfaced by the
// persistent memory manager. Every error kind named in the manager's
// design (invalid region, image mismatch, out of memory, double bind,
// I/O failure) has a stable sentinel here so callers can branch on it
// with errors.Is instead of parsing messages.
package pmerr

import "errors"

var (
	// ErrInvalidRegion is returned when Create/Load is called with a nil
	// base, a region too small to hold the header plus one block plus
	// the minimum chunk, or a misaligned base address.
	ErrInvalidRegion = errors.New("persistmem: invalid region")

	// ErrImageMismatch is returned when Load/LoadImage is given bytes
	// whose magic, version, or region-size does not match expectations.
	ErrImageMismatch = errors.New("persistmem: image mismatch")

	// ErrOutOfMemory names the condition in which no free chunk in any
	// block can satisfy an allocation or reallocation request. No
	// function in this module returns it: Allocate and Reallocate report
	// that condition by returning offset 0.
	ErrOutOfMemory = errors.New("persistmem: out of memory")

	// ErrDoubleBind is returned when Create or Load is called while a
	// manager is already bound to a region.
	ErrDoubleBind = errors.New("persistmem: manager already bound")

	// ErrUnbound is returned when a mutating operation is attempted on a
	// manager that is not currently bound to a region.
	ErrUnbound = errors.New("persistmem: manager not bound")

	// ErrIO wraps failures reading or writing an image file.
	ErrIO = errors.New("persistmem: I/O failure")

	// ErrCorrupt is returned by Load, when checksum verification is
	// enabled and the region's bytes no longer match the header's
	// checksum, and by PPtr.ResolveChecked when the pointed-to value
	// would start inside the region header or run past the region's
	// end. The validator
	// reports its findings as ValidationIssues, not as this error.
	ErrCorrupt = errors.New("persistmem: corrupt region")
)
