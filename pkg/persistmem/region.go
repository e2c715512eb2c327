package persistmem

import (
	"context"

	"github.com/netkeep80/persistmem/internal/region"
)

// Region is a resizable-by-recreation byte buffer a Manager can Create
// or Load against.
type Region = region.Region

// OpenFileRegion reads path fully into memory and returns a Region over
// it, for callers who want to drive Manager.Load themselves instead of
// going through LoadImage.
func OpenFileRegion(path string) (Region, error) {
	return region.OpenFileRegion(path)
}

// CreateFileRegion creates (or truncates) the file at path to size
// zero-filled bytes and returns a Region over it.
func CreateFileRegion(path string, size uint64) (Region, error) {
	return region.CreateFileRegion(path, size)
}

// OpenWASMRegion allocates a region backed by a wazero WASM module
// instance's linear memory, rounded up to whole 64 KiB pages.
func OpenWASMRegion(ctx context.Context, sizeBytes uint32) (Region, error) {
	return region.OpenWASMRegion(ctx, sizeBytes)
}
