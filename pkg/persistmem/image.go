package persistmem

import (
	"context"

	"go.uber.org/zap"

	"github.com/netkeep80/persistmem/internal/region"
)

// Image binds a Manager to a backing Region (a file or a WASM linear
// memory) and provides the create/save/load/close lifecycle over a
// caller-owned path.
type Image struct {
	Manager *Manager
	region  region.Region
}

// CreateImage creates a new file-backed region of size bytes at path,
// initializes a fresh heap image in it, and binds a Manager to it.
func CreateImage(path string, size uint64, opts ...Option) (*Image, error) {
	m := NewManager(opts...)
	r, err := region.CreateFileRegion(path, size, region.WithLogger(m.Logger()))
	if err != nil {
		return nil, err
	}
	if err := m.Create(r.Bytes()); err != nil {
		return nil, err
	}
	return &Image{Manager: m, region: r}, nil
}

// LoadImage reads the file-backed region at path and binds a Manager to
// it, rejecting images whose magic/version/region-size don't match.
func LoadImage(path string, opts ...Option) (*Image, error) {
	m := NewManager(opts...)
	r, err := region.OpenFileRegion(path, region.WithLogger(m.Logger()))
	if err != nil {
		return nil, err
	}
	if err := m.Load(r.Bytes()); err != nil {
		return nil, err
	}
	return &Image{Manager: m, region: r}, nil
}

// CreateWASMImage allocates a fresh heap image inside a wazero-hosted
// WASM linear memory of at least size bytes instead of an OS file.
func CreateWASMImage(ctx context.Context, size uint32, opts ...Option) (*Image, error) {
	r, err := region.OpenWASMRegion(ctx, size)
	if err != nil {
		return nil, err
	}
	m := NewManager(opts...)
	if err := m.Create(r.Bytes()); err != nil {
		r.Close()
		return nil, err
	}
	return &Image{Manager: m, region: r}, nil
}

// Save recomputes the region's checksum and persists the region's
// current bytes to its backing store. Save is best-effort and not
// lock-protected — callers should not call Save concurrently with a
// mutating operation on the same Image.
func (img *Image) Save() error {
	if err := img.Manager.Save(); err != nil {
		return err
	}
	var err error
	if saver, ok := img.region.(region.Saver); ok {
		err = saver.Save()
	} else {
		err = img.region.Close()
	}
	if err != nil {
		img.Manager.Logger().Error("image save failed", zap.Error(err))
		return err
	}
	img.Manager.Logger().Debug("image saved")
	return nil
}

// Close unbinds the Manager and releases the backing region's
// resources, persisting it first when the region supports that (a
// FileRegion does; a WASMRegion does not — see region.WASMRegion.Close).
func (img *Image) Close() error {
	if err := img.Manager.Save(); err != nil {
		img.Manager.Destroy()
		return err
	}
	img.Manager.Destroy()
	return img.region.Close()
}
