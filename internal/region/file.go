package region

import (
	"os"

	"go.uber.org/zap"

	"github.com/netkeep80/persistmem/internal/pmerr"
)

// FileRegion backs a heap.Manager with an OS file's contents read
// wholly into memory. Save writes the in-memory buffer back over the
// file's contents; this is best-effort and does not fsync, favoring
// throughput over durability guarantees stronger than the OS page
// cache already provides.
type FileRegion struct {
	path string
	buf  []byte
	log  *zap.Logger
}

// Option configures a FileRegion at construction time, mirroring
// heap.Option's functional-options shape.
type Option func(*FileRegion)

// WithLogger attaches a structured logger; Save logs the file path and
// byte count at debug level, and any I/O failure at error level. A nil
// logger (the default) disables logging entirely.
func WithLogger(l *zap.Logger) Option {
	return func(r *FileRegion) { r.log = l }
}

// CreateFileRegion creates (or truncates) the file at path to exactly
// size bytes, zero-filled, and returns a Region over it.
func CreateFileRegion(path string, size uint64, opts ...Option) (*FileRegion, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, pmerr.ErrIO
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return nil, pmerr.ErrIO
	}

	return newFileRegion(path, make([]byte, size), opts), nil
}

// OpenFileRegion reads the file at path fully into memory and returns a
// Region over it. The caller is expected to hand the result to
// heap.Manager.Load, which validates the header before trusting it.
func OpenFileRegion(path string, opts ...Option) (*FileRegion, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, pmerr.ErrIO
	}
	return newFileRegion(path, buf, opts), nil
}

func newFileRegion(path string, buf []byte, opts []Option) *FileRegion {
	r := &FileRegion{path: path, buf: buf, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bytes returns the in-memory buffer backing this region.
func (r *FileRegion) Bytes() []byte { return r.buf }

// Save writes the current buffer back to the backing file, overwriting
// its prior contents.
func (r *FileRegion) Save() error {
	f, err := os.OpenFile(r.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		r.log.Error("save: open failed", zap.String("path", r.path), zap.Error(err))
		return pmerr.ErrIO
	}
	defer f.Close()

	if _, err := f.WriteAt(r.buf, 0); err != nil {
		r.log.Error("save: write failed", zap.String("path", r.path), zap.Error(err))
		return pmerr.ErrIO
	}
	if err := f.Truncate(int64(len(r.buf))); err != nil {
		r.log.Error("save: truncate failed", zap.String("path", r.path), zap.Error(err))
		return pmerr.ErrIO
	}
	r.log.Debug("save", zap.String("path", r.path), zap.Int("bytes", len(r.buf)))
	return nil
}

// Close persists the buffer to disk. It is equivalent to Save; a
// FileRegion holds no other resource to release.
func (r *FileRegion) Close() error {
	return r.Save()
}
