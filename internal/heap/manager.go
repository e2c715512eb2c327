package heap

import (
	"sync"

	"go.uber.org/zap"

	"github.com/netkeep80/persistmem/internal/pmerr"
)

// globalBound enforces the "only one active manager per process" rule.
// It is independent of any single *Manager value: the rule is about how
// many managers may be simultaneously bound, not about reusing one
// particular Go value, so Create/Load on a fresh Manager still fails
// while any other Manager in the process is bound.
var (
	globalMu    sync.Mutex
	globalBound bool
)

// Config configures a Manager. The zero value is valid: no logging, no
// checksum verification.
type Config struct {
	Logger         *zap.Logger
	VerifyChecksum bool
}

// Option configures a Manager at construction time via the functional
// options pattern.
type Option func(*Config)

// WithLogger attaches a structured logger; every mutating operation
// logs its name and size/offset at debug level, as does an allocation
// that finds no room. Rejected calls (double bind, invalid or
// mismatched region, checksum mismatch, unbound manager) log at error
// level. A nil logger (the default) disables logging entirely.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithChecksumVerification enables checking the region header's
// checksum field on Load against a checksum recomputed over the
// region's current bytes.
func WithChecksumVerification(enabled bool) Option {
	return func(c *Config) { c.VerifyChecksum = enabled }
}

// Manager is the singleton binding to an active region: it owns the
// lock that serializes every mutating operation and the arena that
// implements the free-list discipline over that region's bytes.
type Manager struct {
	mu    sync.Mutex
	log   *zap.Logger
	cfg   Config
	arena *arena
	bound bool

	stats Stats
}

// NewManager constructs an unbound Manager. Call Create or Load to
// bind it to a region before using any allocation API.
func NewManager(opts ...Option) *Manager {
	cfg := Config{VerifyChecksum: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cfg: cfg, log: log}
}

// Create initializes a fresh header, one block spanning region, and one
// free chunk spanning that block, and binds this Manager to region. It
// fails if region is nil, too small, or does not start at an
// Alignment-aligned address, or if another manager is already bound in
// this process.
func (m *Manager) Create(region []byte) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalBound {
		m.log.Error("create: already bound")
		return pmerr.ErrDoubleBind
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := newArena(region)
	if err != nil {
		m.log.Error("create failed", zap.Error(err))
		return err
	}

	m.arena = a
	m.bound = true
	globalBound = true
	m.stats = Stats{}
	m.log.Debug("create", zap.Uint64("region_size", uint64(len(region))))
	return nil
}

// Load verifies magic/version/size and rebinds this Manager to region
// without mutating any offset stored inside it — every PPtr saved from
// a prior session resolves correctly once Load succeeds.
func (m *Manager) Load(region []byte) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalBound {
		m.log.Error("load: already bound")
		return pmerr.ErrDoubleBind
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := loadArena(region)
	if err != nil {
		m.log.Error("load failed", zap.Error(err))
		return err
	}
	if m.cfg.VerifyChecksum {
		h := a.readHeader()
		if h.Checksum != 0 && checksumRegion(region) != h.Checksum {
			m.log.Error("load: checksum mismatch")
			return pmerr.ErrCorrupt
		}
	}

	m.arena = a
	m.bound = true
	globalBound = true
	m.stats = Stats{}
	m.log.Debug("load", zap.Uint64("region_size", uint64(len(region))))
	return nil
}

// Destroy clears this Manager's binding. The region's memory remains
// owned by the caller and is left untouched.
func (m *Manager) Destroy() {
	globalMu.Lock()
	defer globalMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bound {
		globalBound = false
	}
	m.arena = nil
	m.bound = false
	m.log.Debug("destroy")
}

// Bound reports whether this Manager is currently bound to a region.
func (m *Manager) Bound() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bound
}

// Region returns the raw backing bytes of the bound region, or nil if
// unbound. Used by tests; callers must not retain the slice
// across a Destroy.
func (m *Manager) Region() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound {
		return nil
	}
	return m.arena.region
}

// Allocate reserves n bytes and returns their payload offset, or 0 if
// the request cannot be satisfied.
func (m *Manager) Allocate(n uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound {
		m.log.Error("allocate: unbound")
		return 0
	}
	off, ok := m.arena.allocate(n)
	if !ok {
		m.stats.FailedAllocations++
		m.log.Debug("allocate failed", zap.Uint64("size", n))
		return 0
	}
	m.stats.onAllocate(n)
	m.log.Debug("allocate", zap.Uint64("size", n), zap.Uint64("offset", off))
	return off
}

// Deallocate frees the chunk owning offset. Deallocating 0 is a no-op.
func (m *Manager) Deallocate(offset uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound || offset == 0 {
		return
	}
	freedSize := m.arena.payloadSizeOf(offset)
	m.arena.deallocate(offset)
	m.stats.onDeallocate(freedSize)
	m.log.Debug("deallocate", zap.Uint64("offset", offset))
}

// Reallocate resizes the allocation at offset to newSize, applying the
// grow/shrink/move resize policy.
func (m *Manager) Reallocate(offset, newSize uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound {
		m.log.Error("reallocate: unbound")
		return 0
	}
	var oldSize uint64
	if offset != 0 {
		oldSize = m.arena.payloadSizeOf(offset)
	}
	newOff, ok := m.arena.reallocate(offset, newSize)
	if !ok {
		m.stats.FailedAllocations++
		m.log.Debug("reallocate failed", zap.Uint64("offset", offset), zap.Uint64("new_size", newSize))
		return 0
	}
	if newSize == 0 {
		m.stats.onDeallocate(oldSize)
	} else {
		m.stats.onReallocate(oldSize, newSize)
	}
	m.log.Debug("reallocate", zap.Uint64("offset", offset), zap.Uint64("new_offset", newOff))
	return newOff
}

// FreeSize returns the sum of FREE chunk payload capacities across the
// bound region.
func (m *Manager) FreeSize() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound {
		return 0
	}
	return m.arena.readHeader().FreeSize
}

// RegionSize returns the total size of the bound region in bytes.
func (m *Manager) RegionSize() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound {
		return 0
	}
	return m.arena.readHeader().RegionSize
}

// AllocatedBlocks returns the number of USED chunks across the bound
// region (despite the name, it counts live allocations, not blocks).
func (m *Manager) AllocatedBlocks() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound {
		return 0
	}
	return m.arena.readHeader().AllocatedBlockCount
}

// PayloadBytes returns the live byte slice of the allocation at
// offset, bounded by its chunk's payload capacity — the view
// EncodeInto/DecodeFrom write and read through. It returns nil for a
// null offset or an unbound manager.
func (m *Manager) PayloadBytes(offset uint64) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound || offset == 0 {
		return nil
	}
	capacity := m.arena.payloadSizeOf(offset)
	if offset+capacity > uint64(len(m.arena.region)) {
		return nil
	}
	return m.arena.region[offset : offset+capacity]
}

// Stats returns a snapshot of allocation counters for diagnostics,
// plus a fragmentation ratio computed fresh from the current free list
// (unlike the other fields, it is not an accumulated counter).
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	if m.bound {
		s.FragmentationRatio = m.arena.fragmentationRatio()
	}
	return s
}

// Save recomputes the region header's checksum over the region's
// current bytes and writes it back, so a later Load with
// WithChecksumVerification can detect corruption. It does not write to
// any backing store itself — persisting the region's bytes is the
// backing Region's job (see internal/region and pkg/persistmem.Image).
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.bound {
		m.log.Error("save: unbound")
		return pmerr.ErrUnbound
	}
	h := m.arena.readHeader()
	h.Checksum = checksumRegion(m.arena.region)
	m.arena.writeHeader(h)
	m.log.Debug("save", zap.Uint64("region_size", h.RegionSize), zap.Uint64("checksum", h.Checksum))
	return nil
}

// Logger returns the structured logger this Manager was constructed
// with (zap.NewNop() if none was supplied), so callers composing a
// Manager with a separately-constructed Region can share one logger.
func (m *Manager) Logger() *zap.Logger {
	return m.log
}
