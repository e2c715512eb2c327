package heap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netkeep80/persistmem/internal/heap"
	"github.com/netkeep80/persistmem/internal/pmerr"
)

type point struct {
	X, Y int64
}

func newBoundManager(t *testing.T, size int) (*heap.Manager, []byte) {
	t.Helper()
	m := heap.NewManager()
	buf := make([]byte, size)
	require.NoError(t, m.Create(buf))
	t.Cleanup(m.Destroy)
	return m, buf
}

func TestManager_CreateRejectsUndersizedRegion(t *testing.T) {
	m := heap.NewManager()
	err := m.Create(make([]byte, 8))
	assert.Error(t, err)
	assert.False(t, m.Bound())
}

func TestManager_CreateInitializesFreeSize(t *testing.T) {
	m, buf := newBoundManager(t, 4096)
	assert.True(t, m.Bound())
	assert.Equal(t, uint64(len(buf)), m.RegionSize())
	assert.Equal(t, uint64(0), m.AllocatedBlocks())
	assert.True(t, m.FreeSize() > 0)
	assert.True(t, m.FreeSize() < uint64(len(buf)))
}

func TestManager_AllocateDeallocateRoundTrip(t *testing.T) {
	m, _ := newBoundManager(t, 4096)

	off := m.Allocate(64)
	require.NotZero(t, off)
	assert.Equal(t, uint64(1), m.AllocatedBlocks())

	freeBefore := m.FreeSize()
	m.Deallocate(off)
	assert.Equal(t, uint64(0), m.AllocatedBlocks())
	assert.True(t, m.FreeSize() > freeBefore)
	assert.True(t, m.Validate())
}

func TestManager_AllocateZeroOnUnbound(t *testing.T) {
	m := heap.NewManager()
	assert.Equal(t, uint64(0), m.Allocate(16))
}

func TestManager_DoubleBindFails(t *testing.T) {
	m1, _ := newBoundManager(t, 4096)
	_ = m1

	m2 := heap.NewManager()
	err := m2.Create(make([]byte, 4096))
	assert.ErrorIs(t, err, pmerr.ErrDoubleBind)
}

func TestManager_OutOfMemoryFailsGracefully(t *testing.T) {
	m, _ := newBoundManager(t, 256)

	off := m.Allocate(1 << 20)
	assert.Zero(t, off)
	assert.True(t, m.Validate())

	small := m.Allocate(16)
	require.NotZero(t, small)
	assert.True(t, m.Validate())
}

func TestManager_ReallocateGrowInPlace(t *testing.T) {
	m, _ := newBoundManager(t, 4096)

	a := m.Allocate(64)
	require.NotZero(t, a)
	b := m.Allocate(64)
	require.NotZero(t, b)

	m.Deallocate(b)

	grown := m.Reallocate(a, 96)
	require.NotZero(t, grown)
	assert.Equal(t, a, grown, "grow absorbing a freed forward neighbor should not move")
	assert.True(t, m.Validate())
}

func TestManager_ReallocateMovesWhenNoRoom(t *testing.T) {
	m, _ := newBoundManager(t, 4096)

	a := m.Allocate(64)
	require.NotZero(t, a)
	region := m.Region()
	copy(region[a:a+5], []byte("hello"))

	b := m.Allocate(64)
	require.NotZero(t, b)
	c := m.Allocate(64)
	require.NotZero(t, c)

	moved := m.Reallocate(a, 1024)
	require.NotZero(t, moved)
	assert.NotEqual(t, a, moved)

	region = m.Region()
	assert.Equal(t, "hello", string(region[moved:moved+5]))
	assert.True(t, m.Validate())
}

func TestManager_PersistsAcrossRebind(t *testing.T) {
	m1 := heap.NewManager()
	buf := make([]byte, 4096)
	require.NoError(t, m1.Create(buf))

	p := heap.AllocateTyped[point](m1, 1)
	require.False(t, p.IsNull())
	v := p.Resolve(m1)
	v.X, v.Y = 7, 9

	saved := make([]byte, len(buf))
	copy(saved, buf)
	m1.Destroy()

	m2 := heap.NewManager()
	require.NoError(t, m2.Load(saved))
	defer m2.Destroy()

	v2 := p.Resolve(m2)
	require.NotNil(t, v2)
	assert.Equal(t, int64(7), v2.X)
	assert.Equal(t, int64(9), v2.Y)
	assert.True(t, m2.Validate())
}

func TestManager_LoadRejectsMismatchedSize(t *testing.T) {
	m1 := heap.NewManager()
	buf := make([]byte, 4096)
	require.NoError(t, m1.Create(buf))
	saved := append([]byte{}, buf...)
	m1.Destroy()

	truncated := saved[:len(saved)-8]
	m2 := heap.NewManager()
	err := m2.Load(truncated)
	assert.Error(t, err)
	assert.False(t, m2.Bound())
}

func TestManager_StatsTrackAllocationsAndFrees(t *testing.T) {
	m, _ := newBoundManager(t, 4096)

	a := m.Allocate(64)
	b := m.Allocate(32)
	require.NotZero(t, a)
	require.NotZero(t, b)

	stats := m.Stats()
	assert.Equal(t, uint64(2), stats.AllocationCount)
	assert.True(t, stats.CurrentAllocated > 0)

	m.Deallocate(a)
	stats = m.Stats()
	assert.Equal(t, uint64(1), stats.DeallocationCount)

	m.Deallocate(b)
	stats = m.Stats()
	assert.Equal(t, uint64(0), stats.CurrentAllocated)
}

func TestManager_SaveWritesVerifiableChecksum(t *testing.T) {
	m1 := heap.NewManager(heap.WithChecksumVerification(true))
	buf := make([]byte, 4096)
	require.NoError(t, m1.Create(buf))

	p := heap.AllocateTyped[point](m1, 1)
	require.False(t, p.IsNull())
	v := p.Resolve(m1)
	v.X, v.Y = 3, 4

	require.NoError(t, m1.Save())

	saved := make([]byte, len(buf))
	copy(saved, buf)
	m1.Destroy()

	m2 := heap.NewManager(heap.WithChecksumVerification(true))
	require.NoError(t, m2.Load(saved))
	defer m2.Destroy()
	assert.True(t, m2.Validate())
}

func TestManager_LoadRejectsCorruptedChecksum(t *testing.T) {
	m1 := heap.NewManager(heap.WithChecksumVerification(true))
	buf := make([]byte, 4096)
	require.NoError(t, m1.Create(buf))
	require.NoError(t, m1.Save())

	saved := make([]byte, len(buf))
	copy(saved, buf)
	m1.Destroy()

	saved[heap.HeaderSize+10] ^= 0xFF // flip a byte inside the block descriptor

	m2 := heap.NewManager(heap.WithChecksumVerification(true))
	err := m2.Load(saved)
	assert.ErrorIs(t, err, pmerr.ErrCorrupt)
	assert.False(t, m2.Bound())
}

func TestManager_SaveFailsWhenUnbound(t *testing.T) {
	m := heap.NewManager()
	err := m.Save()
	assert.ErrorIs(t, err, pmerr.ErrUnbound)
}

func TestManager_StatsFragmentationRatio(t *testing.T) {
	m, _ := newBoundManager(t, 4096)

	a := m.Allocate(64)
	b := m.Allocate(64)
	c := m.Allocate(64)
	require.NotZero(t, a)
	require.NotZero(t, b)
	require.NotZero(t, c)

	assert.Zero(t, m.Stats().FragmentationRatio, "no free memory yet but for the untouched tail, still a single chunk")

	m.Deallocate(a)
	m.Deallocate(c)

	ratio := m.Stats().FragmentationRatio
	assert.True(t, ratio > 0, "two disjoint freed chunks plus the tail should not coalesce into one, giving a nonzero ratio")
}

func TestManager_TypedArrayAccess(t *testing.T) {
	m, _ := newBoundManager(t, 4096)

	p := heap.AllocateTyped[int64](m, 10)
	require.False(t, p.IsNull())

	for i := 0; i < 10; i++ {
		ptr := p.ResolveAt(m, i)
		require.NotNil(t, ptr)
		*ptr = int64(i * i)
	}
	for i := 0; i < 10; i++ {
		ptr := p.ResolveAt(m, i)
		assert.Equal(t, int64(i*i), *ptr)
	}
	assert.Nil(t, p.ResolveAt(m, 10_000))
}
