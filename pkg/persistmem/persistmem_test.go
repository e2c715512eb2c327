package persistmem_test

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netkeep80/persistmem/pkg/persistmem"
)

type record struct {
	ID    uint32
	Score float64
}

func TestTypedArrayWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "array.pmem")
	img, err := persistmem.CreateImage(path, 4096)
	require.NoError(t, err)
	defer img.Close()

	p := persistmem.AllocateTyped[int32](img.Manager, 10)
	require.False(t, p.IsNull())

	for i := 0; i < 10; i++ {
		*p.ResolveAt(img.Manager, i) = int32(i * 3)
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, int32(i*3), *p.ResolveAt(img.Manager, i))
	}
}

func TestPersistenceAcrossSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.pmem")

	img, err := persistmem.CreateImage(path, 4096)
	require.NoError(t, err)

	p := persistmem.AllocateTyped[record](img.Manager, 1)
	require.False(t, p.IsNull())
	v := p.Resolve(img.Manager)
	v.ID, v.Score = 42, 98.6

	require.NoError(t, img.Save())
	require.NoError(t, img.Close())

	img2, err := persistmem.LoadImage(path)
	require.NoError(t, err)
	defer img2.Close()

	v2 := p.Resolve(img2.Manager)
	require.NotNil(t, v2)
	assert.Equal(t, uint32(42), v2.ID)
	assert.Equal(t, 98.6, v2.Score)
	assert.True(t, img2.Manager.Validate())
}

func TestConcurrentAllocations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.pmem")
	img, err := persistmem.CreateImage(path, 1<<20)
	require.NoError(t, err)
	defer img.Close()

	const goroutines = 4
	const perGoroutine = 200

	offsets := make([][]uint64, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		g := g
		offsets[g] = make([]uint64, perGoroutine)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				off := img.Manager.Allocate(64)
				require.NotZero(t, off)
				offsets[g][i] = off
			}
		}()
	}
	wg.Wait()

	assert.True(t, img.Manager.Validate())
	assert.Equal(t, uint64(goroutines*perGoroutine), img.Manager.AllocatedBlocks())

	for g := 0; g < goroutines; g++ {
		for _, off := range offsets[g] {
			img.Manager.Deallocate(off)
		}
	}
	assert.True(t, img.Manager.Validate())
	assert.Equal(t, uint64(0), img.Manager.AllocatedBlocks())
}

func TestOutOfMemoryThenSmallAllocationSucceeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oom.pmem")
	img, err := persistmem.CreateImage(path, 4096)
	require.NoError(t, err)
	defer img.Close()

	assert.Zero(t, img.Manager.Allocate(1<<20))
	assert.True(t, img.Manager.Validate())

	off := img.Manager.Allocate(64)
	assert.NotZero(t, off)
}

func TestReallocateGrowInPlaceKeepsOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grow.pmem")
	img, err := persistmem.CreateImage(path, 4096)
	require.NoError(t, err)
	defer img.Close()

	a := img.Manager.Allocate(64)
	require.NotZero(t, a)
	b := img.Manager.Allocate(64)
	require.NotZero(t, b)
	img.Manager.Deallocate(b)

	grown := img.Manager.Reallocate(a, 96)
	require.NotZero(t, grown)
	assert.Equal(t, a, grown)
}

func TestReallocateMovesAndPreservesBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "move.pmem")
	img, err := persistmem.CreateImage(path, 4096)
	require.NoError(t, err)
	defer img.Close()

	a := img.Manager.Allocate(64)
	require.NotZero(t, a)

	b := img.Manager.Allocate(64)
	require.NotZero(t, b)
	copy(img.Manager.Region()[b:b+5], []byte("abcde"))
	c := img.Manager.Allocate(64)
	require.NotZero(t, c)

	moved := img.Manager.Reallocate(b, 1024)
	require.NotZero(t, moved)
	assert.NotEqual(t, b, moved)

	assert.Equal(t, "abcde", string(img.Manager.Region()[moved:moved+5]))
	assert.True(t, img.Manager.Validate())
}

func TestEncodeDecodeThroughTypedPointer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codec.pmem")
	img, err := persistmem.CreateImage(path, 4096)
	require.NoError(t, err)
	defer img.Close()

	// The tagged encoding of a record takes 28 bytes, more than
	// sizeof(record), so room for two records is reserved.
	p := persistmem.AllocateTyped[record](img.Manager, 2)
	require.False(t, p.IsNull())

	require.NoError(t, persistmem.EncodeInto(img.Manager, p, record{ID: 9, Score: 1.5}))

	out, err := persistmem.DecodeFrom(img.Manager, p)
	require.NoError(t, err)
	assert.Equal(t, record{ID: 9, Score: 1.5}, out)
}
