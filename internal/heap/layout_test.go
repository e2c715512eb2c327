package heap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netkeep80/persistmem/internal/heap"
)

func TestLayout_ConstantsAreAligned(t *testing.T) {
	assert.Zero(t, heap.HeaderSize%heap.Alignment)
	assert.Zero(t, heap.BlockDescSize%heap.Alignment)
	assert.Zero(t, heap.ChunkHeaderSize%heap.Alignment)
	assert.Zero(t, heap.MinChunkSize%heap.Alignment)
	assert.True(t, heap.MinRegionSize > heap.HeaderSize+heap.BlockDescSize)
}

func TestLayout_AllocationsArePayloadAligned(t *testing.T) {
	m, _ := newBoundManager(t, 4096)

	sizes := []uint64{1, 3, 7, 8, 9, 63, 64, 65, 200}
	for _, n := range sizes {
		off := m.Allocate(n)
		if off == 0 {
			continue
		}
		assert.Zero(t, off%heap.Alignment, "payload offset %d for size %d must be %d-aligned", off, n, heap.Alignment)
		assert.True(t, off > heap.HeaderSize)
	}
}
