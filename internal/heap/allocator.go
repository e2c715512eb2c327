package heap

import (
	"unsafe"

	"github.com/netkeep80/persistmem/internal/pmerr"
)

// arena is the free-list allocator over a caller-supplied byte region.
// It keeps no state outside region itself: the header, block
// descriptors, and every chunk's free-list links are all read from and
// written back to region on every call, which is what makes save/load
// at a different host address correct without any offset rewriting.
type arena struct {
	region []byte
}

func newArena(region []byte) (*arena, error) {
	if region == nil || uint64(len(region)) < MinRegionSize ||
		uintptr(unsafe.Pointer(&region[0]))%Alignment != 0 {
		return nil, pmerr.ErrInvalidRegion
	}

	blockBase := uint64(HeaderSize + BlockDescSize)
	blockSize := uint64(len(region)) - blockBase

	putChunkHeader(region, blockBase, chunkHeader{Size: blockSize, State: chunkFree})
	putBlockDesc(region, HeaderSize, blockDesc{
		BaseOffset:   blockBase,
		Size:         blockSize,
		FreeListHead: blockBase,
	})

	h := regionHeader{
		Magic:                Magic,
		Version:              HeaderVersion,
		HeaderSz:             HeaderSize,
		RegionSize:           uint64(len(region)),
		FreeSize:             payloadCapacity(blockSize),
		AllocatedBlockCount:  0,
		BlockCount:           1,
		FirstBlockDescOffset: HeaderSize,
	}
	h.put(region)

	return &arena{region: region}, nil
}

func loadArena(region []byte) (*arena, error) {
	if region == nil || uint64(len(region)) < MinRegionSize ||
		uintptr(unsafe.Pointer(&region[0]))%Alignment != 0 {
		return nil, pmerr.ErrInvalidRegion
	}
	h, err := getHeader(region)
	if err != nil {
		return nil, pmerr.ErrImageMismatch
	}
	if h.Magic != Magic || h.Version != HeaderVersion || h.RegionSize != uint64(len(region)) {
		return nil, pmerr.ErrImageMismatch
	}
	return &arena{region: region}, nil
}

func (a *arena) readHeader() regionHeader {
	h, _ := getHeader(a.region)
	return h
}

func (a *arena) writeHeader(h regionHeader) {
	h.put(a.region)
}

func (a *arena) findBlockContaining(h regionHeader, offset uint64) (index int, descOffset uint64, b blockDesc, found bool) {
	for i := 0; i < int(h.BlockCount); i++ {
		boff := blockDescOffset(h.FirstBlockDescOffset, i)
		bd := getBlockDesc(a.region, boff)
		if offset >= bd.BaseOffset && offset < bd.BaseOffset+bd.Size {
			return i, boff, bd, true
		}
	}
	return -1, 0, blockDesc{}, false
}

// payloadSizeOf returns the usable payload capacity of the chunk
// owning payload, for statistics purposes.
func (a *arena) payloadSizeOf(payload uint64) uint64 {
	c := getChunkHeader(a.region, chunkOffsetFromPayload(payload))
	return payloadCapacity(c.Size)
}

// fragmentationRatio reports the fraction of total free bytes, across
// every block's free list, that are not part of the single largest
// free chunk. It trusts the free list is well-formed, the same
// assumption allocate/deallocate make; validate is the entry point
// that safely handles a possibly-corrupted list.
func (a *arena) fragmentationRatio() float64 {
	h := a.readHeader()

	var totalFree, largest uint64
	for i := 0; i < int(h.BlockCount); i++ {
		boff := blockDescOffset(h.FirstBlockDescOffset, i)
		b := getBlockDesc(a.region, boff)
		for cur := b.FreeListHead; cur != 0; {
			c := getChunkHeader(a.region, cur)
			capacity := payloadCapacity(c.Size)
			totalFree += capacity
			if capacity > largest {
				largest = capacity
			}
			cur = c.NextFree
		}
	}

	if totalFree == 0 {
		return 0
	}
	return 1 - float64(largest)/float64(totalFree)
}

// allocate services a request for n payload bytes using first-fit
// selection across the blocks, tried in creation order, and the free
// list within the chosen block. It returns the payload offset, or
// (0, false) if no block has a chunk large enough.
func (a *arena) allocate(n uint64) (uint64, bool) {
	h := a.readHeader()
	needed := chunkSizeForPayload(n)

	for i := 0; i < int(h.BlockCount); i++ {
		boff := blockDescOffset(h.FirstBlockDescOffset, i)
		b := getBlockDesc(a.region, boff)

		cur := b.FreeListHead
		for cur != 0 {
			c := getChunkHeader(a.region, cur)
			if c.Size >= needed {
				flRemove(a.region, &b, cur)
				freedCap := payloadCapacity(c.Size)

				if c.Size >= needed+MinChunkSize {
					remOff := cur + needed
					remSize := c.Size - needed
					putChunkHeader(a.region, cur, chunkHeader{Size: needed, State: chunkUsed})
					putChunkHeader(a.region, remOff, chunkHeader{Size: remSize, State: chunkFree})
					flInsert(a.region, &b, remOff)
					h.FreeSize = h.FreeSize - freedCap + payloadCapacity(remSize)
				} else {
					putChunkHeader(a.region, cur, chunkHeader{Size: c.Size, State: chunkUsed})
					h.FreeSize -= freedCap
				}

				putBlockDesc(a.region, boff, b)
				h.AllocatedBlockCount++
				a.writeHeader(h)
				return payloadOffset(cur), true
			}
			cur = c.NextFree
		}
	}

	return 0, false
}

// deallocate marks the chunk owning payload free and coalesces it with
// any immediately-adjacent free physical neighbors in the same block.
// deallocate(0) is a documented no-op.
func (a *arena) deallocate(payload uint64) {
	if payload == 0 {
		return
	}

	chunkOff := chunkOffsetFromPayload(payload)
	h := a.readHeader()
	_, boff, b, found := a.findBlockContaining(h, chunkOff)
	if !found {
		// Dangling or foreign offset is undefined behavior, not
		// detected by the core.
		return
	}

	c := getChunkHeader(a.region, chunkOff)
	c.State = chunkFree
	putChunkHeader(a.region, chunkOff, c)

	var delta int64
	blockEnd := b.BaseOffset + b.Size

	if chunkOff+c.Size < blockEnd {
		nextOff := chunkOff + c.Size
		next := getChunkHeader(a.region, nextOff)
		if next.State == chunkFree {
			flRemove(a.region, &b, nextOff)
			delta -= int64(payloadCapacity(next.Size))
			c.Size += next.Size
			putChunkHeader(a.region, chunkOff, c)
		}
	}

	if chunkOff > b.BaseOffset {
		prevSize := footerSizeAt(a.region, chunkOff)
		prevOff := chunkOff - prevSize
		if prevOff >= b.BaseOffset {
			prev := getChunkHeader(a.region, prevOff)
			if prev.State == chunkFree {
				flRemove(a.region, &b, prevOff)
				delta -= int64(payloadCapacity(prev.Size))
				prev.Size += c.Size
				putChunkHeader(a.region, prevOff, prev)
				c = prev
				chunkOff = prevOff
			}
		}
	}

	flInsert(a.region, &b, chunkOff)
	putBlockDesc(a.region, boff, b)

	h.FreeSize = uint64(int64(h.FreeSize) + delta + int64(payloadCapacity(c.Size)))
	h.AllocatedBlockCount--
	a.writeHeader(h)
}

// reallocate implements the grow/shrink/move resize policy: shrink in
// place, grow in place by absorbing a free right neighbor, or move.
func (a *arena) reallocate(payload, newSize uint64) (uint64, bool) {
	if payload == 0 {
		return a.allocate(newSize)
	}
	if newSize == 0 {
		a.deallocate(payload)
		return 0, true
	}

	chunkOff := chunkOffsetFromPayload(payload)
	h := a.readHeader()
	_, boff, b, found := a.findBlockContaining(h, chunkOff)
	if !found {
		return 0, false
	}

	c := getChunkHeader(a.region, chunkOff)
	curCap := payloadCapacity(c.Size)
	needed := chunkSizeForPayload(newSize)

	if needed <= c.Size {
		a.shrinkInPlace(&h, &b, boff, chunkOff, c, needed)
		a.writeHeader(h)
		return payload, true
	}

	blockEnd := b.BaseOffset + b.Size
	if chunkOff+c.Size < blockEnd {
		nextOff := chunkOff + c.Size
		next := getChunkHeader(a.region, nextOff)
		if next.State == chunkFree && c.Size+next.Size >= needed {
			flRemove(a.region, &b, nextOff)
			combined := c.Size + next.Size
			freedCap := payloadCapacity(next.Size)

			if combined >= needed+MinChunkSize {
				remOff := chunkOff + needed
				remSize := combined - needed
				putChunkHeader(a.region, chunkOff, chunkHeader{Size: needed, State: chunkUsed})
				putChunkHeader(a.region, remOff, chunkHeader{Size: remSize, State: chunkFree})
				flInsert(a.region, &b, remOff)
				h.FreeSize = h.FreeSize - freedCap + payloadCapacity(remSize)
			} else {
				putChunkHeader(a.region, chunkOff, chunkHeader{Size: combined, State: chunkUsed})
				h.FreeSize -= freedCap
			}

			putBlockDesc(a.region, boff, b)
			a.writeHeader(h)
			return payload, true
		}
	}

	newOff, ok := a.allocate(newSize)
	if !ok {
		return 0, false
	}
	copyLen := curCap
	if newSize < copyLen {
		copyLen = newSize
	}
	copy(a.region[newOff:newOff+copyLen], a.region[payload:payload+curCap])
	a.deallocate(payload)
	return newOff, true
}

// shrinkInPlace keeps the chunk at chunkOff but splits a trailing free
// chunk off of it when the savings are worth a new chunk header: no
// move, shrink in place by splitting off the tail when the leftover is
// at least one minimum-size chunk.
func (a *arena) shrinkInPlace(h *regionHeader, b *blockDesc, boff, chunkOff uint64, c chunkHeader, needed uint64) {
	if c.Size-needed < MinChunkSize {
		return
	}

	remOff := chunkOff + needed
	remSize := c.Size - needed
	putChunkHeader(a.region, chunkOff, chunkHeader{Size: needed, State: chunkUsed})
	putChunkHeader(a.region, remOff, chunkHeader{Size: remSize, State: chunkFree})

	var delta int64
	blockEnd := b.BaseOffset + b.Size
	rem := getChunkHeader(a.region, remOff)
	if remOff+rem.Size < blockEnd {
		nextOff := remOff + rem.Size
		next := getChunkHeader(a.region, nextOff)
		if next.State == chunkFree {
			flRemove(a.region, b, nextOff)
			delta -= int64(payloadCapacity(next.Size))
			rem.Size += next.Size
			putChunkHeader(a.region, remOff, rem)
		}
	}

	flInsert(a.region, b, remOff)
	putBlockDesc(a.region, boff, *b)

	h.FreeSize = uint64(int64(h.FreeSize) + delta + int64(payloadCapacity(rem.Size)))
}

// flInsert inserts the free chunk at offset into b's free list,
// preserving ascending offset order so the validator can walk it and
// confirm strictly increasing offsets.
func flInsert(region []byte, b *blockDesc, offset uint64) {
	c := getChunkHeader(region, offset)

	if b.FreeListHead == 0 || offset < b.FreeListHead {
		c.NextFree = b.FreeListHead
		c.PrevFree = 0
		putChunkHeader(region, offset, c)
		if b.FreeListHead != 0 {
			head := getChunkHeader(region, b.FreeListHead)
			head.PrevFree = offset
			putChunkHeader(region, b.FreeListHead, head)
		}
		b.FreeListHead = offset
		return
	}

	prevOff := b.FreeListHead
	prev := getChunkHeader(region, prevOff)
	for prev.NextFree != 0 && prev.NextFree < offset {
		prevOff = prev.NextFree
		prev = getChunkHeader(region, prevOff)
	}

	nextOff := prev.NextFree
	c.PrevFree = prevOff
	c.NextFree = nextOff
	putChunkHeader(region, offset, c)

	prev.NextFree = offset
	putChunkHeader(region, prevOff, prev)

	if nextOff != 0 {
		next := getChunkHeader(region, nextOff)
		next.PrevFree = offset
		putChunkHeader(region, nextOff, next)
	}
}

// flRemove unlinks the chunk at offset from b's free list. The chunk's
// own header is left untouched, stale link fields included; callers
// either rewrite it or absorb the chunk into a neighbor afterward.
func flRemove(region []byte, b *blockDesc, offset uint64) {
	c := getChunkHeader(region, offset)

	if c.PrevFree != 0 {
		prev := getChunkHeader(region, c.PrevFree)
		prev.NextFree = c.NextFree
		putChunkHeader(region, c.PrevFree, prev)
	} else {
		b.FreeListHead = c.NextFree
	}

	if c.NextFree != 0 {
		next := getChunkHeader(region, c.NextFree)
		next.PrevFree = c.PrevFree
		putChunkHeader(region, c.NextFree, next)
	}
}
