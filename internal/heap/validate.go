package heap

import "fmt"

// ValidationIssue describes one invariant violation found by Validate.
// The validator only reports; it never repairs what it finds.
type ValidationIssue struct {
	Block  int
	Offset uint64
	Detail string
}

func (i ValidationIssue) String() string {
	if i.Block < 0 {
		return i.Detail
	}
	return fmt.Sprintf("block %d @0x%x: %s", i.Block, i.Offset, i.Detail)
}

// Validate reports whether every layout and bookkeeping invariant
// holds across the bound region. It returns false for an unbound
// manager.
func (m *Manager) Validate() bool {
	return len(m.ValidateDetailed()) == 0
}

// ValidateDetailed walks every block — a physical chunk walk plus a
// free-list walk — and returns every invariant violation it finds
// instead of stopping at the first one.
//
// Validate is documented read-only and is not lock-protected: like
// Resolve, it does no locking, and callers are responsible for
// quiescing mutators first.
func (m *Manager) ValidateDetailed() []ValidationIssue {
	if !m.bound {
		return []ValidationIssue{{Block: -1, Detail: "manager not bound"}}
	}
	return m.arena.validate()
}

func (a *arena) validate() []ValidationIssue {
	var issues []ValidationIssue

	h := a.readHeader()
	if h.Magic != Magic {
		issues = append(issues, ValidationIssue{Block: -1, Detail: "bad magic"})
	}
	if h.Version != HeaderVersion {
		issues = append(issues, ValidationIssue{Block: -1, Detail: "unrecognized version"})
	}
	if h.RegionSize != uint64(len(a.region)) {
		issues = append(issues, ValidationIssue{Block: -1, Detail: "region-size does not match backing buffer"})
	}
	if h.FreeSize > h.RegionSize-HeaderSize {
		issues = append(issues, ValidationIssue{Block: -1, Detail: "free-size exceeds dynamic area"})
	}

	var totalFree, usedCount uint64

	for i := 0; i < int(h.BlockCount); i++ {
		boff := blockDescOffset(h.FirstBlockDescOffset, i)
		b := getBlockDesc(a.region, boff)
		blockEnd := b.BaseOffset + b.Size

		physicalFree := make(map[uint64]bool)
		var summed uint64

		offset := b.BaseOffset
		for offset < blockEnd {
			c := getChunkHeader(a.region, offset)
			if c.Size == 0 || c.Size%Alignment != 0 {
				issues = append(issues, ValidationIssue{Block: i, Offset: offset, Detail: "chunk size zero or misaligned"})
				break
			}
			if offset+c.Size > blockEnd {
				issues = append(issues, ValidationIssue{Block: i, Offset: offset, Detail: "chunk overruns block"})
				break
			}
			if c.State != chunkFree && c.State != chunkUsed {
				issues = append(issues, ValidationIssue{Block: i, Offset: offset, Detail: "invalid chunk state"})
			}
			if c.State == chunkFree {
				totalFree += payloadCapacity(c.Size)
				physicalFree[offset] = true
			} else {
				usedCount++
			}
			summed += c.Size
			offset += c.Size
		}
		if summed != b.Size {
			issues = append(issues, ValidationIssue{Block: i, Detail: "chunks do not sum to block size"})
		}

		listFree := make(map[uint64]bool)
		var prev, last uint64
		cur := b.FreeListHead
		for cur != 0 {
			if listFree[cur] {
				issues = append(issues, ValidationIssue{Block: i, Offset: cur, Detail: "free list cycle detected"})
				break
			}
			c := getChunkHeader(a.region, cur)
			if c.State != chunkFree {
				issues = append(issues, ValidationIssue{Block: i, Offset: cur, Detail: "free list references a used chunk"})
			}
			if c.PrevFree != prev {
				issues = append(issues, ValidationIssue{Block: i, Offset: cur, Detail: "broken prev-free link"})
			}
			if cur <= last && prev != 0 {
				issues = append(issues, ValidationIssue{Block: i, Offset: cur, Detail: "free list not in ascending offset order"})
			}
			listFree[cur] = true
			prev = cur
			last = cur
			cur = c.NextFree
		}

		if len(listFree) != len(physicalFree) {
			issues = append(issues, ValidationIssue{Block: i, Detail: "free list size disagrees with physical free chunk count"})
		}
		for off := range physicalFree {
			if !listFree[off] {
				issues = append(issues, ValidationIssue{Block: i, Offset: off, Detail: "physically free chunk missing from free list"})
			}
		}
	}

	if totalFree != h.FreeSize {
		issues = append(issues, ValidationIssue{Block: -1, Detail: fmt.Sprintf("free-size header %d disagrees with computed %d", h.FreeSize, totalFree)})
	}
	if usedCount != h.AllocatedBlockCount {
		issues = append(issues, ValidationIssue{Block: -1, Detail: fmt.Sprintf("allocated-block-count header %d disagrees with computed %d", h.AllocatedBlockCount, usedCount)})
	}

	return issues
}
