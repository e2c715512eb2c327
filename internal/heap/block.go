package heap

// blockDesc describes one contiguous sub-arena of the dynamic area.
// Blocks never overlap and are stored in increasing BaseOffset order
// starting immediately after the region header.
type blockDesc struct {
	BaseOffset   uint64
	Size         uint64
	FreeListHead uint64 // offset of first free chunk, 0 if none
}

func blockDescOffset(first uint64, index int) uint64 {
	return first + uint64(index)*BlockDescSize
}

func putBlockDesc(region []byte, offset uint64, b blockDesc) {
	buf := region[offset : offset+BlockDescSize]
	byteOrder.PutUint64(buf[0:8], b.BaseOffset)
	byteOrder.PutUint64(buf[8:16], b.Size)
	byteOrder.PutUint64(buf[16:24], b.FreeListHead)
}

func getBlockDesc(region []byte, offset uint64) blockDesc {
	buf := region[offset : offset+BlockDescSize]
	return blockDesc{
		BaseOffset:   byteOrder.Uint64(buf[0:8]),
		Size:         byteOrder.Uint64(buf[8:16]),
		FreeListHead: byteOrder.Uint64(buf[16:24]),
	}
}
