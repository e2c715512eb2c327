package heap

// FooterSize is the size of the boundary tag written at the tail of
// every chunk (free or used). It duplicates the chunk's total size so
// that, given any chunk offset, the allocator can find the physically
// preceding chunk in O(1): the preceding chunk's footer sits in the
// 8 bytes immediately before this chunk's header, and it holds that
// chunk's size, from which its start offset follows directly.
const FooterSize = 8

// chunkHeader is prepended to every user allocation and every free
// region inside a block. The user payload begins immediately after the
// header at an Alignment-aligned offset; a PPtr[T] stores the payload
// offset, never the header offset. A matching boundary-tag footer is
// written at the chunk's last FooterSize bytes.
type chunkHeader struct {
	Size     uint64 // total chunk size, including header and footer
	State    uint8
	NextFree uint64 // offset of next free chunk in this block, 0 terminates
	PrevFree uint64 // offset of previous free chunk, 0 terminates
}

func putChunkHeader(region []byte, offset uint64, c chunkHeader) {
	buf := region[offset : offset+ChunkHeaderSize]
	byteOrder.PutUint64(buf[0:8], c.Size)
	buf[8] = c.State
	byteOrder.PutUint64(buf[16:24], c.NextFree)
	byteOrder.PutUint64(buf[24:32], c.PrevFree)
	putFooter(region, offset, c.Size)
}

func getChunkHeader(region []byte, offset uint64) chunkHeader {
	buf := region[offset : offset+ChunkHeaderSize]
	return chunkHeader{
		Size:     byteOrder.Uint64(buf[0:8]),
		State:    buf[8],
		NextFree: byteOrder.Uint64(buf[16:24]),
		PrevFree: byteOrder.Uint64(buf[24:32]),
	}
}

func putFooter(region []byte, chunkOffset, size uint64) {
	footerOff := chunkOffset + size - FooterSize
	byteOrder.PutUint64(region[footerOff:footerOff+FooterSize], size)
}

// footerSizeAt reads the size recorded in the boundary tag ending at
// offset end (exclusive), i.e. the footer occupying [end-8, end).
func footerSizeAt(region []byte, end uint64) uint64 {
	return byteOrder.Uint64(region[end-FooterSize : end])
}

// payloadOffset returns the offset of the user payload for a chunk
// whose header starts at chunkOffset.
func payloadOffset(chunkOffset uint64) uint64 {
	return chunkOffset + ChunkHeaderSize
}

// chunkOffsetFromPayload recovers a chunk header's offset by
// subtracting the header size from a payload offset.
func chunkOffsetFromPayload(payload uint64) uint64 {
	return payload - ChunkHeaderSize
}

// payloadCapacity returns the number of bytes usable by the caller in
// a chunk of the given total size.
func payloadCapacity(chunkSize uint64) uint64 {
	return chunkSize - ChunkHeaderSize - FooterSize
}

// chunkSizeForPayload returns the total chunk size (header + payload +
// footer) needed to service a request for n payload bytes, before any
// alignment of the chunk's start offset.
func chunkSizeForPayload(n uint64) uint64 {
	return alignUp(ChunkHeaderSize+n+FooterSize, Alignment)
}
