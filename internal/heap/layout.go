// Package heap implements the in-region free-list allocator, the
// region header, and the manager that administers a caller-supplied
// byte region as a self-describing heap. Every byte of metadata the
// heap needs lives inside the region itself; nothing is kept in
// process memory except the lock, the singleton binding, and the
// diagnostic counters behind Manager.Stats.
package heap

import "encoding/binary"

// Alignment is the allocation alignment A required by every chunk
// header and payload offset. Chosen to satisfy the widest primitive
// type a caller is likely to store through PPtr[T] on a 64-bit host.
const Alignment = 8

// Magic identifies a byte region as a persistmem image.
var Magic = [8]byte{'P', 'M', 'E', 'M', 'H', 'E', 'A', 'P'}

// HeaderVersion is the only region-header version this build accepts.
// Manager.Load (and so LoadImage) rejects any other version outright; this
// revision does not support in-place image migration.
const HeaderVersion uint16 = 1

// HeaderSize is the fixed, alignment-padded size of the region header.
const HeaderSize = 64

// BlockDescSize is the fixed size of one block descriptor.
const BlockDescSize = 24

// ChunkHeaderSize is the fixed size of one chunk header, already a
// multiple of Alignment.
const ChunkHeaderSize = 32

// MinChunkSize is the smallest chunk the allocator will ever create by
// splitting: a header, one alignment unit of payload, and a footer.
const MinChunkSize = ChunkHeaderSize + FooterSize + Alignment

// MinRegionSize is the smallest region Create will accept: header,
// one block descriptor, and one minimum chunk spanning the block.
const MinRegionSize = HeaderSize + BlockDescSize + MinChunkSize

var byteOrder = binary.LittleEndian

// chunkState values stored in the chunk header's State byte.
const (
	chunkFree uint8 = 0
	chunkUsed uint8 = 1
)

func alignUp(n, a uint64) uint64 {
	return (n + a - 1) &^ (a - 1)
}
