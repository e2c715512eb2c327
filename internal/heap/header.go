package heap

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// regionHeader is the fixed-width, little-endian, naturally aligned
// header marshalled at offset 0 of every region. It is the only state
// the manager trusts across a save/load round trip — everything else
// is reachable by walking blocks and chunks starting from it.
type regionHeader struct {
	Magic                [8]byte
	Version              uint16
	HeaderSz             uint16
	_                    uint32 // padding, keeps RegionSize 8-byte aligned
	RegionSize           uint64
	FreeSize             uint64
	AllocatedBlockCount  uint64
	BlockCount           uint32
	_                    uint32 // padding, keeps FirstBlockDescOffset 8-byte aligned
	FirstBlockDescOffset uint64
	Checksum             uint64
}

func (h *regionHeader) put(region []byte) {
	b := region[:HeaderSize]
	copy(b[0:8], h.Magic[:])
	byteOrder.PutUint16(b[8:10], h.Version)
	byteOrder.PutUint16(b[10:12], h.HeaderSz)
	byteOrder.PutUint64(b[16:24], h.RegionSize)
	byteOrder.PutUint64(b[24:32], h.FreeSize)
	byteOrder.PutUint64(b[32:40], h.AllocatedBlockCount)
	byteOrder.PutUint32(b[40:44], h.BlockCount)
	byteOrder.PutUint64(b[48:56], h.FirstBlockDescOffset)
	byteOrder.PutUint64(b[56:64], h.Checksum)
}

func getHeader(region []byte) (regionHeader, error) {
	if len(region) < HeaderSize {
		return regionHeader{}, fmt.Errorf("region shorter than header: %d bytes", len(region))
	}
	b := region[:HeaderSize]
	var h regionHeader
	copy(h.Magic[:], b[0:8])
	h.Version = byteOrder.Uint16(b[8:10])
	h.HeaderSz = byteOrder.Uint16(b[10:12])
	h.RegionSize = byteOrder.Uint64(b[16:24])
	h.FreeSize = byteOrder.Uint64(b[24:32])
	h.AllocatedBlockCount = byteOrder.Uint64(b[32:40])
	h.BlockCount = byteOrder.Uint32(b[40:44])
	h.FirstBlockDescOffset = byteOrder.Uint64(b[48:56])
	h.Checksum = byteOrder.Uint64(b[56:64])
	return h, nil
}

// checksumRegion hashes every region byte, header included, so Save
// and Load can detect bit-level corruption of either metadata or user
// payloads. The checksum field is zeroed for the
// purpose of the hash so that writing the computed checksum back does
// not change the input it was computed over.
func checksumRegion(region []byte) uint64 {
	h := xxhash.New()
	_, _ = h.Write(region[:56])
	var zero [8]byte
	_, _ = h.Write(zero[:])
	if len(region) > HeaderSize {
		_, _ = h.Write(region[HeaderSize:])
	}
	return h.Sum64()
}
