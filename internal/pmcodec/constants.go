package pmcodec

// Tag bytes cover what a flat struct of primitives actually needs — no
// list/enum/option/array/u128/u256 tags, since EncodeInto/DecodeFrom
// never carry variants, options, or nested collections.
const (
	TagBoolFalse byte = 0x01
	TagBoolTrue  byte = 0x02
	TagU8        byte = 0x03
	TagI8        byte = 0x04
	TagU16       byte = 0x05
	TagI16       byte = 0x06
	TagU32       byte = 0x07
	TagI32       byte = 0x08
	TagU64       byte = 0x09
	TagI64       byte = 0x0A
	TagF32       byte = 0x0B
	TagF64       byte = 0x0C
	TagString    byte = 0x0D // length-prefixed u32 LE
	TagBytes     byte = 0x0E // length-prefixed u32 LE
	TagStruct    byte = 0x12 // fieldCount u32 then nameLen u8 + name bytes + value, per field

	// MaxPayloadLen bounds string/[]byte field length so a corrupt
	// length prefix can never drive an allocation-sized read.
	MaxPayloadLen = 1 << 20
)
