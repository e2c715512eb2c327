package pmcodec

import "errors"

var (
	ErrInvalidTag      = errors.New("pmcodec: invalid type tag")
	ErrBufferTooSmall  = errors.New("pmcodec: destination buffer too small")
	ErrInvalidUTF8     = errors.New("pmcodec: invalid utf8 string")
	ErrInvalidFloat    = errors.New("pmcodec: invalid float value (NaN or Inf)")
	ErrTooLarge        = errors.New("pmcodec: payload too large")
	ErrUnsupportedType = errors.New("pmcodec: unsupported field type, only primitives and flat structs of primitives are supported")
)
