package codec

import "errors"

var (
	// ErrOutOfRange indicates a read past the end of the buffer.
	ErrOutOfRange = errors.New("read out of range")
	// ErrMagicMismatch indicates the 4-byte magic tag doesn't match.
	ErrMagicMismatch = errors.New("magic tag mismatch")
	// ErrVersionMismatch indicates an unsupported format version.
	ErrVersionMismatch = errors.New("unsupported format version")
	// ErrBadMagicTag indicates a magic tag that is not 4 ASCII bytes.
	ErrBadMagicTag = errors.New("magic tag must be 4 ASCII bytes")
)
