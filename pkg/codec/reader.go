// Package codec provides cursor-based binary encoding and decoding for the
// CHD container format. All multi-byte values are little-endian.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chdio/chd/pkg/geom"
)

// Reader decodes primitives sequentially from a byte buffer. Counts read from
// the buffer are untrusted, so every primitive read is bounds-checked against
// the buffer end, not just container boundaries.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// ReadBytes reads exactly n bytes. The returned slice aliases the underlying
// buffer; callers that retain it past the buffer's lifetime must copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: offset %d, requested %d bytes, %d remaining",
			ErrOutOfRange, r.pos, n, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes, bounds-checked.
func (r *Reader) Skip(n int) error {
	_, err := r.ReadBytes(n)
	return err
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadFloat32 reads an IEEE 754 single-precision float.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads an IEEE 754 double-precision float.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadMagic reads a 4-byte ASCII tag and compares it to want. Any deviation
// is a format error, never a silent pass.
func (r *Reader) ReadMagic(want string) error {
	if len(want) != 4 {
		return fmt.Errorf("%w: %q", ErrBadMagicTag, want)
	}
	b, err := r.ReadBytes(4)
	if err != nil {
		return err
	}
	if string(b) != want {
		return fmt.Errorf("%w: got %q, want %q", ErrMagicMismatch, string(b), want)
	}
	return nil
}

// ReadBBox reads a 24-byte bounding box: min[3] then max[3] as float32.
func (r *Reader) ReadBBox() (geom.BBox, error) {
	var box geom.BBox
	for i := 0; i < 3; i++ {
		v, err := r.ReadFloat32()
		if err != nil {
			return geom.BBox{}, err
		}
		box.Min[i] = v
	}
	for i := 0; i < 3; i++ {
		v, err := r.ReadFloat32()
		if err != nil {
			return geom.BBox{}, err
		}
		box.Max[i] = v
	}
	return box, nil
}

// ReadString reads a length-prefixed string: uint32 byte length then UTF-8
// bytes. This is the only string form the engine's own writers produce.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadCString reads a null-terminated string. Supported for forward
// compatibility with external producers.
func (r *Reader) ReadCString() (string, error) {
	start := r.pos
	for i := r.pos; i < len(r.buf); i++ {
		if r.buf[i] == 0 {
			s := string(r.buf[start:i])
			r.pos = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: offset %d, unterminated string", ErrOutOfRange, start)
}
