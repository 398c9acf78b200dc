package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chdio/chd/pkg/geom"
)

// Writer encodes primitives sequentially into a growing byte buffer.
// All multi-byte values are little-endian.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// NewWriterSize creates a writer with preallocated capacity.
func NewWriterSize(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteZeros appends n zero bytes, used for reserved header fields.
func (w *Writer) WriteZeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// WriteUint8 appends an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 appends an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteUint32 appends an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteUint64 appends an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteInt32 appends a signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteFloat32 appends an IEEE 754 single-precision float.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends an IEEE 754 double-precision float.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteMagic appends a 4-byte ASCII tag.
func (w *Writer) WriteMagic(tag string) error {
	if len(tag) != 4 {
		return fmt.Errorf("%w: %q", ErrBadMagicTag, tag)
	}
	w.buf = append(w.buf, tag...)
	return nil
}

// WriteBBox appends a 24-byte bounding box: min[3] then max[3] as float32.
func (w *Writer) WriteBBox(b geom.BBox) {
	for i := 0; i < 3; i++ {
		w.WriteFloat32(b.Min[i])
	}
	for i := 0; i < 3; i++ {
		w.WriteFloat32(b.Max[i])
	}
}

// WriteString appends a length-prefixed string: uint32 byte length then
// UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteCString appends a null-terminated string.
func (w *Writer) WriteCString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}
