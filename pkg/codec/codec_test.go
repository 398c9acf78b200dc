package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/chdio/chd/pkg/geom"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUint8(0xAB)
	w.WriteUint16(0xBEEF)
	w.WriteUint32(0xDEADBEEF)
	w.WriteUint64(0x0123456789ABCDEF)
	w.WriteInt32(-42)
	w.WriteFloat32(3.5)
	w.WriteFloat64(-2.25)

	r := NewReader(w.Bytes())

	if v, err := r.ReadUint8(); err != nil || v != 0xAB {
		t.Errorf("ReadUint8 = %v, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0xBEEF {
		t.Errorf("ReadUint16 = %v, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0xDEADBEEF {
		t.Errorf("ReadUint32 = %v, %v", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != 0x0123456789ABCDEF {
		t.Errorf("ReadUint64 = %v, %v", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -42 {
		t.Errorf("ReadInt32 = %v, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 3.5 {
		t.Errorf("ReadFloat32 = %v, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != -2.25 {
		t.Errorf("ReadFloat64 = %v, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", r.Remaining())
	}
}

func TestLittleEndianLayout(t *testing.T) {
	w := NewWriter()
	w.WriteUint32(0x01020304)

	want := []byte{0x04, 0x03, 0x02, 0x01}
	got := w.Bytes()
	if len(got) != 4 {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestReadPastEnd(t *testing.T) {
	r := NewReader([]byte{1, 2})

	if _, err := r.ReadUint32(); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}

	// The error names the offset attempted and the bytes requested.
	_, err := r.ReadUint32()
	if !strings.Contains(err.Error(), "offset 0") || !strings.Contains(err.Error(), "4 bytes") {
		t.Errorf("error should carry offset and byte count: %v", err)
	}
}

func TestEveryPrimitiveBoundsChecked(t *testing.T) {
	reads := []func(r *Reader) error{
		func(r *Reader) error { _, err := r.ReadUint8(); return err },
		func(r *Reader) error { _, err := r.ReadUint16(); return err },
		func(r *Reader) error { _, err := r.ReadUint32(); return err },
		func(r *Reader) error { _, err := r.ReadUint64(); return err },
		func(r *Reader) error { _, err := r.ReadFloat32(); return err },
		func(r *Reader) error { _, err := r.ReadFloat64(); return err },
		func(r *Reader) error { _, err := r.ReadBBox(); return err },
		func(r *Reader) error { _, err := r.ReadString(); return err },
		func(r *Reader) error { return r.ReadMagic("CHDG") },
	}
	for i, read := range reads {
		if err := read(NewReader(nil)); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("read %d on empty buffer: err = %v, want ErrOutOfRange", i, err)
		}
	}
}

func TestMagic(t *testing.T) {
	w := NewWriter()
	if err := w.WriteMagic("CHDG"); err != nil {
		t.Fatalf("WriteMagic: %v", err)
	}

	if err := NewReader(w.Bytes()).ReadMagic("CHDG"); err != nil {
		t.Errorf("matching magic: %v", err)
	}
	if err := NewReader(w.Bytes()).ReadMagic("CHDS"); !errors.Is(err, ErrMagicMismatch) {
		t.Errorf("mismatched magic: err = %v, want ErrMagicMismatch", err)
	}

	if err := w.WriteMagic("TOOLONG"); !errors.Is(err, ErrBadMagicTag) {
		t.Errorf("bad tag length: err = %v, want ErrBadMagicTag", err)
	}
}

func TestBBoxRoundTrip(t *testing.T) {
	box := geom.BBox{Min: geom.Vec3{-1, -2, -3}, Max: geom.Vec3{4, 5, 6}}

	w := NewWriter()
	w.WriteBBox(box)
	if w.Len() != 24 {
		t.Errorf("bbox encodes to %d bytes, want 24", w.Len())
	}

	got, err := NewReader(w.Bytes()).ReadBBox()
	if err != nil {
		t.Fatalf("ReadBBox: %v", err)
	}
	if got != box {
		t.Errorf("ReadBBox = %+v, want %+v", got, box)
	}
}

func TestStrings(t *testing.T) {
	w := NewWriter()
	w.WriteString("wall-042")
	w.WriteCString("beam")

	r := NewReader(w.Bytes())
	if s, err := r.ReadString(); err != nil || s != "wall-042" {
		t.Errorf("ReadString = %q, %v", s, err)
	}
	if s, err := r.ReadCString(); err != nil || s != "beam" {
		t.Errorf("ReadCString = %q, %v", s, err)
	}
}

func TestUnterminatedCString(t *testing.T) {
	r := NewReader([]byte("no terminator"))
	if _, err := r.ReadCString(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestSkipAndPos(t *testing.T) {
	r := NewReader(make([]byte, 10))
	if err := r.Skip(6); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if r.Pos() != 6 {
		t.Errorf("Pos = %d, want 6", r.Pos())
	}
	if err := r.Skip(5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Skip past end: err = %v, want ErrOutOfRange", err)
	}
}
