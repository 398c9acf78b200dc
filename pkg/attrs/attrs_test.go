package attrs

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chdio/chd/pkg/codec"
)

func sampleRecords() map[string]Record {
	return map[string]Record{
		"wall-001": {
			"type":     String("IfcWall"),
			"level":    String("Level 2"),
			"height":   Float(2.74),
			"count":    Int(-3),
			"external": Bool(true),
			"offsets":  Floats(0.1, 0.2, 0.3),
			"codes":    Ints(1, -2, 3),
			"tags":     Strings("fire-rated", "load-bearing"),
		},
		"slab-002": {
			"type": String("IfcSlab"),
		},
	}
}

func TestRoundTrip(t *testing.T) {
	src := sampleRecords()
	data, err := Encode("elements", src)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	section, got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if section != "elements" {
		t.Errorf("section = %q, want elements", section)
	}
	if len(got) != len(src) {
		t.Fatalf("record count = %d, want %d", len(got), len(src))
	}
	for key, rec := range src {
		dec, ok := got[key]
		if !ok {
			t.Fatalf("record %q missing", key)
		}
		if len(dec) != len(rec) {
			t.Fatalf("record %q has %d fields, want %d", key, len(dec), len(rec))
		}
		for name, v := range rec {
			if !dec[name].Equal(v) {
				t.Errorf("%s.%s = %+v, want %+v", key, name, dec[name], v)
			}
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode("materials", sampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode("materials", sampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("encoding the same records twice must produce identical bytes")
	}
}

func TestEncodeUnknownKind(t *testing.T) {
	records := map[string]Record{"x": {"bad": Value{Kind: Kind(200)}}}
	if _, err := Encode("elements", records); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	data, err := Encode("elements", map[string]Record{"x": {"f": Bool(true)}})
	if err != nil {
		t.Fatal(err)
	}
	// The kind byte of the single bool field is the last-but-one byte.
	data[len(data)-2] = 200
	if _, _, err := Decode(data); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	data, err := Encode("elements", sampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	data[1] = '?'
	if _, _, err := Decode(data); !errors.Is(err, codec.ErrMagicMismatch) {
		t.Errorf("err = %v, want ErrMagicMismatch", err)
	}
}

func TestDecodeHugeRecordCount(t *testing.T) {
	data, err := Encode("elements", map[string]Record{"x": {"f": Bool(true)}})
	if err != nil {
		t.Fatal(err)
	}
	// Record count sits after magic, version, and the section string.
	off := 4 + 2 + 4 + len("elements")
	for i := 0; i < 4; i++ {
		data[off+i] = 0xFF
	}
	if _, _, err := Decode(data); !errors.Is(err, codec.ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestDecodeHugeArrayCount(t *testing.T) {
	data, err := Encode("elements", map[string]Record{"x": {"a": Ints(1)}})
	if err != nil {
		t.Fatal(err)
	}
	// The int-array count is the 4 bytes before the single 8-byte item.
	off := len(data) - 12
	for i := 0; i < 4; i++ {
		data[off+i] = 0xFF
	}
	if _, _, err := Decode(data); !errors.Is(err, codec.ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Encode("elements", sampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := Decode(data[:len(data)-5]); err == nil {
		t.Error("truncated input should fail")
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{String("a"), String("a"), true},
		{String("a"), String("b"), false},
		{String("1"), Int(1), false},
		{Floats(1, 2), Floats(1, 2), true},
		{Floats(1, 2), Floats(1), false},
		{Strings("x"), Strings("y"), false},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("Equal(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRecordGetters(t *testing.T) {
	rec := Record{"name": String("Beam"), "height": Float(0.3), "count": Int(4)}

	if s, ok := rec.GetString("name"); !ok || s != "Beam" {
		t.Errorf("GetString(name) = %q, %v", s, ok)
	}
	if _, ok := rec.GetString("height"); ok {
		t.Error("GetString on a float field should miss")
	}
	if f, ok := rec.GetFloat("height"); !ok || f != 0.3 {
		t.Errorf("GetFloat(height) = %v, %v", f, ok)
	}
	if _, ok := rec.GetFloat("missing"); ok {
		t.Error("GetFloat on a missing field should miss")
	}
}
