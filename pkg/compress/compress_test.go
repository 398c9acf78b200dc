package compress

import (
	"bytes"
	"errors"
	"testing"
)

func TestNoneRoundTrip(t *testing.T) {
	c, err := ForKind(KindNone)
	if err != nil {
		t.Fatalf("ForKind: %v", err)
	}

	raw := []byte("raw payload bytes")
	enc, err := c.Encode(raw)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(enc, raw) {
		t.Error("none codec should pass bytes through")
	}

	dec, err := c.Decode(enc, len(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dec, raw) {
		t.Error("decode mismatch")
	}
}

func TestDeflateRoundTrip(t *testing.T) {
	c, err := ForKind(KindDeflate)
	if err != nil {
		t.Fatalf("ForKind: %v", err)
	}

	// Repetitive data compresses well.
	raw := bytes.Repeat([]byte{0x00, 0x01, 0x02, 0x03}, 4096)
	enc, err := c.Encode(raw)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(enc) >= len(raw) {
		t.Errorf("compressed %d bytes to %d, expected a reduction", len(raw), len(enc))
	}

	dec, err := c.Decode(enc, len(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dec, raw) {
		t.Error("round trip mismatch")
	}
}

func TestDecodeHugeSizeHint(t *testing.T) {
	// The hint comes from an untrusted header; a giant value must not drive
	// a matching allocation.
	c, _ := ForKind(KindDeflate)
	raw := []byte("short payload")
	enc, err := c.Encode(raw)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := c.Decode(enc, 1<<40)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dec, raw) {
		t.Error("decode mismatch")
	}
}

func TestDecodeCapsOversizedPayload(t *testing.T) {
	c, _ := ForKind(KindDeflate)
	raw := bytes.Repeat([]byte{0xAB}, 1024)
	enc, err := c.Encode(raw)
	if err != nil {
		t.Fatal(err)
	}
	// A payload larger than the hint comes back truncated just past it, so
	// the caller's exact-size check fails instead of the output growing
	// without bound.
	dec, err := c.Decode(enc, 100)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(dec) != 101 {
		t.Errorf("decoded %d bytes, want 101", len(dec))
	}
}

func TestDecodeGarbage(t *testing.T) {
	c, _ := ForKind(KindDeflate)
	if _, err := c.Decode([]byte("definitely not zlib"), 16); err == nil {
		t.Error("decoding garbage should fail")
	}
}

func TestUnsupportedKind(t *testing.T) {
	if _, err := ForKind(Kind(7)); !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("err = %v, want ErrUnsupportedKind", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
		ok   bool
	}{
		{"none", KindNone, true},
		{"", KindNone, true},
		{"deflate", KindDeflate, true},
		{"zlib", KindDeflate, true},
		{"gzip", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.name)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseKind(%q) = %v, %v", tt.name, got, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseKind(%q) should fail", tt.name)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindNone.String() != "none" || KindDeflate.String() != "deflate" {
		t.Error("kind names changed")
	}
}
