package surrogate

import "testing"

func TestKnownValues(t *testing.T) {
	tests := []struct {
		id   string
		want uint32
	}{
		{"", 0},
		{"a", 97},
		{"ab", 97*31 + 98},
	}
	for _, tt := range tests {
		if got := Hash(tt.id); got != tt.want {
			t.Errorf("Hash(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestDeterministic(t *testing.T) {
	const id = "2O2Fr$t4X7Zf8NOew3FLOH"
	if Hash(id) != Hash(id) {
		t.Error("same input must hash to the same value")
	}
}

func TestHighBitCleared(t *testing.T) {
	ids := []string{
		"wall-exterior-north-0001",
		"slab/level-03/segment-17",
		"2O2Fr$t4X7Zf8NOew3FLOH",
		"a very long identifier that overflows uint32 arithmetic many times over",
	}
	for _, id := range ids {
		if got := Hash(id); got&0x80000000 != 0 {
			t.Errorf("Hash(%q) = %#x, high bit must be clear", id, got)
		}
	}
}

func TestDistinctIDs(t *testing.T) {
	if Hash("wall-001") == Hash("wall-002") {
		t.Error("distinct identifiers collided")
	}
}
