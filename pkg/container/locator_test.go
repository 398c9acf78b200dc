package container

import (
	"testing"

	"github.com/chdio/chd/pkg/chunk"
	"github.com/chdio/chd/pkg/compress"
	"github.com/chdio/chd/pkg/geom"
)

func locatorChunks(ids map[string][]uint32) map[string]*chunk.Chunk {
	out := make(map[string]*chunk.Chunk, len(ids))
	for chunkID, elems := range ids {
		var es []*chunk.Element
		for _, id := range elems {
			es = append(es, &chunk.Element{
				ID:       id,
				Vertices: []geom.Vec3{{0, 0, 0}},
			})
		}
		out[chunkID] = chunk.Build(chunkID, es, compress.KindNone)
	}
	return out
}

func TestLocatorFind(t *testing.T) {
	loc := buildLocator(locatorChunks(map[string][]uint32{
		"0000": {11, 22, 33},
		"0001": {44, 55},
	}))
	if loc == nil {
		t.Fatal("locator not built")
	}

	for id, want := range map[uint32]string{
		11: "0000", 22: "0000", 33: "0000", 44: "0001", 55: "0001",
	} {
		got, ok := loc.find(id)
		if !ok || got != want {
			t.Errorf("find(%d) = %q, %v, want %q", id, got, ok, want)
		}
	}

	// Unknown keys must be rejected by the fingerprint check.
	for _, id := range []uint32{1, 99, 0x7FFFFFFF} {
		if chunkID, ok := loc.find(id); ok {
			t.Errorf("find(%d) = %q, want miss", id, chunkID)
		}
	}
}

func TestLocatorEmpty(t *testing.T) {
	if loc := buildLocator(nil); loc != nil {
		t.Error("empty input should yield nil locator")
	}
}

func TestLocatorDuplicateSurrogates(t *testing.T) {
	if loc := buildLocator(locatorChunks(map[string][]uint32{
		"0000": {7},
		"0001": {7},
	})); loc != nil {
		t.Error("duplicate surrogate IDs should disable the locator")
	}
}
