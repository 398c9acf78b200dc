package container

import (
	"github.com/relab/bbhash"

	"github.com/chdio/chd/pkg/chunk"
)

// finder is the minimal perfect hash surface the locator needs.
type finder interface {
	Find(key uint64) uint64
}

// locator resolves an element's owning chunk across all eagerly loaded
// chunks through a minimal perfect hash, avoiding a per-element Go map.
// Unknown keys are rejected by a fingerprint check because an MPHF maps
// them to arbitrary positions.
type locator struct {
	mph          finder
	fingerprints []uint32 // surrogate ID at each MPHF position
	chunkIDs     []string // owning chunk at each MPHF position
}

// buildLocator indexes all elements of the loaded chunks. Returns nil when
// there is nothing to index or the key set cannot be built (duplicate
// surrogates from a hash collision); callers fall back to a linear scan.
func buildLocator(chunks map[string]*chunk.Chunk) *locator {
	var keys []uint64
	seen := make(map[uint32]struct{})
	for _, c := range chunks {
		for _, e := range c.Elements {
			if _, dup := seen[e.ID]; dup {
				return nil
			}
			seen[e.ID] = struct{}{}
			keys = append(keys, uint64(e.ID))
		}
	}
	if len(keys) == 0 {
		return nil
	}

	mph, err := bbhash.New(keys, bbhash.Gamma(2.0))
	if err != nil {
		return nil
	}

	loc := &locator{
		mph:          mph,
		fingerprints: make([]uint32, len(keys)),
		chunkIDs:     make([]string, len(keys)),
	}
	for chunkID, c := range chunks {
		for _, e := range c.Elements {
			pos := mph.Find(uint64(e.ID))
			if pos == 0 || pos > uint64(len(keys)) {
				return nil
			}
			loc.fingerprints[pos-1] = e.ID
			loc.chunkIDs[pos-1] = chunkID
		}
	}
	return loc
}

// find returns the chunk owning the element, or ok=false.
func (l *locator) find(id uint32) (string, bool) {
	pos := l.mph.Find(uint64(id))
	if pos == 0 || pos > uint64(len(l.fingerprints)) {
		return "", false
	}
	if l.fingerprints[pos-1] != id {
		return "", false
	}
	return l.chunkIDs[pos-1], true
}
