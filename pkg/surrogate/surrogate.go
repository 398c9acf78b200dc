// Package surrogate derives 32-bit numeric element identifiers from the
// arbitrary string IDs used by model producers.
//
// The mapping is a rolling multiply-accumulate hash and must stay
// byte-identical between writer and reader: the original strings are never
// persisted in the container, and the reader re-associates attributes with
// geometry by hashing attribute-record keys at load time. Two distinct
// strings can collide; see the collision note in DESIGN.md before changing
// the scheme.
package surrogate

// Hash maps an original string ID to its 32-bit non-negative surrogate.
func Hash(id string) uint32 {
	var h uint32
	for i := 0; i < len(id); i++ {
		h = h*31 + uint32(id[i])
	}
	return h & 0x7FFFFFFF
}
