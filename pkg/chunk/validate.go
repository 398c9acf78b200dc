package chunk

import "fmt"

// Issue is one integrity violation found by Validate.
type Issue struct {
	ChunkID     string
	ElementID   uint32
	Face        int
	Corner      int
	Index       uint32
	VertexCount int
}

func (i Issue) String() string {
	return fmt.Sprintf("chunk %s element %d face %d corner %d: vertex index %d out of range (element has %d vertices)",
		i.ChunkID, i.ElementID, i.Face, i.Corner, i.Index, i.VertexCount)
}

// Report is the result of an integrity pass over a chunk.
type Report struct {
	IsValid bool
	Issues  []Issue
}

// Validate checks that every face index of every element is within the
// element's own vertex range. Violations are collected, not returned as
// errors: out-of-range indices are a validation finding on an otherwise
// well-formed chunk, not a parse failure.
func (c *Chunk) Validate() Report {
	rep := Report{IsValid: true}
	for _, e := range c.Elements {
		vc := uint32(len(e.Vertices))
		for fi, f := range e.Faces {
			for corner, idx := range f {
				if idx >= vc {
					rep.IsValid = false
					rep.Issues = append(rep.Issues, Issue{
						ChunkID:     c.ID,
						ElementID:   e.ID,
						Face:        fi,
						Corner:      corner,
						Index:       idx,
						VertexCount: int(vc),
					})
				}
			}
		}
	}
	return rep
}
