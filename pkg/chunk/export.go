package chunk

import (
	"fmt"

	"github.com/chdio/chd/pkg/geom"
)

// MeshLines flattens the element into human-readable vertex and face line
// records ("v x y z" / "f i j k", faces 1-based). The element is not mutated.
func (e *Element) MeshLines() []string {
	lines := make([]string, 0, len(e.Vertices)+len(e.Faces))
	for _, v := range e.Vertices {
		lines = append(lines, fmt.Sprintf("v %g %g %g", v[0], v[1], v[2]))
	}
	for _, f := range e.Faces {
		lines = append(lines, fmt.Sprintf("f %d %d %d", f[0]+1, f[1]+1, f[2]+1))
	}
	return lines
}

// BufferPair is the binary interchange form of one element: flat position
// floats, flat triangle indices, and the element bounding box.
type BufferPair struct {
	Positions []float32
	Indices   []uint32
	Bounds    geom.BBox
}

// Buffers flattens the element's vertices and faces into a BufferPair.
// The returned slices are copies; the element is not mutated.
func (e *Element) Buffers() BufferPair {
	bp := BufferPair{
		Positions: make([]float32, 0, len(e.Vertices)*3),
		Indices:   make([]uint32, 0, len(e.Faces)*3),
		Bounds:    e.Bounds,
	}
	for _, v := range e.Vertices {
		bp.Positions = append(bp.Positions, v[0], v[1], v[2])
	}
	for _, f := range e.Faces {
		bp.Indices = append(bp.Indices, f[0], f[1], f[2])
	}
	return bp
}
