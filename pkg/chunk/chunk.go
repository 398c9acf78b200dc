// Package chunk implements the CHDG geometry chunk: a self-contained binary
// unit holding a bounded group of elements' geometry.
//
// A chunk stores a fixed-size element table plus flat vertex and face buffers
// shared by all elements. It is immutable once serialized and is either fully
// loaded into memory or not loaded at all.
package chunk

import (
	"errors"

	"github.com/chdio/chd/pkg/compress"
	"github.com/chdio/chd/pkg/geom"
)

const (
	// Magic is the 4-byte tag at the start of every chunk file.
	Magic = "CHDG"
	// FormatVersion is the current chunk format version.
	FormatVersion uint16 = 1

	// MaterialNone is the on-disk sentinel for elements without a material.
	MaterialNone = ^uint32(0)

	// headerReserved is the number of reserved padding bytes after the
	// chunk bounding box.
	headerReserved = 8

	// elementRecordSize is the fixed size of one element table record:
	// id u32, type u16, material u32, vertex offset/count u32, face
	// offset/count u32.
	elementRecordSize = 4 + 2 + 4 + 4 + 4 + 4 + 4
)

// ErrElementRange indicates an element table record whose vertex or face
// range falls outside the chunk's flat buffers.
var ErrElementRange = errors.New("element range outside chunk buffers")

// Element is one model element's geometry within a chunk. Faces index into
// the element's own vertex slice (element-local, not chunk-global).
type Element struct {
	ID       uint32
	Type     uint16
	Material uint32 // MaterialNone if unset
	Vertices []geom.Vec3
	Faces    [][3]uint32
	Bounds   geom.BBox
}

// RecomputeBounds derives the element bounding box from its own vertices.
// Stored bounds are never trusted; this runs at build and reconstruction.
func (e *Element) RecomputeBounds() {
	e.Bounds = geom.BBoxOf(e.Vertices)
}

// Chunk is a bounded group of elements with a shared flat geometry layout.
type Chunk struct {
	ID          string
	Version     uint16
	Compression compress.Kind
	Bounds      geom.BBox
	Elements    []*Element

	byID map[uint32]*Element
}

// Build assembles a chunk from elements, computing the chunk bounding box as
// the componentwise min/max over all vertices. Element bounds are recomputed.
func Build(id string, elements []*Element, kind compress.Kind) *Chunk {
	c := &Chunk{
		ID:          id,
		Version:     FormatVersion,
		Compression: kind,
		Bounds:      geom.EmptyBBox(),
		Elements:    elements,
		byID:        make(map[uint32]*Element, len(elements)),
	}
	for _, e := range elements {
		e.RecomputeBounds()
		c.Bounds.Union(e.Bounds)
		c.byID[e.ID] = e
	}
	return c
}

// Element returns the element with the given surrogate ID, or nil.
func (c *Chunk) Element(id uint32) *Element {
	return c.byID[id]
}

// ElementsOfType returns all elements with the given type code.
func (c *Chunk) ElementsOfType(t uint16) []*Element {
	var out []*Element
	for _, e := range c.Elements {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// VertexCount returns the total vertex count across all elements.
func (c *Chunk) VertexCount() int {
	n := 0
	for _, e := range c.Elements {
		n += len(e.Vertices)
	}
	return n
}

// FaceCount returns the total face count across all elements.
func (c *Chunk) FaceCount() int {
	n := 0
	for _, e := range c.Elements {
		n += len(e.Faces)
	}
	return n
}
