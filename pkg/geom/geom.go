// Package geom provides the vector and axis-aligned bounding box math shared
// by the chunk, spatial index, and container packages.
package geom

import "math"

// Vec3 is a 3-component single-precision vector. The component order is
// x, y, z everywhere in the format.
type Vec3 [3]float32

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// EmptyBBox returns an inverted box that Expand can grow from.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// IsEmpty reports whether the box has never been expanded.
func (b BBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Expand grows the box to contain the point v.
func (b *BBox) Expand(v Vec3) {
	for i := 0; i < 3; i++ {
		if v[i] < b.Min[i] {
			b.Min[i] = v[i]
		}
		if v[i] > b.Max[i] {
			b.Max[i] = v[i]
		}
	}
}

// Union grows the box to contain the box o. Empty boxes are ignored.
func (b *BBox) Union(o BBox) {
	if o.IsEmpty() {
		return
	}
	b.Expand(o.Min)
	b.Expand(o.Max)
}

// Contains reports whether the point v lies inside or on the box boundary.
func (b BBox) Contains(v Vec3) bool {
	for i := 0; i < 3; i++ {
		if v[i] < b.Min[i] || v[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// ContainsBox reports whether o lies entirely within b.
func (b BBox) ContainsBox(o BBox) bool {
	return b.Contains(o.Min) && b.Contains(o.Max)
}

// Intersects reports whether the two boxes overlap on all three axes.
// Boxes that merely touch are considered intersecting.
func (b BBox) Intersects(o BBox) bool {
	for i := 0; i < 3; i++ {
		if b.Min[i] > o.Max[i] || b.Max[i] < o.Min[i] {
			return false
		}
	}
	return true
}

// Center returns the box midpoint.
func (b BBox) Center() Vec3 {
	return Vec3{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the box extent per axis.
func (b BBox) Size() Vec3 {
	return Vec3{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// ExpandedBy returns a copy of the box grown by r on all sides.
func (b BBox) ExpandedBy(r float32) BBox {
	return BBox{
		Min: Vec3{b.Min[0] - r, b.Min[1] - r, b.Min[2] - r},
		Max: Vec3{b.Max[0] + r, b.Max[1] + r, b.Max[2] + r},
	}
}

// BBoxOf computes the componentwise min/max box over the given vertices.
// Returns an empty box for an empty slice.
func BBoxOf(vertices []Vec3) BBox {
	b := EmptyBBox()
	for _, v := range vertices {
		b.Expand(v)
	}
	return b
}
