// Package spatial implements the CHDS bounding-box index over geometry
// chunks: a tree of nodes supporting box, point, and radius queries plus
// element-to-chunk resolution for lazy loading.
package spatial

import (
	"sort"

	"github.com/chdio/chd/pkg/chunk"
	"github.com/chdio/chd/pkg/geom"
)

const (
	// Magic is the 4-byte tag at the start of the index file.
	Magic = "CHDS"
	// FormatVersion is the current index format version.
	FormatVersion uint16 = 1
	// RootID is the fixed node ID of the tree root.
	RootID uint32 = 1

	// TreeKindFlat marks the one-leaf-per-chunk layout produced by Build.
	// A bulk-loaded R-tree would use a new kind byte with the same node
	// record shape and query API.
	TreeKindFlat uint8 = 0

	headerReserved = 20
)

// Node is one tree node. Internal nodes carry child IDs; leaves carry the
// element IDs of one owning chunk. A node's box contains the union of all
// descendant boxes.
type Node struct {
	ID     uint32
	Parent uint32
	Bounds geom.BBox
	Leaf   bool

	Children []uint32 // internal nodes

	ChunkID    string // leaves
	ElementIDs []uint32
}

// Index is the queryable tree. Root is node ID 1.
type Index struct {
	TreeKind  uint8
	MaxDepth  uint8
	LeafCount uint32
	Bounds    geom.BBox

	nodes        map[uint32]*Node
	elementChunk map[uint32]string
}

// Build constructs the flat index: one leaf per chunk, all children of the
// root. Query pruning therefore discriminates at chunk granularity only;
// replacing this builder with a true R-tree bulk loader changes neither the
// node record shape nor the query API.
func Build(chunks []*chunk.Chunk) *Index {
	x := &Index{
		TreeKind:     TreeKindFlat,
		MaxDepth:     2,
		LeafCount:    uint32(len(chunks)),
		Bounds:       geom.EmptyBBox(),
		nodes:        make(map[uint32]*Node, len(chunks)+1),
		elementChunk: make(map[uint32]string),
	}

	root := &Node{ID: RootID, Bounds: geom.EmptyBBox()}
	x.nodes[RootID] = root

	nextID := RootID + 1
	for _, c := range chunks {
		leaf := &Node{
			ID:      nextID,
			Parent:  RootID,
			Bounds:  c.Bounds,
			Leaf:    true,
			ChunkID: c.ID,
		}
		nextID++
		for _, e := range c.Elements {
			leaf.ElementIDs = append(leaf.ElementIDs, e.ID)
			x.elementChunk[e.ID] = c.ID
		}
		root.Children = append(root.Children, leaf.ID)
		root.Bounds.Union(leaf.Bounds)
		x.nodes[leaf.ID] = leaf
	}

	x.Bounds = root.Bounds
	return x
}

// Node returns the node with the given ID, or nil.
func (x *Index) Node(id uint32) *Node {
	return x.nodes[id]
}

// NodeCount returns the number of nodes in the tree.
func (x *Index) NodeCount() int {
	return len(x.nodes)
}

// ChunkForElement resolves the chunk owning the given element ID.
func (x *Index) ChunkForElement(id uint32) (string, bool) {
	chunkID, ok := x.elementChunk[id]
	return chunkID, ok
}

// QueryBounds returns the IDs of all elements in leaves whose boxes
// intersect the query box. Results are a set: an element reachable via
// multiple overlapping leaves is reported once. IDs are returned sorted for
// deterministic output.
func (x *Index) QueryBounds(min, max geom.Vec3) []uint32 {
	query := geom.BBox{Min: min, Max: max}
	seen := make(map[uint32]struct{})
	visited := make(map[uint32]struct{}, len(x.nodes))
	x.collect(x.nodes[RootID], query, seen, visited)

	out := make([]uint32, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// collect descends into n. Parsed files may carry arbitrary child wiring,
// so each node is visited at most once; a cycle terminates instead of
// recursing forever.
func (x *Index) collect(n *Node, query geom.BBox, seen, visited map[uint32]struct{}) {
	if n == nil || !n.Bounds.Intersects(query) {
		return
	}
	if _, ok := visited[n.ID]; ok {
		return
	}
	visited[n.ID] = struct{}{}
	if n.Leaf {
		for _, id := range n.ElementIDs {
			seen[id] = struct{}{}
		}
		return
	}
	for _, childID := range n.Children {
		x.collect(x.nodes[childID], query, seen, visited)
	}
}

// QueryPoint is a degenerate box query at p.
func (x *Index) QueryPoint(p geom.Vec3) []uint32 {
	return x.QueryBounds(p, p)
}

// QueryRadius expands a box query by r around the center point.
func (x *Index) QueryRadius(center geom.Vec3, r float32) []uint32 {
	box := geom.BBox{Min: center, Max: center}.ExpandedBy(r)
	return x.QueryBounds(box.Min, box.Max)
}

// ChunkPriority ranks a candidate chunk by how many query-matched elements
// it contains.
type ChunkPriority struct {
	ChunkID string
	Matched int
}

// ChunksForViewport returns candidate chunks for a viewport box, ranked by
// matched-element count descending, for prioritized progressive loading.
func (x *Index) ChunksForViewport(min, max geom.Vec3) []ChunkPriority {
	matched := make(map[string]int)
	for _, id := range x.QueryBounds(min, max) {
		if chunkID, ok := x.elementChunk[id]; ok {
			matched[chunkID]++
		}
	}

	out := make([]ChunkPriority, 0, len(matched))
	for chunkID, n := range matched {
		out = append(out, ChunkPriority{ChunkID: chunkID, Matched: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Matched != out[j].Matched {
			return out[i].Matched > out[j].Matched
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}
