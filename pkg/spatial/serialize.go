package spatial

import (
	"fmt"
	"sort"

	"github.com/chdio/chd/pkg/codec"
)

// Serialize encodes the index to its binary form.
//
// Layout: magic "CHDS", version u16, tree-kind u8, max-depth u8, node count
// u32, leaf count u32, overall bounding box, 20 reserved bytes, then one
// self-describing record per node in ascending ID order.
func (x *Index) Serialize() ([]byte, error) {
	w := codec.NewWriter()
	if err := w.WriteMagic(Magic); err != nil {
		return nil, err
	}
	w.WriteUint16(FormatVersion)
	w.WriteUint8(x.TreeKind)
	w.WriteUint8(x.MaxDepth)
	w.WriteUint32(uint32(len(x.nodes)))
	w.WriteUint32(x.LeafCount)
	w.WriteBBox(x.Bounds)
	w.WriteZeros(headerReserved)

	ids := make([]uint32, 0, len(x.nodes))
	for id := range x.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		n := x.nodes[id]
		w.WriteUint32(n.ID)
		w.WriteUint32(n.Parent)
		w.WriteBBox(n.Bounds)
		if n.Leaf {
			w.WriteUint8(1)
			w.WriteString(n.ChunkID)
			w.WriteUint32(uint32(len(n.ElementIDs)))
			for _, eid := range n.ElementIDs {
				w.WriteUint32(eid)
			}
		} else {
			w.WriteUint8(0)
			w.WriteUint16(uint16(len(n.Children)))
			for _, cid := range n.Children {
				w.WriteUint32(cid)
			}
		}
	}

	return w.Bytes(), nil
}

// Parse decodes an index from its binary form, building the ID-to-node map
// and, for every leaf, the element-to-chunk map used for lazy loading.
func Parse(data []byte) (*Index, error) {
	x, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load spatial index: %w", err)
	}
	return x, nil
}

func parse(data []byte) (*Index, error) {
	r := codec.NewReader(data)
	if err := r.ReadMagic(Magic); err != nil {
		return nil, err
	}

	version, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if version > FormatVersion {
		return nil, fmt.Errorf("%w: index version %d, supported up to %d",
			codec.ErrVersionMismatch, version, FormatVersion)
	}

	x := &Index{
		nodes:        make(map[uint32]*Node),
		elementChunk: make(map[uint32]string),
	}
	if x.TreeKind, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if x.MaxDepth, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	nodeCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if x.LeafCount, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if x.Bounds, err = r.ReadBBox(); err != nil {
		return nil, err
	}
	if err := r.Skip(headerReserved); err != nil {
		return nil, err
	}

	// Records are self-describing, so exactly nodeCount sequential reads.
	for i := uint32(0); i < nodeCount; i++ {
		n := &Node{}
		if n.ID, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if n.Parent, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if n.Bounds, err = r.ReadBBox(); err != nil {
			return nil, err
		}
		leaf, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if leaf == 1 {
			n.Leaf = true
			if n.ChunkID, err = r.ReadString(); err != nil {
				return nil, err
			}
			elemCount, err := r.ReadUint32()
			if err != nil {
				return nil, err
			}
			if uint64(elemCount)*4 > uint64(r.Remaining()) {
				return nil, fmt.Errorf("%w: leaf %d claims %d element IDs with %d bytes remaining",
					codec.ErrOutOfRange, n.ID, elemCount, r.Remaining())
			}
			n.ElementIDs = make([]uint32, 0, elemCount)
			for j := uint32(0); j < elemCount; j++ {
				eid, err := r.ReadUint32()
				if err != nil {
					return nil, err
				}
				n.ElementIDs = append(n.ElementIDs, eid)
				x.elementChunk[eid] = n.ChunkID
			}
		} else {
			childCount, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			if uint64(childCount)*4 > uint64(r.Remaining()) {
				return nil, fmt.Errorf("%w: node %d claims %d children with %d bytes remaining",
					codec.ErrOutOfRange, n.ID, childCount, r.Remaining())
			}
			n.Children = make([]uint32, 0, childCount)
			for j := uint16(0); j < childCount; j++ {
				cid, err := r.ReadUint32()
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, cid)
			}
		}
		x.nodes[n.ID] = n
	}

	return x, nil
}
