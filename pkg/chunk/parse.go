package chunk

import (
	"fmt"

	"github.com/chdio/chd/pkg/codec"
	"github.com/chdio/chd/pkg/compress"
	"github.com/chdio/chd/pkg/geom"
)

type elementRecord struct {
	id           uint32
	typ          uint16
	material     uint32
	vertexOffset uint32
	vertexCount  uint32
	faceOffset   uint32
	faceCount    uint32
}

// Parse decodes a chunk from its binary form, reconstructing per-element
// geometry by slicing the flat buffers and re-basing face indices from
// chunk-global to element-local. Element bounding boxes are recomputed from
// the vertex data, never read from disk.
func Parse(id string, data []byte) (*Chunk, error) {
	c, err := parse(id, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geometry chunk %s: %w", id, err)
	}
	return c, nil
}

func parse(id string, data []byte) (*Chunk, error) {
	r := codec.NewReader(data)
	if err := r.ReadMagic(Magic); err != nil {
		return nil, err
	}

	version, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if version > FormatVersion {
		return nil, fmt.Errorf("%w: chunk version %d, supported up to %d",
			codec.ErrVersionMismatch, version, FormatVersion)
	}

	kindByte, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	kind := compress.Kind(kindByte)
	cc, err := compress.ForKind(kind)
	if err != nil {
		return nil, err
	}

	elementCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	vertexCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	faceCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	bounds, err := r.ReadBBox()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(headerReserved); err != nil {
		return nil, err
	}

	// Counts come off the wire; check the table fits the remaining bytes
	// before allocating for it.
	if uint64(elementCount)*elementRecordSize > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: element table of %d records exceeds %d remaining bytes",
			codec.ErrOutOfRange, elementCount, r.Remaining())
	}
	records := make([]elementRecord, elementCount)
	for i := range records {
		rec := &records[i]
		if rec.id, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if rec.typ, err = r.ReadUint16(); err != nil {
			return nil, err
		}
		if rec.material, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if rec.vertexOffset, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if rec.vertexCount, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if rec.faceOffset, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if rec.faceCount, err = r.ReadUint32(); err != nil {
			return nil, err
		}
	}

	vertexBytes, err := readPayload(r, kind, cc, int(vertexCount)*12)
	if err != nil {
		return nil, fmt.Errorf("vertex data: %w", err)
	}
	faceBytes, err := readPayload(r, kind, cc, int(faceCount)*12)
	if err != nil {
		return nil, fmt.Errorf("face data: %w", err)
	}

	vertices := make([]geom.Vec3, vertexCount)
	vr := codec.NewReader(vertexBytes)
	for i := range vertices {
		for j := 0; j < 3; j++ {
			if vertices[i][j], err = vr.ReadFloat32(); err != nil {
				return nil, err
			}
		}
	}

	faces := make([][3]uint32, faceCount)
	fr := codec.NewReader(faceBytes)
	for i := range faces {
		for j := 0; j < 3; j++ {
			if faces[i][j], err = fr.ReadUint32(); err != nil {
				return nil, err
			}
		}
	}

	c := &Chunk{
		ID:          id,
		Version:     version,
		Compression: kind,
		Bounds:      bounds,
		Elements:    make([]*Element, 0, elementCount),
		byID:        make(map[uint32]*Element, elementCount),
	}
	for _, rec := range records {
		if uint64(rec.vertexOffset)+uint64(rec.vertexCount) > uint64(vertexCount) ||
			uint64(rec.faceOffset)+uint64(rec.faceCount) > uint64(faceCount) {
			return nil, fmt.Errorf("%w: element %d", ErrElementRange, rec.id)
		}

		e := &Element{
			ID:       rec.id,
			Type:     rec.typ,
			Material: rec.material,
			Vertices: vertices[rec.vertexOffset : rec.vertexOffset+rec.vertexCount],
			Faces:    make([][3]uint32, rec.faceCount),
		}
		for i, f := range faces[rec.faceOffset : rec.faceOffset+rec.faceCount] {
			// Re-base from chunk-global to element-local. Indices below the
			// element's own range wrap; Validate reports them.
			e.Faces[i] = [3]uint32{
				f[0] - rec.vertexOffset,
				f[1] - rec.vertexOffset,
				f[2] - rec.vertexOffset,
			}
		}
		e.RecomputeBounds()
		c.Elements = append(c.Elements, e)
		c.byID[e.ID] = e
	}

	return c, nil
}

// readPayload reads one typed array per the compression flag: a u32
// length-prefixed compressed block, or rawSize raw bytes.
func readPayload(r *codec.Reader, kind compress.Kind, cc compress.Codec, rawSize int) ([]byte, error) {
	if kind == compress.KindNone {
		return r.ReadBytes(rawSize)
	}

	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	enc, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	raw, err := cc.Decode(enc, rawSize)
	if err != nil {
		return nil, err
	}
	if len(raw) != rawSize {
		return nil, fmt.Errorf("decompressed size %d, want %d", len(raw), rawSize)
	}
	return raw, nil
}
