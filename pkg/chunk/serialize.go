package chunk

import (
	"fmt"

	"github.com/chdio/chd/pkg/codec"
	"github.com/chdio/chd/pkg/compress"
)

// Serialize encodes the chunk to its binary form.
//
// Layout: magic "CHDG", version u16, compression kind u8, element/vertex/face
// counts u32, chunk bounding box, 8 reserved bytes, element table, vertex
// data, face data. Face indices are stored chunk-global (element-local index
// plus the element's vertex offset).
//
// When compression is enabled each array is independently compressed and
// preceded by a u32 compressed-byte length; when disabled arrays are raw with
// no prefix (the counts already establish size). The asymmetry is part of the
// format.
func (c *Chunk) Serialize() ([]byte, error) {
	cc, err := compress.ForKind(c.Compression)
	if err != nil {
		return nil, fmt.Errorf("serialize chunk %s: %w", c.ID, err)
	}

	vertexCount := c.VertexCount()
	faceCount := c.FaceCount()

	w := codec.NewWriterSize(44 + len(c.Elements)*elementRecordSize + vertexCount*12 + faceCount*12)
	if err := w.WriteMagic(Magic); err != nil {
		return nil, err
	}
	w.WriteUint16(c.Version)
	w.WriteUint8(uint8(c.Compression))
	w.WriteUint32(uint32(len(c.Elements)))
	w.WriteUint32(uint32(vertexCount))
	w.WriteUint32(uint32(faceCount))
	w.WriteBBox(c.Bounds)
	w.WriteZeros(headerReserved)

	// Element table. Offsets index the flat buffers built below.
	vertexOffset := uint32(0)
	faceOffset := uint32(0)
	for _, e := range c.Elements {
		w.WriteUint32(e.ID)
		w.WriteUint16(e.Type)
		w.WriteUint32(e.Material)
		w.WriteUint32(vertexOffset)
		w.WriteUint32(uint32(len(e.Vertices)))
		w.WriteUint32(faceOffset)
		w.WriteUint32(uint32(len(e.Faces)))
		vertexOffset += uint32(len(e.Vertices))
		faceOffset += uint32(len(e.Faces))
	}

	vertexData := codec.NewWriterSize(vertexCount * 12)
	faceData := codec.NewWriterSize(faceCount * 12)
	vertexOffset = 0
	for _, e := range c.Elements {
		for _, v := range e.Vertices {
			vertexData.WriteFloat32(v[0])
			vertexData.WriteFloat32(v[1])
			vertexData.WriteFloat32(v[2])
		}
		for _, f := range e.Faces {
			faceData.WriteUint32(f[0] + vertexOffset)
			faceData.WriteUint32(f[1] + vertexOffset)
			faceData.WriteUint32(f[2] + vertexOffset)
		}
		vertexOffset += uint32(len(e.Vertices))
	}

	for _, raw := range [][]byte{vertexData.Bytes(), faceData.Bytes()} {
		if c.Compression == compress.KindNone {
			w.WriteBytes(raw)
			continue
		}
		enc, err := cc.Encode(raw)
		if err != nil {
			return nil, fmt.Errorf("serialize chunk %s: %w", c.ID, err)
		}
		w.WriteUint32(uint32(len(enc)))
		w.WriteBytes(enc)
	}

	return w.Bytes(), nil
}
