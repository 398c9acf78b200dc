// Package container implements the CHD container: the manifest, the
// chunk-partitioning writer, and the streaming-capable reader.
package container

import (
	"encoding/json"

	"github.com/chdio/chd/pkg/attrs"
	"github.com/chdio/chd/pkg/chunk"
	"github.com/chdio/chd/pkg/geom"
	"github.com/chdio/chd/pkg/spatial"
)

// Project is the container-level project metadata.
type Project struct {
	Name             string    `json:"name" yaml:"name"`
	Units            string    `json:"units" yaml:"units"`
	CoordinateSystem string    `json:"coordinate_system" yaml:"coordinate_system"`
	Bounds           geom.BBox `json:"bounds" yaml:"-"`
}

// InputElement is one element as supplied by an external producer. Any
// placement or transform composition has already been applied; the writer
// performs no coordinate transformation. Face indices are local to the
// element's own vertex list.
type InputElement struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Name       string       `json:"name,omitempty"`
	MaterialID string       `json:"materialId,omitempty"`
	Level      string       `json:"level,omitempty"`
	Vertices   [][3]float32 `json:"vertices"`
	Faces      [][3]uint32  `json:"faces"`
	Properties attrs.Record `json:"-"`

	// RawProperties carries properties in producer JSON form; the writer
	// converts them to the closed attribute value kinds.
	RawProperties map[string]any `json:"properties,omitempty"`
}

// InputModel is the producer-facing write input shape.
type InputModel struct {
	Project    Project                 `json:"project"`
	Elements   []*InputElement         `json:"elements"`
	Materials  map[string]attrs.Record `json:"-"`
	References json.RawMessage         `json:"references,omitempty"`

	// RawMaterials carries materials in producer JSON form.
	RawMaterials map[string]map[string]any `json:"materials,omitempty"`
}

// Model is the assembled result of a read. It is owned exclusively by the
// caller once returned; the engine holds no reference to it.
type Model struct {
	Project Project

	// Chunks maps chunk ID to loaded geometry. A chunk that failed to load
	// is simply absent.
	Chunks map[string]*chunk.Chunk

	// Attributes maps surrogate element IDs to property records.
	Attributes map[uint32]attrs.Record

	// Materials maps surrogate material IDs to material records.
	Materials map[uint32]attrs.Record

	// OriginalIDs recovers the producer string ID for a surrogate, derived
	// from attribute-record keys at load time (the mapping itself is not
	// persisted).
	OriginalIDs map[uint32]string

	// TypeNames maps element type codes back to producer type names.
	TypeNames map[uint16]string

	// Index is nil when the spatial index was not loaded.
	Index *spatial.Index

	Manifest *Manifest
}

// Statistics are the aggregate counts recorded in the manifest.
type Statistics struct {
	TotalElements    int     `json:"total_elements"`
	TotalVertices    int     `json:"total_vertices"`
	TotalFaces       int     `json:"total_faces"`
	FileSize         int64   `json:"file_size"`
	CompressionRatio float64 `json:"compression_ratio"`
}
