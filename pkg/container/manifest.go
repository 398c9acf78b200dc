package container

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// FormatName is the manifest format tag.
	FormatName = "CHD"
	// FormatVersion is the current container version string.
	FormatVersion = "1.0"

	// ManifestFile is the manifest filename inside a container directory.
	ManifestFile = "manifest.json"
	// SpatialIndexFile is the spatial index filename.
	SpatialIndexFile = "spatial.idx"
	// GeometryDir holds the chunk files.
	GeometryDir = "geometry"
	// AttributesDir holds the attribute files.
	AttributesDir = "attributes"
	// RelationsDir holds the relationship files.
	RelationsDir = "relations"
	// MaterialsFile is the material attribute filename.
	MaterialsFile = "materials.chda"
	// PropertiesFile is the element property filename.
	PropertiesFile = "properties.chda"
	// HierarchyFile is the level-grouped hierarchy filename.
	HierarchyFile = "hierarchy.json"
	// ReferencesFile is the pass-through references filename.
	ReferencesFile = "references.json"
)

// ChunkFileName returns the chunk filename for a chunk ID.
func ChunkFileName(chunkID string) string {
	return fmt.Sprintf("chunk_%s.bin", chunkID)
}

// ChunkInfo describes one chunk file in the manifest's chunk index.
type ChunkInfo struct {
	ID           string `json:"id"`
	File         string `json:"file"`
	ElementCount int    `json:"element_count"`
	ByteSize     int64  `json:"byte_size"`
}

// FileInfo describes an attribute file.
type FileInfo struct {
	File     string `json:"file"`
	ByteSize int64  `json:"byte_size"`
}

// SpatialIndexInfo describes the spatial index artifact.
type SpatialIndexInfo struct {
	File      string `json:"file"`
	NodeCount int    `json:"node_count"`
	ByteSize  int64  `json:"byte_size"`
}

// Manifest is the container-level metadata, written once at the end of a
// write pass and read first on every parse.
type Manifest struct {
	Format       string            `json:"format"`
	Version      string            `json:"version"`
	CreatedAt    time.Time         `json:"created_at"`
	Project      Project           `json:"project"`
	Chunks       []ChunkInfo       `json:"chunks"`
	Attributes   []FileInfo        `json:"attributes,omitempty"`
	SpatialIndex *SpatialIndexInfo `json:"spatial_index,omitempty"`
	ElementTypes map[string]uint16 `json:"element_types,omitempty"`
	Statistics   Statistics        `json:"statistics"`
}

// WriteManifest marshals and writes the manifest into dir.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeFileSync(filepath.Join(dir, ManifestFile), data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads and validates the manifest from dir. A missing or
// malformed manifest, an unknown format tag, or an unsupported version is
// fatal for the whole parse.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("malformed manifest: %w", err)
	}

	if m.Format != FormatName {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, m.Format)
	}
	if m.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, m.Version)
	}

	return &m, nil
}

// writeFileSync writes data to a file and fsyncs it.
func writeFileSync(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
