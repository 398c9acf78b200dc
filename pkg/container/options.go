package container

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chdio/chd/pkg/compress"
	"github.com/chdio/chd/pkg/logging"
)

// WriterOptions configures a write pass.
type WriterOptions struct {
	// ChunkSize is the number of elements per chunk, preserving input
	// order: chunk k gets elements [k*size, (k+1)*size).
	ChunkSize int `yaml:"chunk_size"`

	// Compression names the payload compression: "none" or "deflate".
	Compression string `yaml:"compression"`

	// BuildSpatialIndex controls whether spatial.idx is written.
	BuildSpatialIndex bool `yaml:"build_spatial_index"`

	// Progress is the advisory per-stage callback. It never affects
	// control flow or stage ordering.
	Progress logging.ProgressFunc `yaml:"-"`
}

// DefaultWriterOptions returns the defaults used when no options file is
// given.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		ChunkSize:         1000,
		Compression:       compress.KindDeflate.String(),
		BuildSpatialIndex: true,
	}
}

// Kind resolves the configured compression name.
func (o WriterOptions) Kind() (compress.Kind, error) {
	return compress.ParseKind(o.Compression)
}

// ReaderOptions configures a parse: each artifact class can be loaded
// eagerly or left for on-demand loading.
type ReaderOptions struct {
	LoadGeometry     bool `yaml:"load_geometry"`
	LoadSpatialIndex bool `yaml:"load_spatial_index"`
	LoadAttributes   bool `yaml:"load_attributes"`
}

// DefaultReaderOptions loads everything eagerly.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		LoadGeometry:     true,
		LoadSpatialIndex: true,
		LoadAttributes:   true,
	}
}

// LoadWriterOptions overlays a YAML options file on the defaults.
func LoadWriterOptions(path string) (WriterOptions, error) {
	opts := DefaultWriterOptions()
	if err := loadYAML(path, &opts); err != nil {
		return WriterOptions{}, err
	}
	if _, err := opts.Kind(); err != nil {
		return WriterOptions{}, err
	}
	return opts, nil
}

// LoadReaderOptions overlays a YAML options file on the defaults.
func LoadReaderOptions(path string) (ReaderOptions, error) {
	opts := DefaultReaderOptions()
	if err := loadYAML(path, &opts); err != nil {
		return ReaderOptions{}, err
	}
	return opts, nil
}

func loadYAML(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read options file: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse options file %s: %w", path, err)
	}
	return nil
}
