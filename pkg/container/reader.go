package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/chdio/chd/internal/logctx"
	"github.com/chdio/chd/pkg/attrs"
	"github.com/chdio/chd/pkg/chunk"
	"github.com/chdio/chd/pkg/codec"
	"github.com/chdio/chd/pkg/geom"
	"github.com/chdio/chd/pkg/spatial"
	"github.com/chdio/chd/pkg/surrogate"
)

// Reader loads a container, eagerly or progressively. A Reader instance is
// not safe for concurrent calls that mutate its loaded-chunk cache; callers
// needing concurrency serialize calls or use independent readers (chunk
// files are read-only and shareable).
type Reader struct {
	opts ReaderOptions
	log  zerolog.Logger

	dir        string
	manifest   *Manifest
	chunkFiles map[string]string // chunk ID -> absolute file path
	chunks     map[string]*chunk.Chunk
	index      *spatial.Index
	loc        *locator

	attributes  map[uint32]attrs.Record
	materials   map[uint32]attrs.Record
	originalIDs map[uint32]string
}

// NewReader creates a reader with the given load options.
func NewReader(opts ReaderOptions) *Reader {
	return &Reader{
		opts:       opts,
		log:        logctx.DefaultLogger(),
		chunkFiles: make(map[string]string),
		chunks:     make(map[string]*chunk.Chunk),
	}
}

// Parse validates and loads a container. Only a missing or malformed
// manifest is fatal; optional artifacts (index, attributes, single chunks)
// degrade to gaps in the returned Model with a logged warning.
func (r *Reader) Parse(ctx context.Context, path string) (*Model, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve container path: %w", err)
	}
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("container not found: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("container path %s is not a directory", dir)
	}
	r.dir = dir
	r.log = logctx.FromContext(ctx).With().Str("container", dir).Logger()

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	r.manifest = manifest

	for _, info := range manifest.Chunks {
		r.chunkFiles[info.ID] = filepath.Join(dir, GeometryDir, info.File)
	}

	if r.opts.LoadSpatialIndex && manifest.SpatialIndex != nil {
		if err := r.loadIndex(filepath.Join(dir, manifest.SpatialIndex.File)); err != nil {
			r.log.Warn().Err(err).Msg("spatial index unavailable, continuing without it")
		}
	}

	if r.opts.LoadGeometry {
		for _, info := range manifest.Chunks {
			if _, err := r.loadChunk(info.ID); err != nil {
				r.log.Warn().Err(err).Str("chunk_id", info.ID).Msg("chunk unavailable, continuing with a gap")
			}
		}
		r.loc = buildLocator(r.chunks)
	}

	model := &Model{
		Project:   manifest.Project,
		Chunks:    make(map[string]*chunk.Chunk, len(r.chunks)),
		Index:     r.index,
		Manifest:  manifest,
		TypeNames: make(map[uint16]string, len(manifest.ElementTypes)),
	}
	for id, c := range r.chunks {
		model.Chunks[id] = c
	}
	for name, code := range manifest.ElementTypes {
		model.TypeNames[code] = name
	}

	if r.opts.LoadAttributes {
		r.loadAttributes(dir)
		model.Attributes = r.attributes
		model.Materials = r.materials
		model.OriginalIDs = r.originalIDs
	}

	r.log.Info().
		Str("event", "parse_completed").
		Int("chunks_loaded", len(r.chunks)).
		Int("chunks_total", len(manifest.Chunks)).
		Bool("index_loaded", r.index != nil).
		Int("attributed_elements", len(r.attributes)).
		Msg("container parsed")

	return model, nil
}

func (r *Reader) loadIndex(path string) error {
	m, err := codec.OpenMmap(path)
	if err != nil {
		return err
	}
	defer m.Close()

	idx, err := spatial.Parse(m.Data())
	if err != nil {
		return err
	}
	r.index = idx
	return nil
}

// loadChunk parses and memoizes one chunk. Loaded chunks are never evicted.
func (r *Reader) loadChunk(chunkID string) (*chunk.Chunk, error) {
	if c, ok := r.chunks[chunkID]; ok {
		return c, nil
	}

	path, ok := r.chunkFiles[chunkID]
	if !ok {
		return nil, fmt.Errorf("chunk %s not in manifest", chunkID)
	}

	m, err := codec.OpenMmap(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %s: %w", chunkID, err)
	}
	defer m.Close()

	c, err := chunk.Parse(chunkID, m.Data())
	if err != nil {
		return nil, err
	}
	r.chunks[chunkID] = c
	return c, nil
}

// loadAttributes decodes both attribute files, flattening the string-keyed
// records into surrogate-keyed maps by recomputing the write-time hash.
// Either file missing or corrupt degrades to empty maps.
func (r *Reader) loadAttributes(dir string) {
	r.attributes = make(map[uint32]attrs.Record)
	r.materials = make(map[uint32]attrs.Record)
	r.originalIDs = make(map[uint32]string)

	for _, part := range []struct {
		file string
		into map[uint32]attrs.Record
	}{
		{MaterialsFile, r.materials},
		{PropertiesFile, r.attributes},
	} {
		data, err := os.ReadFile(filepath.Join(dir, AttributesDir, part.file))
		if err != nil {
			r.log.Warn().Err(err).Str("file", part.file).Msg("attribute file unavailable")
			continue
		}
		_, records, err := attrs.Decode(data)
		if err != nil {
			r.log.Warn().Err(err).Str("file", part.file).Msg("attribute file corrupt, skipping")
			continue
		}
		for key, rec := range records {
			sur := surrogate.Hash(key)
			part.into[sur] = rec
			r.originalIDs[sur] = key
		}
	}
}

// GetElement returns the element with the given surrogate ID. Already
// loaded chunks are consulted first; on a miss with a spatial index
// present, the owning chunk is resolved and loaded on demand. Returns
// ErrElementNotFound when no loaded or resolvable chunk holds the ID.
func (r *Reader) GetElement(id uint32) (*chunk.Element, error) {
	if r.manifest == nil {
		return nil, ErrNotParsed
	}

	if r.loc != nil {
		if chunkID, ok := r.loc.find(id); ok {
			if c := r.chunks[chunkID]; c != nil {
				if e := c.Element(id); e != nil {
					return e, nil
				}
			}
		}
	} else {
		for _, c := range r.chunks {
			if e := c.Element(id); e != nil {
				return e, nil
			}
		}
	}

	if r.index != nil {
		chunkID, ok := r.index.ChunkForElement(id)
		if !ok {
			return nil, ErrElementNotFound
		}
		c, err := r.loadChunk(chunkID)
		if err != nil {
			return nil, err
		}
		if e := c.Element(id); e != nil {
			return e, nil
		}
	}

	return nil, ErrElementNotFound
}

// QueryByBounds returns all elements whose bounding boxes intersect the
// query box, loading owning chunks on demand. Fails fast when the spatial
// index is not loaded.
func (r *Reader) QueryByBounds(min, max geom.Vec3) ([]*chunk.Element, error) {
	if r.manifest == nil {
		return nil, ErrNotParsed
	}
	if r.index == nil {
		return nil, ErrIndexNotLoaded
	}

	query := geom.BBox{Min: min, Max: max}
	var out []*chunk.Element
	for _, id := range r.index.QueryBounds(min, max) {
		e, err := r.GetElement(id)
		if err != nil {
			if errors.Is(err, ErrElementNotFound) {
				continue
			}
			// A chunk that cannot be loaded leaves a gap, not a failure.
			r.log.Warn().Err(err).Uint32("element_id", id).Msg("element unavailable during query")
			continue
		}
		if e.Bounds.Intersects(query) {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetStatistics returns the manifest's aggregate statistics.
func (r *Reader) GetStatistics() (Statistics, error) {
	if r.manifest == nil {
		return Statistics{}, ErrNotParsed
	}
	return r.manifest.Statistics, nil
}

// Manifest returns the parsed manifest, or nil before Parse.
func (r *Reader) Manifest() *Manifest {
	return r.manifest
}

// LoadedChunks returns the IDs of all currently loaded chunks.
func (r *Reader) LoadedChunks() []string {
	ids := make([]string, 0, len(r.chunks))
	for id := range r.chunks {
		ids = append(ids, id)
	}
	return ids
}
