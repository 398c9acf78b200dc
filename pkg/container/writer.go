package container

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/chdio/chd/internal/logctx"
	"github.com/chdio/chd/pkg/attrs"
	"github.com/chdio/chd/pkg/chunk"
	"github.com/chdio/chd/pkg/compress"
	"github.com/chdio/chd/pkg/geom"
	"github.com/chdio/chd/pkg/humanfmt"
	"github.com/chdio/chd/pkg/logging"
	"github.com/chdio/chd/pkg/spatial"
	"github.com/chdio/chd/pkg/surrogate"
)

// Writer partitions a model into chunks and emits a complete container.
// All state is instance-owned; independent writers coexist safely. A single
// Writer runs its stages strictly sequentially.
type Writer struct {
	opts WriterOptions
	kind compress.Kind

	// idMap records surrogate -> original string ID assignments. It lives
	// only in writer memory and is never persisted; the reader recovers
	// the association by re-hashing attribute-record keys.
	idMap map[uint32]string

	typeCodes map[string]uint16
}

// WriteResult is returned by a successful write pass.
type WriteResult struct {
	OutputPath string
	Statistics Statistics
}

// NewWriter creates a writer. Invalid compression names fail here, not
// mid-pipeline.
func NewWriter(opts WriterOptions) (*Writer, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultWriterOptions().ChunkSize
	}
	kind, err := compress.ParseKind(opts.Compression)
	if err != nil {
		return nil, err
	}
	return &Writer{
		opts:      opts,
		kind:      kind,
		idMap:     make(map[uint32]string),
		typeCodes: make(map[string]uint16),
	}, nil
}

// OriginalID recovers the producer string ID for a surrogate assigned
// during this writer's pass.
func (w *Writer) OriginalID(sur uint32) (string, bool) {
	s, ok := w.idMap[sur]
	return s, ok
}

// Write runs the full pipeline: validate, project bounds, partition, chunk
// serialization, attributes, spatial index, manifest, relations. Each
// stage's output is fully materialized before the next begins.
func (w *Writer) Write(ctx context.Context, model *InputModel, outPath string) (*WriteResult, error) {
	start := time.Now()
	log := logctx.FromContext(ctx).With().Str("container", outPath).Logger()
	rep := logging.NewStageReporter(w.opts.Progress, log)

	// Stage 1: validate input.
	if model == nil || len(model.Elements) == 0 {
		return nil, ErrEmptyModel
	}
	rep.Report("validate", 2)

	// Stage 2: project bounding box over all input vertices.
	project := model.Project
	project.Bounds = geom.EmptyBBox()
	totalVertices := 0
	totalFaces := 0
	for _, in := range model.Elements {
		for _, v := range in.Vertices {
			project.Bounds.Expand(geom.Vec3(v))
		}
		totalVertices += len(in.Vertices)
		totalFaces += len(in.Faces)
	}
	rep.Report("bounds", 5)

	// Stage 3: partition into fixed-size chunks preserving input order.
	var groups [][]*InputElement
	for i := 0; i < len(model.Elements); i += w.opts.ChunkSize {
		end := i + w.opts.ChunkSize
		if end > len(model.Elements) {
			end = len(model.Elements)
		}
		groups = append(groups, model.Elements[i:end])
	}
	rep.Report("partition", 10)

	if err := w.makeLayout(outPath); err != nil {
		return nil, err
	}

	// Stages 4-5: build and serialize each chunk into its own file.
	geometryDir := filepath.Join(outPath, GeometryDir)
	chunks := make([]*chunk.Chunk, 0, len(groups))
	chunkInfos := make([]ChunkInfo, 0, len(groups))
	var chunkBytes int64
	for k, group := range groups {
		chunkStart := time.Now()
		chunkID := fmt.Sprintf("%04d", k)
		logging.ChunkStarted(log, chunkID, k, len(groups))

		elements := make([]*chunk.Element, 0, len(group))
		for _, in := range group {
			elements = append(elements, w.buildElement(in))
		}
		c := chunk.Build(chunkID, elements, w.kind)

		data, err := c.Serialize()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize chunk %s: %w", chunkID, err)
		}

		file := ChunkFileName(chunkID)
		if err := writeFileSync(filepath.Join(geometryDir, file), data); err != nil {
			return nil, fmt.Errorf("failed to write chunk %s: %w", chunkID, err)
		}

		chunks = append(chunks, c)
		chunkInfos = append(chunkInfos, ChunkInfo{
			ID:           chunkID,
			File:         file,
			ElementCount: len(c.Elements),
			ByteSize:     int64(len(data)),
		})
		chunkBytes += int64(len(data))

		logging.ChunkCompleted(log, chunkID, len(c.Elements), int64(len(data)), time.Since(chunkStart))
		rep.Report("chunks", 10+50*float64(k+1)/float64(len(groups)))
	}

	// Stage 6: attribute files.
	attrInfos, attrBytes, err := w.writeAttributes(outPath, model)
	if err != nil {
		return nil, err
	}
	rep.Report("attributes", 75)

	// Stage 7: spatial index.
	var indexInfo *SpatialIndexInfo
	var indexBytes int64
	if w.opts.BuildSpatialIndex {
		idx := spatial.Build(chunks)
		data, err := idx.Serialize()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize spatial index: %w", err)
		}
		if err := writeFileSync(filepath.Join(outPath, SpatialIndexFile), data); err != nil {
			return nil, fmt.Errorf("failed to write spatial index: %w", err)
		}
		indexBytes = int64(len(data))
		indexInfo = &SpatialIndexInfo{
			File:      SpatialIndexFile,
			NodeCount: idx.NodeCount(),
			ByteSize:  indexBytes,
		}
	}
	rep.Report("spatial_index", 85)

	// Stage 8: aggregate statistics and manifest. The manifest is written
	// only now, after all chunk sizes are known.
	stats := Statistics{
		TotalElements: len(model.Elements),
		TotalVertices: totalVertices,
		TotalFaces:    totalFaces,
		FileSize:      chunkBytes + attrBytes + indexBytes,
	}
	if estimate := int64(totalVertices)*12 + int64(totalFaces)*12; estimate > 0 {
		stats.CompressionRatio = float64(chunkBytes) / float64(estimate)
	}

	manifest := &Manifest{
		Format:       FormatName,
		Version:      FormatVersion,
		CreatedAt:    time.Now().UTC(),
		Project:      project,
		Chunks:       chunkInfos,
		Attributes:   attrInfos,
		SpatialIndex: indexInfo,
		ElementTypes: w.typeCodes,
		Statistics:   stats,
	}
	if err := WriteManifest(outPath, manifest); err != nil {
		return nil, err
	}
	rep.Report("manifest", 95)

	// Stage 9: auxiliary relationship data.
	if err := w.writeRelations(outPath, model); err != nil {
		return nil, err
	}
	rep.Report("relations", 100)

	log.Info().
		Str("event", "write_completed").
		Int("elements", stats.TotalElements).
		Int("chunks", len(chunkInfos)).
		Int64("file_size", stats.FileSize).
		Str("file_size_h", humanfmt.Bytes(stats.FileSize)).
		Str("compression_ratio", humanfmt.Ratio(stats.CompressionRatio)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("container written")

	return &WriteResult{OutputPath: outPath, Statistics: stats}, nil
}

func (w *Writer) makeLayout(outPath string) error {
	for _, dir := range []string{
		outPath,
		filepath.Join(outPath, GeometryDir),
		filepath.Join(outPath, AttributesDir),
		filepath.Join(outPath, RelationsDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create container layout: %w", err)
		}
	}
	return nil
}

// buildElement assigns the surrogate ID and type code and converts the
// producer shape into chunk geometry.
func (w *Writer) buildElement(in *InputElement) *chunk.Element {
	sur := surrogate.Hash(in.ID)
	w.idMap[sur] = in.ID

	material := chunk.MaterialNone
	if in.MaterialID != "" {
		material = surrogate.Hash(in.MaterialID)
	}

	vertices := make([]geom.Vec3, len(in.Vertices))
	for i, v := range in.Vertices {
		vertices[i] = geom.Vec3(v)
	}
	faces := make([][3]uint32, len(in.Faces))
	copy(faces, in.Faces)

	return &chunk.Element{
		ID:       sur,
		Type:     w.typeCode(in.Type),
		Material: material,
		Vertices: vertices,
		Faces:    faces,
	}
}

func (w *Writer) typeCode(name string) uint16 {
	if code, ok := w.typeCodes[name]; ok {
		return code
	}
	code := uint16(len(w.typeCodes) + 1)
	w.typeCodes[name] = code
	return code
}

// writeAttributes emits materials and per-element property records, keyed
// by the original string IDs so the reader can re-derive surrogates.
func (w *Writer) writeAttributes(outPath string, model *InputModel) ([]FileInfo, int64, error) {
	attributesDir := filepath.Join(outPath, AttributesDir)

	// Merge into a fresh map; the input model is never mutated.
	materials := make(map[string]attrs.Record, len(model.Materials)+len(model.RawMaterials))
	for id, rec := range model.Materials {
		materials[id] = rec
	}
	for id, raw := range model.RawMaterials {
		if _, ok := materials[id]; !ok {
			materials[id] = attrs.RecordFromAny(raw)
		}
	}

	properties := make(map[string]attrs.Record, len(model.Elements))
	for _, in := range model.Elements {
		rec := attrs.Record{
			"type": attrs.String(in.Type),
		}
		if in.Name != "" {
			rec["name"] = attrs.String(in.Name)
		}
		if in.Level != "" {
			rec["level"] = attrs.String(in.Level)
		}
		props := in.Properties
		if props == nil {
			props = attrs.RecordFromAny(in.RawProperties)
		}
		for k, v := range props {
			rec[k] = v
		}
		properties[in.ID] = rec
	}

	var infos []FileInfo
	var total int64
	for _, part := range []struct {
		section string
		file    string
		records map[string]attrs.Record
	}{
		{"materials", MaterialsFile, materials},
		{"elements", PropertiesFile, properties},
	} {
		data, err := attrs.Encode(part.section, part.records)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode %s: %w", part.section, err)
		}
		if err := writeFileSync(filepath.Join(attributesDir, part.file), data); err != nil {
			return nil, 0, fmt.Errorf("failed to write %s: %w", part.file, err)
		}
		infos = append(infos, FileInfo{File: part.file, ByteSize: int64(len(data))})
		total += int64(len(data))
	}
	return infos, total, nil
}

// writeRelations emits the level-grouped hierarchy derived from element
// level attributes and the pass-through references structure.
func (w *Writer) writeRelations(outPath string, model *InputModel) error {
	relationsDir := filepath.Join(outPath, RelationsDir)

	levels := make(map[string][]uint32)
	for _, in := range model.Elements {
		if in.Level == "" {
			continue
		}
		levels[in.Level] = append(levels[in.Level], surrogate.Hash(in.ID))
	}
	for _, ids := range levels {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	hierarchy, err := json.MarshalIndent(map[string]any{"levels": levels}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal hierarchy: %w", err)
	}
	if err := writeFileSync(filepath.Join(relationsDir, HierarchyFile), hierarchy); err != nil {
		return fmt.Errorf("write hierarchy: %w", err)
	}

	references := model.References
	if len(references) == 0 {
		references = json.RawMessage("{}")
	}
	if err := writeFileSync(filepath.Join(relationsDir, ReferencesFile), references); err != nil {
		return fmt.Errorf("write references: %w", err)
	}
	return nil
}
