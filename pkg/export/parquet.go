package export

import (
	"fmt"
	"os"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/chdio/chd/pkg/chunk"
	"github.com/chdio/chd/pkg/container"
)

// AttributeRow is one element's attribute record in the Parquet export.
type AttributeRow struct {
	ElementID  uint32  `parquet:"element_id"`
	OriginalID string  `parquet:"original_id"`
	ChunkID    string  `parquet:"chunk_id"`
	Type       string  `parquet:"type"`
	Name       string  `parquet:"name"`
	Level      string  `parquet:"level"`
	MaterialID uint32  `parquet:"material_id"`
	Vertices   int32   `parquet:"vertices"`
	Faces      int32   `parquet:"faces"`
	MinX       float32 `parquet:"min_x"`
	MinY       float32 `parquet:"min_y"`
	MinZ       float32 `parquet:"min_z"`
	MaxX       float32 `parquet:"max_x"`
	MaxY       float32 `parquet:"max_y"`
	MaxZ       float32 `parquet:"max_z"`
}

// WriteParquetAttributes writes one row per loaded element to a Parquet
// file at path, joining geometry with the attribute records.
func WriteParquetAttributes(path string, m *container.Model) error {
	rows := buildRows(m)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}

	pw := parquet.NewGenericWriter[AttributeRow](f)
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}

func buildRows(m *container.Model) []AttributeRow {
	chunkIDs := make([]string, 0, len(m.Chunks))
	for id := range m.Chunks {
		chunkIDs = append(chunkIDs, id)
	}
	sort.Strings(chunkIDs)

	var rows []AttributeRow
	for _, chunkID := range chunkIDs {
		c := m.Chunks[chunkID]
		for _, e := range c.Elements {
			row := AttributeRow{
				ElementID:  e.ID,
				OriginalID: m.OriginalIDs[e.ID],
				ChunkID:    chunkID,
				Type:       m.TypeNames[e.Type],
				Vertices:   int32(len(e.Vertices)),
				Faces:      int32(len(e.Faces)),
				MinX:       e.Bounds.Min[0],
				MinY:       e.Bounds.Min[1],
				MinZ:       e.Bounds.Min[2],
				MaxX:       e.Bounds.Max[0],
				MaxY:       e.Bounds.Max[1],
				MaxZ:       e.Bounds.Max[2],
			}
			if e.Material != chunk.MaterialNone {
				row.MaterialID = e.Material
			}
			if rec, ok := m.Attributes[e.ID]; ok {
				row.Name, _ = rec.GetString("name")
				row.Level, _ = rec.GetString("level")
			}
			rows = append(rows, row)
		}
	}
	return rows
}
