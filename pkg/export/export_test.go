package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/chdio/chd/pkg/attrs"
	"github.com/chdio/chd/pkg/chunk"
	"github.com/chdio/chd/pkg/compress"
	"github.com/chdio/chd/pkg/container"
	"github.com/chdio/chd/pkg/geom"
)

func triangle(id uint32, x float32) *chunk.Element {
	e := &chunk.Element{
		ID:       id,
		Type:     1,
		Material: chunk.MaterialNone,
		Vertices: []geom.Vec3{{x, 0, 0}, {x + 1, 0, 0}, {x, 1, 0}},
		Faces:    [][3]uint32{{0, 1, 2}},
	}
	e.RecomputeBounds()
	return e
}

func sampleModel() *container.Model {
	return &container.Model{
		Project: container.Project{Name: "sample"},
		Chunks: map[string]*chunk.Chunk{
			"0001": chunk.Build("0001", []*chunk.Element{triangle(20, 10)}, compress.KindNone),
			"0000": chunk.Build("0000", []*chunk.Element{triangle(10, 0)}, compress.KindNone),
		},
		OriginalIDs: map[uint32]string{10: "tri-a"},
		TypeNames:   map[uint16]string{1: "IfcPlate"},
		Attributes: map[uint32]attrs.Record{
			10: {"name": attrs.String("Plate A"), "level": attrs.String("Roof")},
		},
	}
}

func TestWriteOBJ(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, sampleModel()); err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}
	got := buf.String()

	want := strings.Join([]string{
		"# sample",
		"o tri-a",
		"v 0 0 0",
		"v 1 0 0",
		"v 0 1 0",
		"f 1 2 3",
		"o element_20",
		"v 10 0 0",
		"v 11 0 0",
		"v 10 1 0",
		"f 4 5 6",
		"",
	}, "\n")
	if got != want {
		t.Errorf("OBJ output:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteParquetAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attrs.parquet")
	if err := WriteParquetAttributes(path, sampleModel()); err != nil {
		t.Fatalf("WriteParquetAttributes: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}

	pr := parquet.NewGenericReader[AttributeRow](f)
	defer pr.Close()

	rows := make([]AttributeRow, 4)
	n, _ := pr.Read(rows)
	if n != 2 {
		t.Fatalf("read %d rows, want 2 (file %d bytes)", n, info.Size())
	}

	first := rows[0]
	if first.ElementID != 10 || first.OriginalID != "tri-a" || first.ChunkID != "0000" {
		t.Errorf("first row = %+v", first)
	}
	if first.Type != "IfcPlate" || first.Name != "Plate A" || first.Level != "Roof" {
		t.Errorf("first row attributes = %+v", first)
	}
	if first.Vertices != 3 || first.Faces != 1 {
		t.Errorf("first row counts = %+v", first)
	}
	if first.MinX != 0 || first.MaxX != 1 || first.MaxY != 1 {
		t.Errorf("first row bounds = %+v", first)
	}

	second := rows[1]
	if second.ElementID != 20 || second.OriginalID != "" || second.Name != "" {
		t.Errorf("second row = %+v", second)
	}
	if second.MaterialID != 0 {
		t.Errorf("second row material = %d, want 0 for none", second.MaterialID)
	}
}
