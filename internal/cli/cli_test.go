package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chdio/chd/pkg/container"
)

func writeModelFile(t *testing.T) string {
	t.Helper()
	model := container.InputModel{
		Project: container.Project{Name: "cli-test", Units: "m"},
		Elements: []*container.InputElement{
			{
				ID:   "e1",
				Type: "IfcWall",
				Vertices: [][3]float32{
					{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
				},
				Faces: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
			},
		},
	}
	data, err := json.Marshal(model)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func packTestContainer(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out.chd")
	w, err := container.NewWriter(container.DefaultWriterOptions())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(writeModelFile(t))
	if err != nil {
		t.Fatal(err)
	}
	var model container.InputModel
	if err := json.Unmarshal(data, &model); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(context.Background(), &model, dir); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRunNoCommand(t *testing.T) {
	err := Run(nil)
	if err == nil || !strings.Contains(err.Error(), "usage") {
		t.Errorf("err = %v, want usage", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := Run([]string{"frobnicate"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("err = %v", err)
	}
}

func TestRunInfoMissingArg(t *testing.T) {
	if err := Run([]string{"info"}); err == nil {
		t.Error("info without a container should fail")
	}
}

func TestRunPack(t *testing.T) {
	out := filepath.Join(t.TempDir(), "packed.chd")
	if err := Run([]string{"pack", "--out", out, writeModelFile(t)}); err != nil {
		t.Fatalf("pack: %v", err)
	}
	if _, err := container.ReadManifest(out); err != nil {
		t.Errorf("packed container unreadable: %v", err)
	}
}

func TestRunPackMissingOut(t *testing.T) {
	if err := Run([]string{"pack", writeModelFile(t)}); err == nil {
		t.Error("pack without --out should fail")
	}
}

func TestRunValidate(t *testing.T) {
	dir := packTestContainer(t)
	if err := Run([]string{"validate", dir}); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestRunValidateMissingContainer(t *testing.T) {
	if err := Run([]string{"validate", filepath.Join(t.TempDir(), "nope.chd")}); err == nil {
		t.Error("validating a missing container should fail")
	}
}

func TestRunInfo(t *testing.T) {
	dir := packTestContainer(t)
	if err := Run([]string{"info", dir}); err != nil {
		t.Errorf("info: %v", err)
	}
}

func TestRunUnpack(t *testing.T) {
	dir := packTestContainer(t)
	out := filepath.Join(t.TempDir(), "model.json")
	if err := Run([]string{"unpack", "--out", out, dir}); err != nil {
		t.Fatalf("unpack: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var model container.InputModel
	if err := json.Unmarshal(data, &model); err != nil {
		t.Fatalf("unpacked model not valid JSON: %v", err)
	}
	if len(model.Elements) != 1 {
		t.Fatalf("unpacked %d elements, want 1", len(model.Elements))
	}
	e := model.Elements[0]
	if e.ID != "e1" || e.Type != "IfcWall" {
		t.Errorf("element = %s/%s, want e1/IfcWall", e.ID, e.Type)
	}
	if len(e.Vertices) != 4 || len(e.Faces) != 2 {
		t.Errorf("element geometry %d/%d, want 4/2", len(e.Vertices), len(e.Faces))
	}
}

func TestRunExportOBJ(t *testing.T) {
	dir := packTestContainer(t)
	out := filepath.Join(t.TempDir(), "model.obj")
	if err := Run([]string{"export", "--format", "obj", "--out", out, dir}); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "o e1") {
		t.Errorf("OBJ output missing object line:\n%s", data)
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	dir := packTestContainer(t)
	out := filepath.Join(t.TempDir(), "model.xyz")
	if err := Run([]string{"export", "--format", "xyz", "--out", out, dir}); err == nil {
		t.Error("unknown export format should fail")
	}
}
