// Package cli implements the command-line interface for chdtool.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/chdio/chd/pkg/chunk"
	"github.com/chdio/chd/pkg/container"
	"github.com/chdio/chd/pkg/export"
	"github.com/chdio/chd/pkg/humanfmt"
	"github.com/chdio/chd/pkg/logging"
)

const usage = "usage: chdtool <command> [options]\ncommands: info, validate, pack, unpack, export"

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "info":
		return runInfo(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "pack":
		return runPack(args[1:])
	case "unpack":
		return runUnpack(args[1:])
	case "export":
		return runExport(args[1:])
	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
}

func initLogging(fs *flag.FlagSet) (debug, human *bool) {
	debug = fs.Bool("debug", false, "enable debug logging")
	human = fs.Bool("human", false, "human-friendly console output")
	return
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	debug, human := initLogging(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if fs.NArg() != 1 {
		return errors.New("usage: chdtool info <container.chd>")
	}

	manifest, err := container.ReadManifest(fs.Arg(0))
	if err != nil {
		return err
	}

	stats := manifest.Statistics
	fmt.Printf("format:    %s %s\n", manifest.Format, manifest.Version)
	fmt.Printf("project:   %s (%s, %s)\n", manifest.Project.Name, manifest.Project.Units, manifest.Project.CoordinateSystem)
	fmt.Printf("chunks:    %d\n", len(manifest.Chunks))
	fmt.Printf("elements:  %s\n", humanfmt.Count(int64(stats.TotalElements)))
	fmt.Printf("vertices:  %s\n", humanfmt.Count(int64(stats.TotalVertices)))
	fmt.Printf("faces:     %s\n", humanfmt.Count(int64(stats.TotalFaces)))
	fmt.Printf("size:      %s\n", humanfmt.Bytes(stats.FileSize))
	fmt.Printf("ratio:     %s\n", humanfmt.Ratio(stats.CompressionRatio))
	if manifest.SpatialIndex != nil {
		fmt.Printf("index:     %d nodes\n", manifest.SpatialIndex.NodeCount)
	}
	return nil
}

// runValidate parses every chunk and runs the integrity pass. Chunks are
// immutable and independent, so validation fans out across workers; each
// chunk is still parsed by exactly one goroutine.
func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	debug, human := initLogging(fs)
	workers := fs.Int("workers", runtime.GOMAXPROCS(0), "concurrent chunk validations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if fs.NArg() != 1 {
		return errors.New("usage: chdtool validate <container.chd>")
	}
	dir := fs.Arg(0)

	manifest, err := container.ReadManifest(dir)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(*workers)
	reports := make([]chunk.Report, len(manifest.Chunks))
	for i, info := range manifest.Chunks {
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(dir, container.GeometryDir, info.File))
			if err != nil {
				return fmt.Errorf("chunk %s: %w", info.ID, err)
			}
			c, err := chunk.Parse(info.ID, data)
			if err != nil {
				return err
			}
			reports[i] = c.Validate()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	issues := 0
	for _, rep := range reports {
		for _, issue := range rep.Issues {
			fmt.Println(issue)
			issues++
		}
	}
	if issues > 0 {
		return fmt.Errorf("validation failed: %d issues", issues)
	}
	fmt.Printf("ok: %d chunks valid\n", len(manifest.Chunks))
	return nil
}

func runPack(args []string) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	debug, human := initLogging(fs)
	out := fs.String("out", "", "output container path (required)")
	optsFile := fs.String("options", "", "writer options YAML file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if fs.NArg() != 1 || *out == "" {
		return errors.New("usage: chdtool pack --out <container.chd> <model.json>")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	var model container.InputModel
	if err := json.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("parse model: %w", err)
	}

	opts := container.DefaultWriterOptions()
	if *optsFile != "" {
		if opts, err = container.LoadWriterOptions(*optsFile); err != nil {
			return err
		}
	}

	w, err := container.NewWriter(opts)
	if err != nil {
		return err
	}
	result, err := w.Write(context.Background(), &model, *out)
	if err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d elements, %s\n",
		result.OutputPath,
		result.Statistics.TotalElements,
		humanfmt.Bytes(result.Statistics.FileSize))
	return nil
}

// runUnpack reconstructs a producer-shaped JSON model from a container.
// Original string IDs come back through the attribute records; elements
// whose attributes were lost keep a surrogate-derived placeholder ID.
func runUnpack(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ContinueOnError)
	debug, human := initLogging(fs)
	out := fs.String("out", "", "output model JSON file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if fs.NArg() != 1 || *out == "" {
		return errors.New("usage: chdtool unpack --out <model.json> <container.chd>")
	}

	r := container.NewReader(container.DefaultReaderOptions())
	m, err := r.Parse(context.Background(), fs.Arg(0))
	if err != nil {
		return err
	}

	chunkIDs := make([]string, 0, len(m.Chunks))
	for id := range m.Chunks {
		chunkIDs = append(chunkIDs, id)
	}
	sort.Strings(chunkIDs)

	model := container.InputModel{Project: m.Project}
	for _, chunkID := range chunkIDs {
		for _, e := range m.Chunks[chunkID].Elements {
			in := &container.InputElement{
				ID:   m.OriginalIDs[e.ID],
				Type: m.TypeNames[e.Type],
			}
			if in.ID == "" {
				in.ID = fmt.Sprintf("element_%d", e.ID)
			}
			if e.Material != chunk.MaterialNone {
				in.MaterialID = m.OriginalIDs[e.Material]
			}
			if rec, ok := m.Attributes[e.ID]; ok {
				in.Name, _ = rec.GetString("name")
				in.Level, _ = rec.GetString("level")
				for k, v := range rec {
					switch k {
					case "type", "name", "level":
						continue
					}
					if in.RawProperties == nil {
						in.RawProperties = make(map[string]any)
					}
					in.RawProperties[k] = v.Any()
				}
			}
			in.Vertices = make([][3]float32, len(e.Vertices))
			for i, v := range e.Vertices {
				in.Vertices[i] = [3]float32(v)
			}
			in.Faces = make([][3]uint32, len(e.Faces))
			copy(in.Faces, e.Faces)
			model.Elements = append(model.Elements, in)
		}
	}

	if len(m.Materials) > 0 {
		model.RawMaterials = make(map[string]map[string]any, len(m.Materials))
		for sur, rec := range m.Materials {
			id := m.OriginalIDs[sur]
			if id == "" {
				continue
			}
			props := make(map[string]any, len(rec))
			for k, v := range rec {
				props[k] = v.Any()
			}
			model.RawMaterials[id] = props
		}
	}

	data, err := json.MarshalIndent(&model, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}

	fmt.Printf("unpacked %s: %d elements\n", *out, len(model.Elements))
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	debug, human := initLogging(fs)
	format := fs.String("format", "obj", "export format: obj or parquet")
	out := fs.String("out", "", "output file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if fs.NArg() != 1 || *out == "" {
		return errors.New("usage: chdtool export --format obj|parquet --out <file> <container.chd>")
	}

	r := container.NewReader(container.DefaultReaderOptions())
	model, err := r.Parse(context.Background(), fs.Arg(0))
	if err != nil {
		return err
	}

	switch *format {
	case "obj":
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		if err := export.WriteOBJ(f, model); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case "parquet":
		return export.WriteParquetAttributes(*out, model)
	default:
		return fmt.Errorf("unknown export format: %s", *format)
	}
}
