// meshinfo imports glTF assets headlessly and prints what the importer
// produced.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/daedalus/internal/asset"
	"github.com/Faultbox/daedalus/internal/logger"
	"github.com/Faultbox/daedalus/pkg/math"
)

func main() {
	asYAML := flag.Bool("yaml", false, "Print YAML instead of a table")
	check := flag.Bool("check", false, "Import twice and verify the counts match")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	level := "warn"
	if *debug {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	im := asset.NewImporter(logger.Named("asset"))
	failed := false
	for _, path := range flag.Args() {
		if err := inspect(os.Stdout, im, path, *asYAML, *check); err != nil {
			logger.Error("inspect failed", zap.String("path", path), zap.Error(err))
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshinfo - inspect glTF assets

Usage:
  meshinfo [-yaml] [-check] [-debug] <asset.gltf|asset.glb>...

Examples:
  meshinfo assets/SciFiHelmet/SciFiHelmet.gltf
  meshinfo -check -yaml model.glb`)
}

func inspect(w io.Writer, im *asset.Importer, path string, asYAML, check bool) error {
	meshes, err := im.Import(path)
	if err != nil {
		return err
	}
	s := summarize(path, meshes)

	if check {
		again, err := im.Import(path)
		if err != nil {
			return fmt.Errorf("second import: %w", err)
		}
		if err := s.sameCounts(summarize(path, again)); err != nil {
			return err
		}
	}

	if asYAML {
		return yaml.NewEncoder(w).Encode(s)
	}
	return s.writeTable(w)
}

// Summary describes one imported asset.
type Summary struct {
	Path      string        `yaml:"path"`
	Meshes    []MeshSummary `yaml:"meshes"`
	Vertices  int           `yaml:"vertices"`
	Indices   int           `yaml:"indices"`
	BoundsMin [3]float32    `yaml:"bounds_min"`
	BoundsMax [3]float32    `yaml:"bounds_max"`
}

// MeshSummary describes one node's mesh.
type MeshSummary struct {
	Name      string           `yaml:"name"`
	Submeshes []SubmeshSummary `yaml:"submeshes"`
}

// SubmeshSummary describes one draw.
type SubmeshSummary struct {
	Vertices  int      `yaml:"vertices"`
	Indices   int      `yaml:"indices"`
	Material  string   `yaml:"material"`
	Textures  []string `yaml:"textures,omitempty"`
	Tangented bool     `yaml:"has_tangents"`
}

func summarize(path string, meshes []asset.MeshData) Summary {
	s := Summary{Path: path}
	first := true
	var lo, hi math.Vec3
	for _, m := range meshes {
		ms := MeshSummary{Name: m.Name}
		for _, sub := range m.Submeshes {
			ss := SubmeshSummary{
				Vertices: len(sub.Vertices),
				Indices:  len(sub.Indices),
				Material: sub.Material.Name,
			}
			for _, slot := range sub.Material.Present() {
				img := sub.Material.Textures[slot]
				ss.Textures = append(ss.Textures, fmt.Sprintf("%s %dx%d", slot, img.Width, img.Height))
			}
			for _, v := range sub.Vertices {
				if first {
					lo, hi, first = v.Position, v.Position, false
				}
				lo = math.Vec3{X: min(lo.X, v.Position.X), Y: min(lo.Y, v.Position.Y), Z: min(lo.Z, v.Position.Z)}
				hi = math.Vec3{X: max(hi.X, v.Position.X), Y: max(hi.Y, v.Position.Y), Z: max(hi.Z, v.Position.Z)}
				if v.Tangent != (math.Vec3{}) {
					ss.Tangented = true
				}
			}
			s.Vertices += ss.Vertices
			s.Indices += ss.Indices
			ms.Submeshes = append(ms.Submeshes, ss)
		}
		s.Meshes = append(s.Meshes, ms)
	}
	s.BoundsMin, s.BoundsMax = lo.Array(), hi.Array()
	return s
}

func (s Summary) sameCounts(o Summary) error {
	if len(s.Meshes) != len(o.Meshes) {
		return fmt.Errorf("mesh count changed between imports: %d vs %d", len(s.Meshes), len(o.Meshes))
	}
	for i := range s.Meshes {
		a, b := s.Meshes[i].Submeshes, o.Meshes[i].Submeshes
		if len(a) != len(b) {
			return fmt.Errorf("mesh %d: submesh count changed: %d vs %d", i, len(a), len(b))
		}
		for j := range a {
			if a[j].Vertices != b[j].Vertices || a[j].Indices != b[j].Indices {
				return fmt.Errorf("mesh %d submesh %d: counts changed: %d/%d vs %d/%d",
					i, j, a[j].Vertices, a[j].Indices, b[j].Vertices, b[j].Indices)
			}
		}
	}
	return nil
}

func (s Summary) writeTable(w io.Writer) error {
	fmt.Fprintf(w, "%s: %d meshes, %d vertices, %d indices\n", s.Path, len(s.Meshes), s.Vertices, s.Indices)
	fmt.Fprintf(w, "bounds: %v .. %v\n", s.BoundsMin, s.BoundsMax)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MESH\tSUB\tVERTICES\tINDICES\tMATERIAL\tTEXTURES")
	for _, m := range s.Meshes {
		for j, sub := range m.Submeshes {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%d\n", m.Name, j, sub.Vertices, sub.Indices, sub.Material, len(sub.Textures))
		}
	}
	return tw.Flush()
}
