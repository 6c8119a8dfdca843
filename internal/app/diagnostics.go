package app

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/daedalus/internal/engine/renderer"
	"github.com/Faultbox/daedalus/internal/engine/world"
)

// Diagnostics is the shutdown statistics dump.
type Diagnostics struct {
	Scenes     int            `yaml:"scenes"`
	Models     int            `yaml:"models"`
	Components world.Stats    `yaml:"components"`
	Frames     renderer.Stats `yaml:"frames"`
}

// Diagnostics collects the current statistics, summed over all scenes.
func (c *Context) Diagnostics() Diagnostics {
	d := Diagnostics{Scenes: len(c.scenes), Frames: c.Renderer.Stats()}
	for i, sc := range c.scenes {
		d.Models += sc.ModelCount()
		s := c.worlds[i].Stats()
		d.Components.Entities += s.Entities
		d.Components.Meshes += s.Meshes
		d.Components.Transforms += s.Transforms
	}
	return d
}

// WriteDiagnostics writes d as YAML to path, creating parent directories.
func WriteDiagnostics(path string, d Diagnostics) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnostics: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create diagnostics directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write diagnostics: %w", err)
	}
	return nil
}
