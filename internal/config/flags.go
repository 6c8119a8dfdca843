package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagAsset      = flag.String("asset", "", "glTF asset to load instead of the configured meshes")
	flagStats      = flag.String("stats", "", "Write shutdown statistics to this YAML file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagAsset != "" {
		// Keep the configured placement of the first mesh, if any.
		mesh := MeshConfig{
			Path:      *flagAsset,
			Transform: TransformConfig{Scale: [3]float32{1, 1, 1}},
		}
		if len(cfg.Scene.Meshes) > 0 {
			mesh.Transform = cfg.Scene.Meshes[0].Transform
		}
		cfg.Scene.Meshes = []MeshConfig{mesh}
	}
	if *flagStats != "" {
		cfg.Diagnostics.StatsFile = *flagStats
	}
}
