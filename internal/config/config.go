// Package config handles engine configuration loading and management.
package config

// Config holds all engine settings.
type Config struct {
	Graphics    GraphicsConfig    `yaml:"graphics"`
	Camera      CameraConfig      `yaml:"camera"`
	Lighting    LightingConfig    `yaml:"lighting"`
	Scene       SceneConfig       `yaml:"scene"`
	Logging     LoggingConfig     `yaml:"logging"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

// CameraConfig holds the initial first-person camera and controller settings.
// Angles are in degrees.
type CameraConfig struct {
	Position    [3]float32 `yaml:"position"`
	Yaw         float32    `yaml:"yaw"`
	Pitch       float32    `yaml:"pitch"`
	FOV         float32    `yaml:"fov"`
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	Speed       float32    `yaml:"speed"`
	Sensitivity float32    `yaml:"sensitivity"`
}

// LightingConfig holds the scene's lights.
type LightingConfig struct {
	Sun         SunConfig          `yaml:"sun"`
	PointLights []PointLightConfig `yaml:"point_lights"`
}

// SunConfig describes the directional light.
type SunConfig struct {
	Position [3]float32 `yaml:"position"`
	Color    [3]float32 `yaml:"color"`
}

// PointLightConfig describes one point light.
// Attenuation is (constant, linear, quadratic).
type PointLightConfig struct {
	Position    [3]float32 `yaml:"position"`
	Color       [3]float32 `yaml:"color"`
	Attenuation [3]float32 `yaml:"attenuation"`
}

// SceneConfig lists what is loaded into the scene at startup.
type SceneConfig struct {
	Meshes []MeshConfig  `yaml:"meshes"`
	Shapes []ShapeConfig `yaml:"shapes"`
}

// TransformConfig places an entity. Rotation is Euler angles in degrees.
type TransformConfig struct {
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"`
	Scale    [3]float32 `yaml:"scale"`
}

// MeshConfig is an asset file spawned as one entity.
type MeshConfig struct {
	Path      string          `yaml:"path"`
	Transform TransformConfig `yaml:"transform"`
}

// ShapeConfig is a procedural shape spawned as one entity.
type ShapeConfig struct {
	Kind      string          `yaml:"kind"` // "cube"
	Transform TransformConfig `yaml:"transform"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// DiagnosticsConfig controls the statistics dump written at shutdown.
type DiagnosticsConfig struct {
	StatsFile string `yaml:"stats_file"` // empty disables the dump
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1600,
			Height:     900,
			Fullscreen: false,
			VSync:      true,
			ClearColor: [4]float32{0.2, 0.2, 0.25, 1.0},
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 0, 3},
			Yaw:         -90,
			Pitch:       0,
			FOV:         45,
			Near:        0.1,
			Far:         1000,
			Speed:       4,
			Sensitivity: 15,
		},
		Lighting: LightingConfig{
			Sun: SunConfig{
				Position: [3]float32{0, 30, 30},
				Color:    [3]float32{1, 1, 1},
			},
			PointLights: []PointLightConfig{
				{
					Position:    [3]float32{0, 0, 3},
					Color:       [3]float32{1, 0, 0},
					Attenuation: [3]float32{0.5, 2, 1},
				},
			},
		},
		Scene: SceneConfig{
			Meshes: []MeshConfig{
				{
					Path: "assets/SciFiHelmet/SciFiHelmet.gltf",
					Transform: TransformConfig{
						Position: [3]float32{0, 2.5, 0},
						Scale:    [3]float32{1, 1, 1},
					},
				},
			},
			Shapes: []ShapeConfig{
				{
					Kind: "cube",
					Transform: TransformConfig{
						Scale: [3]float32{10, 0.5, 10},
					},
				},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
