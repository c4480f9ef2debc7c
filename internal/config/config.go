// Package config handles loading and saving dtx settings.
package config

import "time"

// Config holds all settings.
type Config struct {
	Layers   LayersConfig   `yaml:"layers"`
	Textures TexturesConfig `yaml:"textures"`
	Bench    BenchConfig    `yaml:"bench"`
	Window   WindowConfig   `yaml:"window"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LayersConfig holds the options every layer of a model is created with.
type LayersConfig struct {
	SplitLargeGeometry bool    `yaml:"split_large_geometry"`
	BuildEdgeIndices   bool    `yaml:"build_edge_indices"`
	EdgeThreshold      float32 `yaml:"edge_threshold"` // degrees
	PrecisionPicking   bool    `yaml:"precision_picking"`
	EntityOffsets      bool    `yaml:"entity_offsets"`
	// MaxGeometryBatchSize caps the vertices a model puts in one layer
	// before opening the next; 0 means only the texture limits apply.
	MaxGeometryBatchSize int `yaml:"max_geometry_batch_size"`
}

// Texture backends.
const (
	BackendGL     = "gl"
	BackendMemory = "memory"
)

// TexturesConfig selects where data textures live.
type TexturesConfig struct {
	Backend string `yaml:"backend"`
}

// BenchConfig sizes the synthetic scene of the bench tool.
type BenchConfig struct {
	Portions           int   `yaml:"portions"`
	Instances          int   `yaml:"instances"`
	VerticesPerPortion int   `yaml:"vertices_per_portion"`
	Frames             int   `yaml:"frames"`
	UpdatesPerFrame    int   `yaml:"updates_per_frame"`
	Deferred           bool  `yaml:"deferred"`
	Seed               int64 `yaml:"seed"`
	// Budget stops the run early once exceeded.
	Budget time.Duration `yaml:"budget"`
	// DumpDir receives a PNG of every colors-and-flags texture after the
	// run. Empty disables dumping.
	DumpDir string `yaml:"dump_dir"`
}

// WindowConfig holds the GL window settings.
type WindowConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Hidden bool `yaml:"hidden"`
	VSync  bool `yaml:"vsync"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
	LogFile string `yaml:"log_file"`
	// Rotation of log_file.
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Layers: LayersConfig{
			BuildEdgeIndices: true,
			EdgeThreshold:    10,
		},
		Textures: TexturesConfig{
			Backend: BackendGL,
		},
		Bench: BenchConfig{
			Portions:           2000,
			Instances:          500,
			VerticesPerPortion: 300,
			Frames:             120,
			UpdatesPerFrame:    200,
			Deferred:           false,
			Seed:               1,
			Budget:             time.Minute,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Hidden: true,
			VSync:  false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}
