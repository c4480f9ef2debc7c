package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Textures.Backend != BackendGL {
		t.Errorf("expected backend gl, got %s", cfg.Textures.Backend)
	}
	if cfg.Layers.SplitLargeGeometry {
		t.Error("expected split_large_geometry to be false by default")
	}
	if !cfg.Layers.BuildEdgeIndices {
		t.Error("expected build_edge_indices to be true by default")
	}
	if cfg.Layers.EdgeThreshold != 10 {
		t.Errorf("expected edge threshold 10, got %v", cfg.Layers.EdgeThreshold)
	}
	if !cfg.Window.Hidden {
		t.Error("expected hidden window by default")
	}
	if cfg.Bench.Budget != time.Minute {
		t.Errorf("expected budget 1m, got %v", cfg.Bench.Budget)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
layers:
  split_large_geometry: true
  precision_picking: true
  entity_offsets: true
  max_geometry_batch_size: 50000

textures:
  backend: memory

bench:
  portions: 10
  instances: 3
  frames: 5
  deferred: true
  budget: 30s

window:
  width: 640
  height: 480
  hidden: false

logging:
  level: "debug"
  log_file: "dtx.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Layers.SplitLargeGeometry || !cfg.Layers.PrecisionPicking || !cfg.Layers.EntityOffsets {
		t.Errorf("layer switches not loaded: %+v", cfg.Layers)
	}
	if cfg.Layers.MaxGeometryBatchSize != 50000 {
		t.Errorf("expected batch size 50000, got %d", cfg.Layers.MaxGeometryBatchSize)
	}
	// Keys missing from the file keep their defaults.
	if !cfg.Layers.BuildEdgeIndices {
		t.Error("expected build_edge_indices default to survive")
	}
	if cfg.Textures.Backend != BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.Textures.Backend)
	}
	if cfg.Bench.Portions != 10 || cfg.Bench.Instances != 3 || cfg.Bench.Frames != 5 {
		t.Errorf("bench counts not loaded: %+v", cfg.Bench)
	}
	if !cfg.Bench.Deferred {
		t.Error("expected deferred to be true")
	}
	if cfg.Bench.Budget != 30*time.Second {
		t.Errorf("expected budget 30s, got %v", cfg.Bench.Budget)
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != 480 || cfg.Window.Hidden {
		t.Errorf("window not loaded: %+v", cfg.Window)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "dtx.log" {
		t.Errorf("expected log file 'dtx.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
bench:
  portions: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory backend", func(c *Config) { c.Textures.Backend = BackendMemory }, false},
		{"unknown backend", func(c *Config) { c.Textures.Backend = "vulkan" }, true},
		{"negative threshold", func(c *Config) { c.Layers.EdgeThreshold = -1 }, true},
		{"threshold too large", func(c *Config) { c.Layers.EdgeThreshold = 200 }, true},
		{"negative batch size", func(c *Config) { c.Layers.MaxGeometryBatchSize = -5 }, true},
		{"negative portions", func(c *Config) { c.Bench.Portions = -1 }, true},
		{"json logging", func(c *Config) { c.Logging.Format = "json" }, false},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("config.yaml", []byte("bench:\n  frames: 3\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "headless flag",
			setup: func() { *flagHeadless = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Textures.Backend != BackendMemory {
					t.Errorf("expected memory backend, got %s", cfg.Textures.Backend)
				}
			},
			teardown: func() { *flagHeadless = false },
		},
		{
			name: "bench flags",
			setup: func() {
				*flagDeferred = true
				*flagPortions = 42
				*flagFrames = 7
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Bench.Deferred || cfg.Bench.Portions != 42 || cfg.Bench.Frames != 7 {
					t.Errorf("bench flags not applied: %+v", cfg.Bench)
				}
			},
			teardown: func() {
				*flagDeferred = false
				*flagPortions = 0
				*flagFrames = 0
			},
		},
		{
			name:  "split flag",
			setup: func() { *flagSplit = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Layers.SplitLargeGeometry {
					t.Error("expected split_large_geometry with split flag")
				}
			},
			teardown: func() { *flagSplit = false },
		},
		{
			name:  "dump flag",
			setup: func() { *flagDump = "dumps" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Bench.DumpDir != "dumps" {
					t.Errorf("expected dump dir 'dumps', got %q", cfg.Bench.DumpDir)
				}
			},
			teardown: func() { *flagDump = "" },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	// Height should be from file (900) since no flag override
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("textures:\n  backend: d3d\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected unknown backend to be rejected")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Bench.Portions = 77
	cfg.Layers.EntityOffsets = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if loaded.Bench.Portions != 77 || !loaded.Layers.EntityOffsets {
		t.Errorf("saved values lost: %+v %+v", loaded.Bench, loaded.Layers)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("reading config dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only config.yaml after save, found %d entries", len(entries))
	}
}
