package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fileOptions(level, format, path string) Options {
	return Options{
		Level:  level,
		Format: format,
		File: FileConfig{
			Path:       path,
			MaxSizeMB:  1, // smallest lumberjack allows
			MaxBackups: 2,
			MaxAgeDays: 1,
		},
	}
}

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "dtx.log")

	log, err := New(fileOptions("debug", FormatConsole, logFile))
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}

	// ~15000 lines of ~250 bytes exceed 1MB.
	sugar := log.Sugar()
	longMessage := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		sugar.Infof("flag update %d: %s", i, longMessage)
	}
	_ = log.Sync()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}

	rotated := 0
	for _, f := range files {
		name := f.Name()
		if name == "dtx.log" || !strings.HasPrefix(name, "dtx") {
			continue
		}
		rotated++
		// dtx-YYYY-MM-DDTHH-MM-SS.SSS.log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s doesn't have expected timestamp format", name)
		}
	}
	if rotated == 0 {
		t.Error("no rotated files found")
	}
}

func TestLogLevels(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	saved := Log
	defer func() { Log = saved }()

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(dir, tt.level+".log")
			if err := Init(fileOptions(tt.level, FormatConsole, logFile)); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			logContent := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(logContent, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestJSONFormatWithLayerFields(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "dtx.json")
	log, err := New(fileOptions("debug", FormatJSON, logFile))
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}

	ForLayer(log.Named("model"), "batching", 3).Debug("layer finalized")
	_ = log.Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, content)
	}
	if entry["msg"] != "layer finalized" || entry["logger"] != "model" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["kind"] != "batching" || entry["layer"] != float64(3) {
		t.Errorf("layer fields missing: %v", entry)
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("expected uncolored level, got %v", entry["level"])
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := New(Options{Console: true, Format: "xml"})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/test.log")

	if cfg.Path != "/tmp/test.log" {
		t.Errorf("expected path /tmp/test.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 50 || cfg.MaxBackups != 3 || cfg.MaxAgeDays != 7 {
		t.Errorf("unexpected rotation defaults: %+v", cfg)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"WARN", "warn"},
		{"error", "error"},
		{"", "info"},
		{"verbose", "info"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNopBeforeInit(t *testing.T) {
	saved := Log
	Log = nil
	defer func() { Log = saved }()

	if L() == nil {
		t.Fatal("L() returned nil before Init")
	}
	// Must not panic.
	ForLayer(nil, "instancing", 0).Debug("ignored")
	Info("ignored")

	log, err := New(Options{})
	if err != nil || log == nil {
		t.Fatalf("expected no-op logger without sinks, got %v, %v", log, err)
	}
}
