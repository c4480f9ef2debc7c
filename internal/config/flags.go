package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagHeadless = flag.Bool("headless", false, "Use the in-memory texture backend")
	flagDeferred = flag.Bool("deferred", false, "Batch flag updates per frame")
	flagSplit    = flag.Bool("split", false, "Split large geometries into 16-bit buckets")
	flagPortions = flag.Int("portions", 0, "Number of batched portions")
	flagFrames   = flag.Int("frames", 0, "Number of frames to run")
	flagWidth    = flag.Int("width", 0, "Window width")
	flagHeight   = flag.Int("height", 0, "Window height")
	flagDump     = flag.String("dump", "", "Directory to dump colors-and-flags textures into")
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
	if *flagHeadless {
		cfg.Textures.Backend = BackendMemory
	}
	if *flagDeferred {
		cfg.Bench.Deferred = true
	}
	if *flagSplit {
		cfg.Layers.SplitLargeGeometry = true
	}
	if *flagPortions > 0 {
		cfg.Bench.Portions = *flagPortions
	}
	if *flagFrames > 0 {
		cfg.Bench.Frames = *flagFrames
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagDump != "" {
		cfg.Bench.DumpDir = *flagDump
	}
}
