// Package main is the entry point for the data-texture batching benchmark.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/bench"
	"github.com/Faultbox/dtx/internal/config"
	"github.com/Faultbox/dtx/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	opts := logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: true,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
		opts.File.MaxSizeMB = cfg.Logging.MaxSizeMB
		opts.File.MaxBackups = cfg.Logging.MaxBackups
	}
	if err := logger.Init(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== dtxbench ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	b, err := bench.New(cfg)
	if err != nil {
		logger.Error("failed to build scene", zap.Error(err))
		os.Exit(1)
	}
	defer b.Close()

	res, err := b.Run()
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}

	if cfg.Bench.DumpDir != "" {
		if _, err := b.DumpTextures(cfg.Bench.DumpDir); err != nil {
			logger.Error("texture dump failed", zap.Error(err))
		}
	}

	for _, s := range res.Layers {
		logger.Info("layer",
			zap.Int("index", s.Index),
			zap.String("kind", s.Kind),
			zap.Int("portions", s.Portions),
			zap.Int("rows", s.PhysicalPortions),
			zap.Int("verts", s.UniqueVerts),
			zap.Int("texture_bytes", s.TextureBytes),
			zap.Int("rejected_object_ids", s.RejectedObjectIDs),
			zap.Int("rejected_texture_size", s.RejectedTextureSize))
	}
	fmt.Printf("frames=%d updates=%d flag_time=%s per_update=%s deferred=%v\n",
		res.Frames, res.Updates, res.FlagTime, res.PerUpdate(), cfg.Bench.Deferred)
}
