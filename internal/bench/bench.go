// Package bench builds a synthetic scene out of batched portions and
// instances, then times per-frame flag updates against it.
package bench

import (
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/config"
	"github.com/Faultbox/dtx/internal/engine/camera"
	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/internal/engine/debug"
	"github.com/Faultbox/dtx/internal/engine/input"
	"github.com/Faultbox/dtx/internal/engine/layer"
	"github.com/Faultbox/dtx/internal/engine/model"
	"github.com/Faultbox/dtx/internal/engine/texture"
	"github.com/Faultbox/dtx/internal/engine/window"
	"github.com/Faultbox/dtx/internal/logger"
	"github.com/Faultbox/dtx/pkg/math"
)

// Result summarizes a run.
type Result struct {
	Frames        int
	Updates       int
	CameraUploads int
	// FlagTime is the time spent in flag updates, commits included.
	FlagTime time.Duration
	Elapsed  time.Duration
	Layers   []layer.Stats
}

// PerUpdate returns the mean cost of one flag update.
func (r Result) PerUpdate() time.Duration {
	if r.Updates == 0 {
		return 0
	}
	return r.FlagTime / time.Duration(r.Updates)
}

// Bench is one benchmark run.
type Bench struct {
	cfg    *config.Config
	log    *zap.Logger
	window *window.Window
	input  *input.Input
	model  *model.Model
	camera *camera.OrbitCamera
	rng    *rand.Rand
}

// New creates the texture backend, builds the scene and finalizes it.
func New(cfg *config.Config) (*Bench, error) {
	b := &Bench{
		cfg: cfg,
		log: logger.Named("bench"),
		rng: rand.New(rand.NewPCG(uint64(cfg.Bench.Seed), 0)),
	}

	backend, err := b.backend()
	if err != nil {
		return nil, err
	}

	b.model = model.New(model.Config{
		Generator:            datatex.NewGenerator(backend, logger.Named("datatex")),
		Logger:               logger.Named("model"),
		SplitLargeGeometry:   cfg.Layers.SplitLargeGeometry,
		BuildEdgeIndices:     cfg.Layers.BuildEdgeIndices,
		EdgeThreshold:        cfg.Layers.EdgeThreshold,
		PrecisionPicking:     cfg.Layers.PrecisionPicking,
		EntityOffsets:        cfg.Layers.EntityOffsets,
		MaxGeometryBatchSize: cfg.Layers.MaxGeometryBatchSize,
	})

	start := time.Now()
	if err := b.buildScene(); err != nil {
		b.Close()
		return nil, fmt.Errorf("building scene: %w", err)
	}
	if err := b.model.Finalize(); err != nil {
		b.Close()
		return nil, fmt.Errorf("finalizing scene: %w", err)
	}

	b.camera = camera.NewOrbitCamera(float32(cfg.Window.Width) / float32(cfg.Window.Height))
	b.camera.FitToBounds(b.model.AABB())

	b.log.Info("scene ready",
		zap.Int("entities", b.model.NumEntities()),
		zap.Int("batching_layers", len(b.model.BatchingLayers())),
		zap.Int("instancing_layers", len(b.model.InstancingLayers())),
		zap.Duration("build", time.Since(start)))
	return b, nil
}

func (b *Bench) backend() (texture.Backend, error) {
	switch b.cfg.Textures.Backend {
	case config.BackendMemory:
		return texture.NewMemoryBackend(), nil
	case config.BackendGL:
		w, err := window.New(window.Config{
			Title:  "dtxbench",
			Width:  b.cfg.Window.Width,
			Height: b.cfg.Window.Height,
			Hidden: b.cfg.Window.Hidden,
			VSync:  b.cfg.Window.VSync,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create window: %w", err)
		}
		b.window = w
		b.input = input.New()
		return texture.NewGLBackend(logger.Named("texture")), nil
	}
	return nil, fmt.Errorf("unknown texture backend %q", b.cfg.Textures.Backend)
}

func (b *Bench) buildScene() error {
	bc := b.cfg.Bench
	for i := 0; i < bc.Portions; i++ {
		g := gridMesh(bc.VerticesPerPortion, float32(i))
		mesh := gridPlacement(i, bc.Portions, 1.5)
		g.MeshMatrix = &mesh
		if _, err := b.model.CreatePortion(layer.PortionConfig{
			GeometryConfig: g,
			Color:          randomColor(b.rng),
			PickColor:      pickColor(i),
			Flags:          layer.FlagVisible | layer.FlagPickable | layer.FlagClippable,
		}); err != nil {
			return fmt.Errorf("portion %d: %w", i, err)
		}
	}

	if bc.Instances == 0 {
		return nil
	}
	if err := b.model.RegisterGeometry("cube", cubeMesh()); err != nil {
		return err
	}
	for i := 0; i < bc.Instances; i++ {
		mesh := math.Translate(0, -2, 0).Mul(gridPlacement(i, bc.Instances, 2))
		if _, err := b.model.CreateInstance("cube", layer.InstanceConfig{
			MeshMatrix: mesh,
			Color:      randomColor(b.rng),
			PickColor:  pickColor(bc.Portions + i),
			Flags:      layer.FlagVisible | layer.FlagPickable,
		}); err != nil {
			return fmt.Errorf("instance %d: %w", i, err)
		}
	}
	return nil
}

// pickColor encodes an entity id the way a color pick pass reads it back.
func pickColor(id int) [4]uint8 {
	id++
	return [4]uint8{uint8(id), uint8(id >> 8), uint8(id >> 16), 255}
}

// Model returns the scene.
func (b *Bench) Model() *model.Model { return b.model }

// Run orbits the camera and applies random flag updates every frame.
func (b *Bench) Run() (Result, error) {
	bc := b.cfg.Bench
	res := Result{}
	start := time.Now()

	b.log.Info("starting run",
		zap.Int("frames", bc.Frames),
		zap.Int("updates_per_frame", bc.UpdatesPerFrame),
		zap.Bool("deferred", bc.Deferred),
		zap.String("backend", b.cfg.Textures.Backend))

	for frame := 0; frame < bc.Frames; frame++ {
		if b.input != nil {
			if b.input.Update() {
				break
			}
			input.Apply(b.input.Events(), b.camera)
		}
		if bc.Budget > 0 && time.Since(start) > bc.Budget {
			b.log.Warn("budget exceeded", zap.Int("frame", frame), zap.Duration("budget", bc.Budget))
			break
		}

		b.camera.HandleDrag(2, 0)
		uploaded, err := b.model.OnFrame(b.camera)
		if err != nil {
			return res, err
		}
		if uploaded {
			res.CameraUploads++
		}

		t0 := time.Now()
		n, err := b.updateFlags(bc.UpdatesPerFrame, bc.Deferred)
		if err != nil {
			return res, fmt.Errorf("frame %d: %w", frame, err)
		}
		if b.window != nil {
			b.window.Finish()
		}
		res.FlagTime += time.Since(t0)
		res.Updates += n
		res.Frames++

		if b.window != nil {
			b.window.SwapBuffers()
		}
	}

	res.Elapsed = time.Since(start)
	res.Layers = b.model.Stats()
	b.log.Info("run finished",
		zap.Int("frames", res.Frames),
		zap.Int("updates", res.Updates),
		zap.Duration("flag_time", res.FlagTime),
		zap.Duration("per_update", res.PerUpdate()),
		zap.Int("camera_uploads", res.CameraUploads))
	return res, nil
}

// updateFlags toggles a random state on n random entities.
func (b *Bench) updateFlags(n int, deferred bool) (int, error) {
	total := b.model.NumEntities()
	if total == 0 {
		return 0, nil
	}
	if deferred {
		b.model.BeginDeferredFlags()
	}
	for i := 0; i < n; i++ {
		id := b.rng.IntN(total)
		flags, _, err := b.model.Flags(id)
		if err != nil {
			return i, err
		}
		switch b.rng.IntN(4) {
		case 0:
			err = b.model.SetSelected(id, !flags.Has(layer.FlagSelected))
		case 1:
			err = b.model.SetHighlighted(id, !flags.Has(layer.FlagHighlighted))
		case 2:
			err = b.model.SetXRayed(id, !flags.Has(layer.FlagXRayed))
		default:
			err = b.model.SetColor(id, randomColor(b.rng))
		}
		if err != nil {
			return i, err
		}
	}
	if deferred {
		if err := b.model.CommitDeferredFlags(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// DumpTextures writes the colors-and-flags texture of every layer into
// dir and returns the written paths.
func (b *Bench) DumpTextures(dir string) ([]string, error) {
	dump := debug.NewTextureDump(dir, "dtx")
	var paths []string
	write := func(kind string, index int, cf *datatex.ColorsAndFlags) error {
		if cf == nil {
			return nil
		}
		path, err := dump.DumpRGBA8(kind, index, cf.Snapshot(), datatex.NumObjectColumns, cf.Rows())
		if err != nil {
			return fmt.Errorf("dumping %s layer %d: %w", kind, index, err)
		}
		paths = append(paths, path)
		return nil
	}
	for i, l := range b.model.BatchingLayers() {
		if err := write("batching", i, l.State().ColorsAndFlags); err != nil {
			return paths, err
		}
	}
	for i, l := range b.model.InstancingLayers() {
		if err := write("instancing", i, l.State().ColorsAndFlags); err != nil {
			return paths, err
		}
	}
	b.log.Info("dumped textures", zap.String("dir", dir), zap.Int("files", len(paths)))
	return paths, nil
}

// Close releases the scene and the window.
func (b *Bench) Close() {
	if b.model != nil {
		if err := b.model.Destroy(); err != nil {
			b.log.Warn("releasing scene", zap.Error(err))
		}
	}
	if b.window != nil {
		b.window.Close()
	}
}
