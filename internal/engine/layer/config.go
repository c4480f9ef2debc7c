package layer

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/internal/logger"
	"github.com/Faultbox/dtx/pkg/math"
)

// Capacity limits of one layer.
const (
	// MaxObjects is the portion-id space: ids are 12 bits wide.
	MaxObjects = 1 << 12
	// MaxTexels bounds unique vertices and aligned primitives per class.
	MaxTexels = datatex.MaxTexels
)

var (
	ErrAlreadyFinalized = errors.New("layer already finalized")
	ErrNotFinalized     = errors.New("layer not finalized")
	ErrUnknownPortion   = errors.New("unknown portion")
	ErrNoPlan           = errors.New("no portion plan pending")
	ErrNoRoom           = errors.New("portion does not fit in layer")
	ErrOffsetsDisabled  = errors.New("entity offsets are disabled")
	ErrUnknownGeometry  = errors.New("unknown geometry")
	ErrDuplicateID      = errors.New("geometry id already registered")
)

// ModelContext is what a layer needs from the model that owns it.
type ModelContext interface {
	// CameraTexture and ModelTexture return the textures shared by every
	// layer of the model, creating them on first use.
	CameraTexture() (*datatex.MatrixTexture, error)
	ModelTexture() (*datatex.MatrixTexture, error)
	WorldMatrix() math.Mat4
	// Counters is the model aggregate every layer mirrors its tallies into.
	Counters() *Counters
}

// Config configures a layer.
type Config struct {
	Generator *datatex.Generator
	// Context defaults to a standalone context with an identity world
	// matrix and no shared textures.
	Context ModelContext
	Logger  *zap.Logger

	// Index identifies the layer in logs and stats.
	Index int
	// Origin is the relative-to-center offset of the layer.
	Origin [3]float32

	// SplitLargeGeometry splits geometries over 65536 unique positions
	// into 16-bit buckets instead of routing them to the 32-bit class.
	SplitLargeGeometry bool
	// BuildEdgeIndices extracts feature edges when a geometry has none.
	BuildEdgeIndices bool
	// EdgeThreshold is the extraction angle in degrees.
	EdgeThreshold float32
	// PrecisionPicking keeps quantized geometry on the host for exact
	// ray picks.
	PrecisionPicking bool
	// EntityOffsets enables SetOffset.
	EntityOffsets bool
}

type standaloneContext struct {
	counters Counters
}

func (c *standaloneContext) CameraTexture() (*datatex.MatrixTexture, error) { return nil, nil }
func (c *standaloneContext) ModelTexture() (*datatex.MatrixTexture, error)  { return nil, nil }
func (c *standaloneContext) WorldMatrix() math.Mat4                         { return math.Identity() }
func (c *standaloneContext) Counters() *Counters                            { return &c.counters }

func (cfg Config) withDefaults(kind string) Config {
	if cfg.Context == nil {
		cfg.Context = &standaloneContext{}
	}
	cfg.Logger = logger.ForLayer(cfg.Logger, kind, cfg.Index)
	return cfg
}
