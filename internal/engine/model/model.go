// Package model groups layers into one scene object. It routes portions
// and instances to layers, opening a new layer whenever the current one
// is full, and owns the camera and model matrix textures the layers share.
package model

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/internal/engine/layer"
	"github.com/Faultbox/dtx/internal/engine/picking"
	"github.com/Faultbox/dtx/internal/logger"
	"github.com/Faultbox/dtx/pkg/math"
)

// Config configures a model and every layer it creates.
type Config struct {
	Generator *datatex.Generator
	Logger    *zap.Logger

	// Origin is the relative-to-center offset shared by all layers.
	Origin [3]float32

	SplitLargeGeometry bool
	BuildEdgeIndices   bool
	EdgeThreshold      float32
	PrecisionPicking   bool
	EntityOffsets      bool
	// MaxGeometryBatchSize caps the vertices of one batching layer; 0
	// leaves only the texture limits.
	MaxGeometryBatchSize int
}

// Camera is the view a frame is drawn from.
type Camera interface {
	ViewMatrix() math.Mat4
	ProjMatrix() math.Mat4
	// Version changes whenever either matrix does.
	Version() uint64
}

// portionLayer is the part of a layer the model drives after creation.
type portionLayer interface {
	Finalize() error
	IsEmpty() bool
	Destroy() error
	Stats() layer.Stats
	AABB() math.AABB

	InitFlags(id int, flags layer.EntityFlags, transparent bool) error
	FlushInitFlags() error
	BeginDeferredFlags()
	CommitDeferredFlags() error

	SetVisible(id int, flags layer.EntityFlags, transparent bool) error
	SetHighlighted(id int, flags layer.EntityFlags, transparent bool) error
	SetXRayed(id int, flags layer.EntityFlags, transparent bool) error
	SetSelected(id int, flags layer.EntityFlags, transparent bool) error
	SetEdges(id int, flags layer.EntityFlags, transparent bool) error
	SetCulled(id int, flags layer.EntityFlags, transparent bool) error
	SetPickable(id int, flags layer.EntityFlags, transparent bool) error
	SetTransparent(id int, flags layer.EntityFlags, transparent bool) error
	SetClippable(id int, flags layer.EntityFlags) error
	SetCollidable(id int, flags layer.EntityFlags) error
	SetColor(id int, color [4]uint8) error
	SetOffset(id int, offset [3]float32) error

	PrecisionRayPickSurface(id int, ray picking.Ray) (layer.PickResult, bool, error)
	RayPickAABB(id int, ray picking.Ray) (float32, bool, error)
}

// entity is what a model-level id refers to.
type entity struct {
	layer portionLayer
	local int

	flags       layer.EntityFlags
	transparent bool
}

// Model owns a list of layers and the textures they share.
type Model struct {
	cfg Config
	log *zap.Logger

	world    math.Mat4
	counters layer.Counters

	cameraTex     *datatex.MatrixTexture
	modelTex      *datatex.MatrixTexture
	cameraVersion uint64

	batching   []*layer.BatchingLayer
	instancing []*layer.InstancingLayer
	geometries map[string]*layer.InstancingLayer
	plans      map[string]*layer.PortionPlan

	entities  []entity
	finalized bool
}

// New returns an empty model with an identity world matrix.
func New(cfg Config) *Model {
	log := cfg.Logger
	if log == nil {
		log = logger.Named("model")
	}
	return &Model{
		cfg:        cfg,
		log:        log,
		world:      math.Identity(),
		geometries: make(map[string]*layer.InstancingLayer),
		plans:      make(map[string]*layer.PortionPlan),
	}
}

// CameraTexture returns the shared camera texture, creating it on first use.
func (m *Model) CameraTexture() (*datatex.MatrixTexture, error) {
	if m.cameraTex == nil {
		tex, err := m.cfg.Generator.CameraMatrices()
		if err != nil {
			return nil, fmt.Errorf("creating camera texture: %w", err)
		}
		m.cameraTex = tex
		m.cameraVersion = 0
	}
	return m.cameraTex, nil
}

// ModelTexture returns the shared model texture, creating it on first use.
func (m *Model) ModelTexture() (*datatex.MatrixTexture, error) {
	if m.modelTex == nil {
		tex, err := m.cfg.Generator.ModelMatrices()
		if err != nil {
			return nil, fmt.Errorf("creating model texture: %w", err)
		}
		m.modelTex = tex
		if err := m.writeWorld(); err != nil {
			return nil, err
		}
	}
	return m.modelTex, nil
}

// WorldMatrix returns the model's world transform.
func (m *Model) WorldMatrix() math.Mat4 { return m.world }

// Counters returns the aggregate tallies of every layer.
func (m *Model) Counters() *layer.Counters { return &m.counters }

// Skip reports whether no layer of the model has anything for a pass.
func (m *Model) Skip(pass layer.RenderPass) bool { return m.counters.Skip(pass) }

// SetWorldMatrix moves the whole model.
func (m *Model) SetWorldMatrix(world math.Mat4) error {
	m.world = world
	if m.modelTex == nil {
		return nil
	}
	return m.writeWorld()
}

func (m *Model) writeWorld() error {
	if err := m.modelTex.Update(m.world, m.world.NormalMatrix()); err != nil {
		return fmt.Errorf("updating model texture: %w", err)
	}
	return nil
}

// OnFrame refreshes the camera texture if the camera changed since the
// last frame. It reports whether an upload happened.
func (m *Model) OnFrame(cam Camera) (bool, error) {
	if m.cameraTex == nil || cam.Version() == m.cameraVersion {
		return false, nil
	}
	view := cam.ViewMatrix()
	if err := m.cameraTex.Update(view, view.NormalMatrix(), cam.ProjMatrix()); err != nil {
		return false, fmt.Errorf("updating camera texture: %w", err)
	}
	m.cameraVersion = cam.Version()
	return true, nil
}

func (m *Model) layerConfig() layer.Config {
	return layer.Config{
		Generator:          m.cfg.Generator,
		Context:            m,
		Logger:             m.log,
		Index:              len(m.batching) + len(m.instancing),
		Origin:             m.cfg.Origin,
		SplitLargeGeometry: m.cfg.SplitLargeGeometry,
		BuildEdgeIndices:   m.cfg.BuildEdgeIndices,
		EdgeThreshold:      m.cfg.EdgeThreshold,
		PrecisionPicking:   m.cfg.PrecisionPicking,
		EntityOffsets:      m.cfg.EntityOffsets,
	}
}

func (m *Model) addEntity(l portionLayer, local int, flags layer.EntityFlags, transparent bool) int {
	m.entities = append(m.entities, entity{
		layer:       l,
		local:       local,
		flags:       flags,
		transparent: transparent,
	})
	return len(m.entities) - 1
}

// full reports whether l should be closed before taking plan.
func (m *Model) full(l *layer.BatchingLayer, plan *layer.PortionPlan) bool {
	if limit := m.cfg.MaxGeometryBatchSize; limit > 0 && !l.IsEmpty() &&
		l.NumUniqueVerts()+plan.NumUniqueVerts() > limit {
		return true
	}
	return !l.Fits(plan)
}

// CreatePortion adds a batched portion to the current layer, or to a new
// one if it does not fit. It returns the model-level id.
func (m *Model) CreatePortion(cfg layer.PortionConfig) (int, error) {
	if m.finalized {
		return -1, layer.ErrAlreadyFinalized
	}
	if len(m.batching) == 0 {
		m.batching = append(m.batching, layer.NewBatchingLayer(m.layerConfig()))
	}
	l := m.batching[len(m.batching)-1]

	plan, err := l.PlanPortion(cfg)
	if err != nil {
		return -1, err
	}
	if m.full(l, plan) {
		next := layer.NewBatchingLayer(m.layerConfig())
		if !next.Fits(plan) {
			return -1, fmt.Errorf("%w: %d unique vertices", layer.ErrNoRoom, plan.NumUniqueVerts())
		}
		m.log.Debug("opening batching layer",
			zap.Int("layer", len(m.batching)),
			zap.Int("previous_portions", l.NumPortions()))
		m.batching = append(m.batching, next)
		l = next
	}

	local, err := l.CreatePortionFromPlan(plan)
	if err != nil {
		return -1, err
	}
	return m.addEntity(l, local, cfg.Flags, cfg.Transparent()), nil
}

// RegisterGeometry stores a geometry for instancing under id.
func (m *Model) RegisterGeometry(id string, g layer.GeometryConfig) error {
	if m.finalized {
		return layer.ErrAlreadyFinalized
	}
	if _, ok := m.geometries[id]; ok {
		return fmt.Errorf("%w: %q", layer.ErrDuplicateID, id)
	}
	if len(m.instancing) == 0 {
		m.instancing = append(m.instancing, layer.NewInstancingLayer(m.layerConfig()))
	}
	l := m.instancing[len(m.instancing)-1]

	plan, err := l.PlanGeometry(g)
	if err != nil {
		return err
	}
	if !l.FitsGeometry(plan) {
		next := layer.NewInstancingLayer(m.layerConfig())
		if !next.FitsGeometry(plan) {
			return fmt.Errorf("%w: geometry %q", layer.ErrNoRoom, id)
		}
		m.instancing = append(m.instancing, next)
		l = next
	}
	if err := l.RegisterGeometry(id, plan); err != nil {
		return err
	}
	m.geometries[id] = l
	m.plans[id] = plan
	return nil
}

// CreateInstance adds an instance of a registered geometry. When the
// geometry's layer is out of rows, the geometry is registered again in a
// new instancing layer and later instances go there.
func (m *Model) CreateInstance(geometryID string, cfg layer.InstanceConfig) (int, error) {
	if m.finalized {
		return -1, layer.ErrAlreadyFinalized
	}
	l, ok := m.geometries[geometryID]
	if !ok {
		return -1, fmt.Errorf("%w: %q", layer.ErrUnknownGeometry, geometryID)
	}
	if !l.CanCreateInstance(geometryID) {
		next, err := m.reopenGeometry(geometryID)
		if err != nil {
			return -1, err
		}
		l = next
	}
	local, err := l.CreateInstance(geometryID, cfg)
	if err != nil {
		return -1, err
	}
	return m.addEntity(l, local, cfg.Flags, cfg.Transparent()), nil
}

// reopenGeometry moves a geometry to a fresh instancing layer.
func (m *Model) reopenGeometry(id string) (*layer.InstancingLayer, error) {
	plan := m.plans[id]
	next := layer.NewInstancingLayer(m.layerConfig())
	if !next.FitsGeometry(plan) {
		return nil, fmt.Errorf("%w: geometry %q", layer.ErrNoRoom, id)
	}
	if err := next.RegisterGeometry(id, plan); err != nil {
		return nil, err
	}
	m.log.Debug("opening instancing layer",
		zap.String("geometry", id),
		zap.Int("layer", len(m.instancing)))
	m.instancing = append(m.instancing, next)
	m.geometries[id] = next
	return next, nil
}

// Finalize finalizes every non-empty layer and applies the initial flags
// of every entity with one upload per layer.
func (m *Model) Finalize() error {
	if m.finalized {
		return layer.ErrAlreadyFinalized
	}

	var kept []*layer.BatchingLayer
	for _, l := range m.batching {
		if l.IsEmpty() {
			continue
		}
		if err := l.Finalize(); err != nil {
			return err
		}
		kept = append(kept, l)
	}
	m.batching = kept

	var keptInstancing []*layer.InstancingLayer
	for _, l := range m.instancing {
		if l.IsEmpty() {
			m.log.Warn("instancing layer has geometries but no instances", zap.Int("geometries", len(m.geometries)))
			continue
		}
		if err := l.Finalize(); err != nil {
			return err
		}
		keptInstancing = append(keptInstancing, l)
	}
	m.instancing = keptInstancing

	for id, e := range m.entities {
		if err := e.layer.InitFlags(e.local, e.flags, e.transparent); err != nil {
			return fmt.Errorf("initial flags of entity %d: %w", id, err)
		}
	}
	for _, l := range m.layers() {
		if err := l.FlushInitFlags(); err != nil {
			return err
		}
	}
	m.finalized = true

	m.log.Info("model finalized",
		zap.Int("entities", len(m.entities)),
		zap.Int("batching_layers", len(m.batching)),
		zap.Int("instancing_layers", len(m.instancing)))
	return nil
}

func (m *Model) layers() []portionLayer {
	out := make([]portionLayer, 0, len(m.batching)+len(m.instancing))
	for _, l := range m.batching {
		out = append(out, l)
	}
	for _, l := range m.instancing {
		out = append(out, l)
	}
	return out
}

// Finalized reports whether Finalize has run.
func (m *Model) Finalized() bool { return m.finalized }

// NumEntities returns the number of portions and instances.
func (m *Model) NumEntities() int { return len(m.entities) }

// BatchingLayers returns the batching layers in creation order.
func (m *Model) BatchingLayers() []*layer.BatchingLayer { return m.batching }

// InstancingLayers returns the instancing layers in creation order.
func (m *Model) InstancingLayers() []*layer.InstancingLayer { return m.instancing }

// BeginDeferredFlags starts a transaction on every layer.
func (m *Model) BeginDeferredFlags() {
	for _, l := range m.layers() {
		l.BeginDeferredFlags()
	}
}

// CommitDeferredFlags ends the transaction on every layer.
func (m *Model) CommitDeferredFlags() error {
	var err error
	for _, l := range m.layers() {
		err = multierr.Append(err, l.CommitDeferredFlags())
	}
	return err
}

// Stats returns the statistics of every layer.
func (m *Model) Stats() []layer.Stats {
	ls := m.layers()
	out := make([]layer.Stats, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Stats())
	}
	return out
}

// AABB returns the world-space bounds of every layer.
func (m *Model) AABB() math.AABB {
	box := math.EmptyAABB()
	for _, l := range m.layers() {
		box.Expand(l.AABB())
	}
	return box
}

// Destroy releases every layer and the shared textures.
func (m *Model) Destroy() error {
	var err error
	for _, l := range m.layers() {
		err = multierr.Append(err, l.Destroy())
	}
	if m.cameraTex != nil {
		err = multierr.Append(err, m.cameraTex.Destroy())
	}
	if m.modelTex != nil {
		err = multierr.Append(err, m.modelTex.Destroy())
	}
	m.batching, m.instancing = nil, nil
	m.cameraTex, m.modelTex = nil, nil
	m.log.Debug("model destroyed")
	return err
}
