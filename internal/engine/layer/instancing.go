package layer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/pkg/geometry"
	"github.com/Faultbox/dtx/pkg/math"
)

// InstanceConfig describes one instance of a registered geometry.
type InstanceConfig struct {
	MeshMatrix math.Mat4
	Color      [4]uint8
	PickColor  [4]uint8
	Flags      EntityFlags
}

// Transparent reports whether the instance color is translucent.
func (c InstanceConfig) Transparent() bool {
	return c.Color[3] < 255
}

// GeometryRange locates one bucket of a registered geometry in the shared
// index textures, for instanced draws.
type GeometryRange struct {
	Class         geometry.WidthClass
	VertexBase    int
	FirstTriangle int
	NumTriangles  int
	FirstEdge     int
	NumEdges      int
}

type instancedGeometry struct {
	plan   *PortionPlan
	ranges []GeometryRange
}

// InstancingLayer stores each geometry once and draws it for many
// instances, each with its own transform and per-object state.
type InstancingLayer struct {
	core

	geometries map[string]*instancedGeometry
}

// NewInstancingLayer returns an open layer.
func NewInstancingLayer(cfg Config) *InstancingLayer {
	l := &InstancingLayer{
		core:       newCore(cfg, "instancing"),
		geometries: make(map[string]*instancedGeometry),
	}
	l.log.Debug("layer created")
	return l
}

// PlanGeometry prepares a geometry without registering it.
func (l *InstancingLayer) PlanGeometry(cfg GeometryConfig) (*PortionPlan, error) {
	if l.finalized {
		return nil, ErrAlreadyFinalized
	}
	plan, err := l.planner.plan(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("planning geometry: %w", err)
	}
	return plan, nil
}

// FitsGeometry reports whether a geometry plan and one instance of it fit.
func (l *InstancingLayer) FitsGeometry(plan *PortionPlan) bool {
	if plan == nil {
		return false
	}
	return l.admit(len(plan.Buckets), plan.numVerts, plan.numTriangles, plan.numEdges) == nil
}

// RegisterGeometry stores a planned geometry under id. Its vertices and
// primitives are appended once, however many instances use it.
func (l *InstancingLayer) RegisterGeometry(id string, plan *PortionPlan) error {
	if l.finalized {
		return ErrAlreadyFinalized
	}
	if _, ok := l.geometries[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	if err := l.admit(0, plan.numVerts, plan.numTriangles, plan.numEdges); err != nil {
		return err
	}

	g := &instancedGeometry{plan: plan}
	for _, bucket := range plan.Buckets {
		class := bucket.WidthClass()
		firstTriangle, firstEdge := l.buf.numPrimitives(class)
		base := l.buf.appendGeometry(bucket, -1)
		lastTriangle, lastEdge := l.buf.numPrimitives(class)
		g.ranges = append(g.ranges, GeometryRange{
			Class:         class,
			VertexBase:    base,
			FirstTriangle: firstTriangle,
			NumTriangles:  lastTriangle - firstTriangle,
			FirstEdge:     firstEdge,
			NumEdges:      lastEdge - firstEdge,
		})
	}
	l.geometries[id] = g
	l.log.Debug("geometry registered",
		zap.String("geometry", id),
		zap.Int("buckets", len(plan.Buckets)),
		zap.Int("verts", plan.numVerts))
	return nil
}

// GeometryRanges returns the draw ranges of a registered geometry.
func (l *InstancingLayer) GeometryRanges(id string) ([]GeometryRange, error) {
	g, ok := l.geometries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGeometry, id)
	}
	return g.ranges, nil
}

// CanCreateInstance reports whether one more instance of a geometry fits.
func (l *InstancingLayer) CanCreateInstance(geometryID string) bool {
	g, ok := l.geometries[geometryID]
	if !ok {
		return false
	}
	return l.admit(len(g.ranges), 0, 0, 0) == nil
}

// CreateInstance adds an instance of a registered geometry and returns
// its portion id. A geometry split into K buckets takes K rows.
func (l *InstancingLayer) CreateInstance(geometryID string, cfg InstanceConfig) (int, error) {
	if l.finalized {
		return -1, ErrAlreadyFinalized
	}
	g, ok := l.geometries[geometryID]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownGeometry, geometryID)
	}
	if err := l.admit(len(g.ranges), 0, 0, 0); err != nil {
		return -1, err
	}

	normal := cfg.MeshMatrix.NormalMatrix()
	rows := make([]int, 0, len(g.ranges))
	for i, r := range g.ranges {
		l.buf.objects = append(l.buf.objects, datatex.ObjectRow{
			Color:      cfg.Color,
			PickColor:  cfg.PickColor,
			VertexBase: uint32(r.VertexBase),
		})
		l.buf.decodeMatrices = append(l.buf.decodeMatrices, g.plan.Decode)
		l.buf.meshMatrices = append(l.buf.meshMatrices, cfg.MeshMatrix)
		l.buf.normalMatrices = append(l.buf.normalMatrices, normal)

		p := physicalPortion{
			vertexBase: r.VertexBase,
			numVerts:   g.plan.Buckets[i].NumPositions(),
			class:      r.Class,
		}
		if l.cfg.PrecisionPicking {
			p.positions = g.plan.Buckets[i].Positions
			p.indices = g.plan.Buckets[i].Indices
			p.decode = g.plan.Decode
			p.local = cfg.MeshMatrix
		}
		rows = append(rows, l.addRow(p))
	}
	return l.addLogical(rows, g.plan.LocalAABB.Transform(cfg.MeshMatrix)), nil
}

// Finalize generates the textures and releases the host-side buffer.
func (l *InstancingLayer) Finalize() error {
	if l.finalized {
		return ErrAlreadyFinalized
	}
	if err := l.finalizeTextures(false); err != nil {
		return fmt.Errorf("finalizing instancing layer %d: %w", l.cfg.Index, err)
	}
	s := l.Stats()
	l.log.Debug("layer finalized",
		zap.Int("geometries", len(l.geometries)),
		zap.Int("instances", s.Portions),
		zap.Int("verts", s.UniqueVerts),
		zap.Int("texture_bytes", s.TextureBytes))
	return nil
}
