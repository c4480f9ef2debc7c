package layer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/engine/datatex"
)

// BatchingLayer packs many distinct portions into one set of textures.
type BatchingLayer struct {
	core

	// pending is the plan prepared by CanCreatePortion for the next
	// CreatePortion call.
	pending *PortionPlan
}

// NewBatchingLayer returns an open layer.
func NewBatchingLayer(cfg Config) *BatchingLayer {
	l := &BatchingLayer{core: newCore(cfg, "batching")}
	l.log.Debug("layer created")
	return l
}

// PlanPortion deduplicates, quantizes and buckets a portion's geometry
// without touching the layer.
func (l *BatchingLayer) PlanPortion(cfg PortionConfig) (*PortionPlan, error) {
	if l.finalized {
		return nil, ErrAlreadyFinalized
	}
	plan, err := l.planner.plan(cfg.GeometryConfig, true)
	if err != nil {
		return nil, fmt.Errorf("planning portion: %w", err)
	}
	plan.portion = cfg
	return plan, nil
}

// Fits reports whether a plan stays within the layer's capacity. A
// rejection is counted in the layer stats. A finalized layer fits nothing.
func (l *BatchingLayer) Fits(plan *PortionPlan) bool {
	if plan == nil {
		return false
	}
	return l.admit(len(plan.Buckets), plan.numVerts, plan.numTriangles, plan.numEdges) == nil
}

// CanCreatePortion plans a portion and reports whether it fits. The plan
// is kept for the next CreatePortion call and replaces any earlier one.
func (l *BatchingLayer) CanCreatePortion(cfg PortionConfig) (bool, error) {
	l.pending = nil
	plan, err := l.PlanPortion(cfg)
	if err != nil {
		return false, err
	}
	l.pending = plan
	return l.Fits(plan), nil
}

// CreatePortion commits the plan prepared by CanCreatePortion. Colors and
// flags are taken from cfg.
func (l *BatchingLayer) CreatePortion(cfg PortionConfig) (int, error) {
	if l.finalized {
		return -1, ErrAlreadyFinalized
	}
	if cfg.Indices == nil {
		return -1, ErrNoIndices
	}
	plan := l.pending
	if plan == nil {
		return -1, ErrNoPlan
	}
	l.pending = nil
	plan.portion = cfg
	return l.CreatePortionFromPlan(plan)
}

// CreatePortionFromPlan appends one physical portion per bucket and
// returns the logical portion id.
func (l *BatchingLayer) CreatePortionFromPlan(plan *PortionPlan) (int, error) {
	if l.finalized {
		return -1, ErrAlreadyFinalized
	}
	if plan == nil {
		return -1, ErrNoPlan
	}
	if err := l.admit(len(plan.Buckets), plan.numVerts, plan.numTriangles, plan.numEdges); err != nil {
		return -1, err
	}

	cfg := plan.portion
	rows := make([]int, 0, len(plan.Buckets))
	for _, bucket := range plan.Buckets {
		row := len(l.physical)
		base := l.buf.appendGeometry(bucket, row)

		l.buf.objects = append(l.buf.objects, datatex.ObjectRow{
			Color:      cfg.Color,
			PickColor:  cfg.PickColor,
			VertexBase: uint32(base),
		})
		l.buf.decodeMatrices = append(l.buf.decodeMatrices, plan.Decode)

		p := physicalPortion{
			vertexBase: base,
			numVerts:   bucket.NumPositions(),
			class:      bucket.WidthClass(),
		}
		if l.cfg.PrecisionPicking {
			p.positions = bucket.Positions
			p.indices = bucket.Indices
			p.decode = plan.Decode
			p.local = identity
		}
		rows = append(rows, l.addRow(p))
	}
	return l.addLogical(rows, plan.LocalAABB), nil
}

// Finalize generates the textures and releases the host-side buffer.
// No portions can be added afterwards.
func (l *BatchingLayer) Finalize() error {
	if l.finalized {
		return ErrAlreadyFinalized
	}
	if err := l.finalizeTextures(true); err != nil {
		return fmt.Errorf("finalizing batching layer %d: %w", l.cfg.Index, err)
	}
	l.pending = nil

	s := l.Stats()
	l.log.Debug("layer finalized",
		zap.Int("portions", s.Portions),
		zap.Int("rows", s.PhysicalPortions),
		zap.Int("verts", s.UniqueVerts),
		zap.Ints("triangles", s.Triangles[:]),
		zap.Int("texture_bytes", s.TextureBytes))
	return nil
}
