package layer

import (
	"errors"
	"fmt"

	"github.com/Faultbox/dtx/pkg/geometry"
	"github.com/Faultbox/dtx/pkg/math"
)

var (
	ErrNoIndices    = errors.New("portion has no indices")
	ErrNoPositions  = errors.New("portion has no positions")
	ErrDecodeMatrix = errors.New("compressed positions need a decode matrix")
)

// GeometryConfig describes triangle geometry in either float or quantized
// form.
type GeometryConfig struct {
	// Positions are local-space floats, quantized per geometry.
	Positions []float32
	// PositionsCompressed are quantized positions, decoded by DecodeMatrix.
	PositionsCompressed []uint16
	DecodeMatrix        *math.Mat4

	// MeshMatrix is baked into batched portions. Instancing ignores it.
	MeshMatrix *math.Mat4

	Indices []uint32
	// EdgeIndices default to feature edges extracted from Indices when
	// the layer is configured to build them.
	EdgeIndices []uint32
}

// PortionConfig describes one batched portion.
type PortionConfig struct {
	GeometryConfig

	// Color is RGBA; alpha below 255 makes the portion transparent.
	Color     [4]uint8
	PickColor [4]uint8
	// Flags is the initial state applied by InitFlags.
	Flags EntityFlags
}

// Transparent reports whether the portion color is translucent.
func (c PortionConfig) Transparent() bool {
	return c.Color[3] < 255
}

// PortionPlan is a prepared geometry: deduplicated, quantized and split
// into width-class buckets. A plan is independent of any layer, so it can
// be checked against several before it is committed to one.
type PortionPlan struct {
	Buckets []geometry.Bucket[uint16]
	Decode  math.Mat4
	// LocalAABB bounds the decoded positions.
	LocalAABB math.AABB

	numVerts     int
	numTriangles int
	numEdges     int

	portion PortionConfig
}

// NumBuckets returns the number of physical portions the plan creates.
func (p *PortionPlan) NumBuckets() int { return len(p.Buckets) }

// NumUniqueVerts returns the vertex count over all buckets.
func (p *PortionPlan) NumUniqueVerts() int { return p.numVerts }

// WidthClasses returns the class of every bucket, in order.
func (p *PortionPlan) WidthClasses() []geometry.WidthClass {
	out := make([]geometry.WidthClass, len(p.Buckets))
	for i, b := range p.Buckets {
		out[i] = b.WidthClass()
	}
	return out
}

// planner prepares geometry. It owns the deduplication scratch buffers.
type planner struct {
	uniq          *geometry.Uniquifier
	splitLarge    bool
	buildEdges    bool
	edgeThreshold float32
}

func newPlanner(cfg Config) *planner {
	threshold := cfg.EdgeThreshold
	if threshold <= 0 {
		threshold = geometry.DefaultEdgeThreshold
	}
	return &planner{
		uniq:          geometry.NewUniquifier(),
		splitLarge:    cfg.SplitLargeGeometry,
		buildEdges:    cfg.BuildEdgeIndices,
		edgeThreshold: threshold,
	}
}

// quantize returns quantized positions and their decode matrix, with the
// mesh matrix folded in when bake is set.
func quantize(g GeometryConfig, bake bool) ([]uint16, math.Mat4, error) {
	switch {
	case g.PositionsCompressed != nil:
		if g.DecodeMatrix == nil {
			return nil, math.Mat4{}, ErrDecodeMatrix
		}
		decode := *g.DecodeMatrix
		if bake && g.MeshMatrix != nil {
			decode = g.MeshMatrix.Mul(decode)
		}
		return g.PositionsCompressed, decode, nil

	case len(g.Positions) > 0:
		positions := g.Positions
		if bake && g.MeshMatrix != nil {
			positions = make([]float32, len(g.Positions))
			for i := 0; i+2 < len(g.Positions); i += 3 {
				p := g.MeshMatrix.TransformPoint([3]float32{g.Positions[i], g.Positions[i+1], g.Positions[i+2]})
				copy(positions[i:i+3], p[:])
			}
		}
		q, decode := geometry.QuantizePositions(positions)
		return q, decode, nil
	}
	return nil, math.Mat4{}, ErrNoPositions
}

// bucketBits picks the split width for a deduplicated geometry, or 0 for
// no split.
func (p *planner) bucketBits(numUnique int) int {
	switch {
	case numUnique <= geometry.MaxPositions8Bits:
		return 0
	case numUnique <= geometry.MaxPositions16Bits:
		return 8
	case p.splitLarge:
		return 16
	}
	return 0
}

func (p *planner) plan(g GeometryConfig, bake bool) (*PortionPlan, error) {
	if len(g.Indices) == 0 {
		return nil, ErrNoIndices
	}
	positions, decode, err := quantize(g, bake)
	if err != nil {
		return nil, err
	}

	edges := g.EdgeIndices
	if edges == nil && p.buildEdges {
		if edges, err = geometry.BuildEdgeIndices(p.uniq, positions, g.Indices, decode, p.edgeThreshold); err != nil {
			return nil, fmt.Errorf("building edges: %w", err)
		}
	}

	unique, err := geometry.Uniquify(p.uniq, positions, g.Indices, edges)
	if err != nil {
		return nil, err
	}

	var buckets []geometry.Bucket[uint16]
	if bits := p.bucketBits(unique.NumPositions()); bits > 0 {
		if buckets, err = geometry.Bucketize(unique, bits); err != nil {
			return nil, err
		}
	} else {
		buckets = []geometry.Bucket[uint16]{{
			Positions:   unique.Positions,
			Indices:     unique.Indices,
			EdgeIndices: unique.EdgeIndices,
		}}
	}

	plan := &PortionPlan{
		Buckets:   buckets,
		Decode:    decode,
		LocalAABB: geometry.Bounds(unique.Positions).Transform(decode),
	}
	for _, b := range buckets {
		plan.numVerts += b.NumPositions()
		plan.numTriangles += geometry.AlignedCount(len(b.Indices) / 3)
		plan.numEdges += geometry.AlignedCount(len(b.EdgeIndices) / 2)
	}
	return plan, nil
}
