package layer

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/internal/engine/texture"
	"github.com/Faultbox/dtx/pkg/geometry"
	"github.com/Faultbox/dtx/pkg/math"
)

// physicalPortion is one texture row: one bucket of a logical portion.
type physicalPortion struct {
	vertexBase int
	numVerts   int
	class      geometry.WidthClass

	// Retained only with precision picking.
	positions []uint16
	indices   []uint32
	decode    math.Mat4
	// local maps decoded positions to model space.
	local math.Mat4
}

// logicalPortion is what callers address. It fans out to one or more rows.
type logicalPortion struct {
	rows        []int
	flags       EntityFlags
	transparent bool
	offset      [3]float32
	aabb        math.AABB
}

// core holds the state shared by batching and instancing layers: portion
// bookkeeping, tallies, texture state and the flag mutators.
type core struct {
	cfg     Config
	log     *zap.Logger
	planner *planner

	logical  []logicalPortion
	physical []physicalPortion

	buf       *batchBuffer
	state     datatex.State
	flags     flagWriter
	finalized bool

	counters Counters
	aabb     math.AABB
	stats    Stats

	numIndices     [geometry.NumWidthClasses]int
	numEdgeIndices [geometry.NumWidthClasses]int
}

func newCore(cfg Config, kind string) core {
	cfg = cfg.withDefaults(kind)
	return core{
		cfg:     cfg,
		log:     cfg.Logger,
		planner: newPlanner(cfg),
		buf:     &batchBuffer{},
		aabb:    math.EmptyAABB(),
		stats:   Stats{Index: cfg.Index, Kind: kind},
	}
}

// rejection reasons
const (
	fits = iota
	tooManyObjects
	textureFull
	layerClosed
)

// fit checks the hard capacity limits for adding rows, vertices and
// aligned primitives.
func (c *core) fit(rows, verts, triangles, edges int) int {
	if c.finalized || c.buf == nil {
		return layerClosed
	}
	if len(c.physical)+rows > MaxObjects {
		return tooManyObjects
	}
	maxTriangles, maxEdges := 0, 0
	for class := geometry.Width8; class <= geometry.Width32; class++ {
		t, e := c.buf.numPrimitives(class)
		maxTriangles = max(maxTriangles, t)
		maxEdges = max(maxEdges, e)
	}
	if c.buf.numVerts()+verts > MaxTexels ||
		maxTriangles+triangles > MaxTexels ||
		maxEdges+edges > MaxTexels {
		return textureFull
	}
	return fits
}

// admit runs fit and turns its verdict into an error. Capacity
// rejections are counted; a finalized or destroyed layer is not.
func (c *core) admit(rows, verts, triangles, edges int) error {
	switch reason := c.fit(rows, verts, triangles, edges); reason {
	case fits:
		return nil
	case layerClosed:
		return ErrAlreadyFinalized
	default:
		c.recordRejection(reason)
		return ErrNoRoom
	}
}

func (c *core) recordRejection(reason int) {
	switch reason {
	case tooManyObjects:
		c.stats.RejectedObjectIDs++
	case textureFull:
		c.stats.RejectedTextureSize++
	}
	c.log.Debug("portion rejected",
		zap.Int("portions", len(c.physical)),
		zap.Int("verts", c.buf.numVerts()),
		zap.Bool("object_ids", reason == tooManyObjects))
}

// addRow registers a physical portion and mirrors it into the tallies.
func (c *core) addRow(p physicalPortion) int {
	c.physical = append(c.physical, p)
	c.counters.Portions++
	c.cfg.Context.Counters().Portions++
	return len(c.physical) - 1
}

func (c *core) addLogical(rows []int, aabb math.AABB) int {
	c.logical = append(c.logical, logicalPortion{rows: rows, aabb: aabb})
	c.aabb.Expand(aabb)
	return len(c.logical) - 1
}

func (c *core) portion(id int) (*logicalPortion, error) {
	if id < 0 || id >= len(c.logical) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPortion, id)
	}
	return &c.logical[id], nil
}

// finalizeTextures generates every texture from the buffer and drops it.
func (c *core) finalizeTextures(withPortionIDs bool) (err error) {
	gen := c.cfg.Generator
	buf := c.buf
	s := &c.state

	defer func() {
		if err != nil {
			err = multierr.Append(err, s.Destroy())
		}
	}()

	if s.ColorsAndFlags, err = gen.ColorsAndFlags(buf.objects); err != nil {
		return err
	}
	if s.DecodeMatrices, err = gen.DecodeMatrices(buf.decodeMatrices); err != nil {
		return err
	}
	if s.Positions, err = gen.Positions(buf.positions); err != nil {
		return err
	}
	if len(buf.meshMatrices) > 0 {
		if s.InstanceMatrices, err = gen.InstanceMatrices(buf.meshMatrices, buf.normalMatrices); err != nil {
			return err
		}
	}

	for class := geometry.Width8; class <= geometry.Width32; class++ {
		if withPortionIDs {
			if s.PortionIDs[class], err = gen.PortionIDs(buf.portionIDs[class]); err != nil {
				return err
			}
			if s.EdgePortionIDs[class], err = gen.PortionIDs(buf.edgePortionIDs[class]); err != nil {
				return err
			}
		}
		if s.Indices[class], err = primitives(gen, class, buf.indices[class], 3); err != nil {
			return err
		}
		if s.EdgeIndices[class], err = primitives(gen, class, buf.edgeIndices[class], 2); err != nil {
			return err
		}
		c.numIndices[class] = len(buf.indices[class])
		c.numEdgeIndices[class] = len(buf.edgeIndices[class])
		c.stats.Triangles[class] = len(buf.indices[class]) / 3
		c.stats.Edges[class] = len(buf.edgeIndices[class]) / 2
	}

	if s.Camera, err = c.cfg.Context.CameraTexture(); err != nil {
		return err
	}
	if s.Model, err = c.cfg.Context.ModelTexture(); err != nil {
		return err
	}

	c.flags = flagWriter{cf: s.ColorsAndFlags}
	c.stats.UniqueVerts = buf.numVerts()
	c.stats.PaddingIndices = buf.paddingIndices
	c.stats.PaddingEdgeIndices = buf.paddingEdgeIndices
	c.stats.TextureBytes = textureBytes(s)
	c.buf = nil
	c.finalized = true
	return nil
}

func primitives(gen *datatex.Generator, class geometry.WidthClass, src []uint32, arity int) (texture.Texture, error) {
	switch class {
	case geometry.Width8:
		return datatex.Primitives(gen, narrow[uint8](src), arity)
	case geometry.Width16:
		return datatex.Primitives(gen, narrow[uint16](src), arity)
	default:
		return datatex.Primitives(gen, src, arity)
	}
}

// Finalized reports whether the layer has generated its textures.
func (c *core) Finalized() bool { return c.finalized }

// IsEmpty reports whether the layer has no portions.
func (c *core) IsEmpty() bool { return len(c.logical) == 0 }

// NumPortions returns the number of logical portions.
func (c *core) NumPortions() int { return len(c.logical) }

// NumPhysicalPortions returns the number of texture rows.
func (c *core) NumPhysicalPortions() int { return len(c.physical) }

// NumUniqueVerts returns the vertices appended so far.
func (c *core) NumUniqueVerts() int {
	if c.buf != nil {
		return c.buf.numVerts()
	}
	return c.stats.UniqueVerts
}

// FanOut returns the texture rows of a logical portion.
func (c *core) FanOut(id int) ([]int, error) {
	p, err := c.portion(id)
	if err != nil {
		return nil, err
	}
	return p.rows, nil
}

// VertexBase returns the first vertex of a texture row.
func (c *core) VertexBase(row int) int { return c.physical[row].vertexBase }

// WidthClass returns the index class of a texture row.
func (c *core) WidthClass(row int) geometry.WidthClass { return c.physical[row].class }

// Counters returns the layer tallies.
func (c *core) Counters() Counters { return c.counters }

// Skip reports whether a render pass has nothing to draw in this layer.
func (c *core) Skip(pass RenderPass) bool { return c.counters.Skip(pass) }

// State returns the generated textures. It is empty before Finalize.
func (c *core) State() *datatex.State { return &c.state }

// NumIndices returns the index count of a class, padding included, for
// sizing draw calls.
func (c *core) NumIndices(class geometry.WidthClass) int { return c.numIndices[class] }

// NumEdgeIndices returns the edge index count of a class.
func (c *core) NumEdgeIndices(class geometry.WidthClass) int { return c.numEdgeIndices[class] }

// AABB returns the world-space bounds of every portion, origin applied.
func (c *core) AABB() math.AABB {
	return c.aabb.Transform(c.cfg.Context.WorldMatrix()).Translate(c.cfg.Origin)
}

// PortionAABB returns the model-space bounds of one portion.
func (c *core) PortionAABB(id int) (math.AABB, error) {
	p, err := c.portion(id)
	if err != nil {
		return math.AABB{}, err
	}
	return p.aabb, nil
}

// Stats returns the layer statistics.
func (c *core) Stats() Stats {
	s := c.stats
	s.Portions = len(c.logical)
	s.PhysicalPortions = len(c.physical)
	s.Finalized = c.finalized
	if c.buf != nil {
		s.UniqueVerts = c.buf.numVerts()
	}
	return s
}

// Destroy releases the layer textures. Shared textures are left alone.
func (c *core) Destroy() error {
	err := c.state.Destroy()
	c.buf = nil
	c.log.Debug("layer destroyed")
	return err
}
