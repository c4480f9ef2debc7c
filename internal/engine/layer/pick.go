package layer

import (
	"errors"

	"github.com/Faultbox/dtx/internal/engine/picking"
	"github.com/Faultbox/dtx/pkg/geometry"
	"github.com/Faultbox/dtx/pkg/math"
)

// ErrNoPrecisionData is returned by picks on a layer that did not keep
// its geometry.
var ErrNoPrecisionData = errors.New("precision picking is disabled")

var identity = math.Identity()

// PickResult is a surface hit in world space.
type PickResult struct {
	Portion  int
	Position [3]float32
	Normal   [3]float32
	Distance float32
}

// PrecisionRayPickSurface intersects a world-space ray with the triangles
// of one portion and returns the closest hit.
func (c *core) PrecisionRayPickSurface(id int, ray picking.Ray) (PickResult, bool, error) {
	if !c.cfg.PrecisionPicking {
		return PickResult{}, false, ErrNoPrecisionData
	}
	p, err := c.portion(id)
	if err != nil {
		return PickResult{}, false, err
	}

	o := c.cfg.Origin
	toWorld := math.Translate(o[0]+p.offset[0], o[1]+p.offset[1], o[2]+p.offset[2]).
		Mul(c.cfg.Context.WorldMatrix())

	best := PickResult{Portion: id}
	hit := false
	for _, row := range p.rows {
		pp := &c.physical[row]
		m := toWorld.Mul(pp.local).Mul(pp.decode)
		vertex := func(i uint32) [3]float32 {
			return geometry.DecompressPosition(pp.positions[i*3:i*3+3], m)
		}
		for t := 0; t+2 < len(pp.indices); t += 3 {
			a, b, cc := vertex(pp.indices[t]), vertex(pp.indices[t+1]), vertex(pp.indices[t+2])
			dist, ok := ray.IntersectTriangle(a, b, cc)
			if !ok || (hit && dist >= best.Distance) {
				continue
			}
			hit = true
			best.Distance = dist
			best.Position = ray.At(dist)
			best.Normal = picking.TriangleNormal(a, b, cc)
		}
	}
	return best, hit, nil
}

// RayPickAABB tests a world-space ray against the bounds of one portion.
func (c *core) RayPickAABB(id int, ray picking.Ray) (float32, bool, error) {
	p, err := c.portion(id)
	if err != nil {
		return 0, false, err
	}
	o := c.cfg.Origin
	box := p.aabb.Transform(c.cfg.Context.WorldMatrix()).
		Translate([3]float32{o[0] + p.offset[0], o[1] + p.offset[1], o[2] + p.offset[2]})
	t, ok := ray.IntersectAABB(box)
	return t, ok, nil
}
