// Package picking provides ray casting against bounds and triangles.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/dtx/pkg/math"
)

// intersectEpsilon rejects rays nearly parallel to a triangle.
const intersectEpsilon = 1e-6

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    [3]float32
	Direction [3]float32 // Normalized direction
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	near := invViewProj.TransformPoint([3]float32{ndcX, ndcY, -1})
	far := invViewProj.TransformPoint([3]float32{ndcX, ndcY, 1})

	dir := math.V3(far).Sub(math.V3(near)).Normalize()
	return Ray{Origin: near, Direction: dir.Array()}
}

// Transform maps the ray through m. The direction is renormalized, so
// distances along the result are in the target space.
func (r Ray) Transform(m math.Mat4) Ray {
	return Ray{
		Origin:    m.TransformPoint(r.Origin),
		Direction: math.V3(m.TransformDirection(r.Direction)).Normalize().Array(),
	}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) [3]float32 {
	return [3]float32{
		r.Origin[0] + t*r.Direction[0],
		r.Origin[1] + t*r.Direction[1],
		r.Origin[2] + t*r.Direction[2],
	}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box math.AABB) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
		t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	// Check if intersection is valid
	if tmax < tmin || tmax < 0 {
		return 0, false
	}

	// Return entry point, or exit point if starting inside
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle runs the Möller-Trumbore test. It returns the distance
// along the ray to the hit point. Hits behind the origin are rejected;
// both windings count.
func (r Ray) IntersectTriangle(a, b, c [3]float32) (t float32, hit bool) {
	va, vb, vc := math.V3(a), math.V3(b), math.V3(c)
	dir := math.V3(r.Direction)

	edge1 := vb.Sub(va)
	edge2 := vc.Sub(va)
	p := dir.Cross(edge2)
	det := edge1.Dot(p)
	if math32.Abs(det) < intersectEpsilon {
		return 0, false
	}
	inv := 1 / det

	s := math.V3(r.Origin).Sub(va)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = edge2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// TriangleNormal returns the unit normal of a counter-clockwise triangle.
func TriangleNormal(a, b, c [3]float32) [3]float32 {
	va := math.V3(a)
	return math.V3(b).Sub(va).Cross(math.V3(c).Sub(va)).Normalize().Array()
}
