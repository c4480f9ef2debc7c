package math

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// EmptyAABB returns a collapsed box that any expansion replaces.
func EmptyAABB() AABB {
	return AABB{
		Min: [3]float32{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: [3]float32{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// IsEmpty reports whether the box has never been expanded.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// ExpandPoint grows the box to contain p.
func (b *AABB) ExpandPoint(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Expand grows the box to contain other.
func (b *AABB) Expand(other AABB) {
	if other.IsEmpty() {
		return
	}
	b.ExpandPoint(other.Min)
	b.ExpandPoint(other.Max)
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8][3]float32 {
	var c [8][3]float32
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				c[i][axis] = b.Max[axis]
			} else {
				c[i][axis] = b.Min[axis]
			}
		}
	}
	return c
}

// Transform returns the box enclosing all corners transformed by m.
func (b AABB) Transform(m Mat4) AABB {
	out := EmptyAABB()
	if b.IsEmpty() {
		return out
	}
	for _, c := range b.Corners() {
		out.ExpandPoint(m.TransformPoint(c))
	}
	return out
}

// Translate offsets the box by d.
func (b AABB) Translate(d [3]float32) AABB {
	if b.IsEmpty() {
		return b
	}
	for i := 0; i < 3; i++ {
		b.Min[i] += d[i]
		b.Max[i] += d[i]
	}
	return b
}
