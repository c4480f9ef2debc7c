// Package camera provides the orbit camera that drives the shared camera
// matrices texture.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/dtx/pkg/math"
)

// OrbitCamera orbits around a center point.
//
// Every change bumps Version, so consumers can tell whether their copy of
// the matrices is stale without comparing them.
type OrbitCamera struct {
	center math.Vec3

	// Spherical coordinates
	distance float32
	pitch    float32 // radians
	yaw      float32 // radians

	// Projection
	fovY   float32 // radians
	aspect float32
	near   float32
	far    float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	version uint64
}

// NewOrbitCamera creates an orbit camera with default settings.
func NewOrbitCamera(aspect float32) *OrbitCamera {
	return &OrbitCamera{
		distance:        200,
		pitch:           0.5,
		fovY:            math32.Pi / 4,
		aspect:          aspect,
		near:            0.1,
		far:             10000,
		MinDistance:     1,
		MaxDistance:     5000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		version:         1,
	}
}

// Version increases on every change of the view or projection.
func (c *OrbitCamera) Version() uint64 { return c.version }

func (c *OrbitCamera) changed() { c.version++ }

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cosPitch := math32.Cos(c.pitch)
	return c.center.Add(math.Vec3{
		X: c.distance * cosPitch * math32.Sin(c.yaw),
		Y: c.distance * math32.Sin(c.pitch),
		Z: c.distance * cosPitch * math32.Cos(c.yaw),
	})
}

// Center returns the orbit center.
func (c *OrbitCamera) Center() math.Vec3 { return c.center }

// Distance returns the distance to the orbit center.
func (c *OrbitCamera) Distance() float32 { return c.distance }

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.center, math.Vec3{Y: 1})
}

// ProjMatrix returns the perspective projection.
func (c *OrbitCamera) ProjMatrix() math.Mat4 {
	return math.Perspective(c.fovY, c.aspect, c.near, c.far)
}

// SetPerspective replaces the projection parameters.
func (c *OrbitCamera) SetPerspective(fovY, aspect, near, far float32) {
	c.fovY, c.aspect, c.near, c.far = fovY, aspect, near, far
	c.changed()
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.yaw -= deltaX * c.DragSensitivity
	c.pitch = clamp(c.pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
	c.changed()
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.distance = clamp(c.distance-delta*c.distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
	c.changed()
}

// SetCenter sets the camera's center point.
func (c *OrbitCamera) SetCenter(center math.Vec3) {
	c.center = center
	c.changed()
}

// FitToBounds centers the camera on a box and backs off until the whole
// box is inside the vertical field of view.
func (c *OrbitCamera) FitToBounds(box math.AABB) {
	if box.IsEmpty() {
		return
	}
	lo, hi := math.V3(box.Min), math.V3(box.Max)
	c.center = lo.Add(hi).Scale(0.5)

	radius := hi.Sub(lo).Length() / 2
	c.distance = clamp(radius/math32.Sin(c.fovY/2), c.MinDistance, c.MaxDistance)
	c.far = max(c.far, c.distance+radius*2)
	c.changed()
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
