package camera

import (
	"testing"

	"github.com/Faultbox/dtx/pkg/math"
)

func TestVersionBumps(t *testing.T) {
	c := NewOrbitCamera(1)
	v := c.Version()

	steps := []struct {
		name string
		fn   func()
	}{
		{"drag", func() { c.HandleDrag(10, 0) }},
		{"zoom", func() { c.HandleZoom(1) }},
		{"center", func() { c.SetCenter(math.Vec3{X: 1}) }},
		{"perspective", func() { c.SetPerspective(1, 2, 0.1, 100) }},
		{"fit", func() { c.FitToBounds(math.AABB{Max: [3]float32{1, 1, 1}}) }},
	}
	for _, s := range steps {
		s.fn()
		if c.Version() <= v {
			t.Errorf("%s: version %d did not advance past %d", s.name, c.Version(), v)
		}
		v = c.Version()
	}
}

func TestFitToBoundsIgnoresEmpty(t *testing.T) {
	c := NewOrbitCamera(1)
	v := c.Version()
	c.FitToBounds(math.EmptyAABB())
	if c.Version() != v {
		t.Error("empty bounds changed the camera")
	}
}

func TestPitchClamped(t *testing.T) {
	c := NewOrbitCamera(1)
	c.HandleDrag(0, 1e6)
	if c.pitch != c.MaxPitch {
		t.Errorf("pitch = %v, want %v", c.pitch, c.MaxPitch)
	}
}

func TestFitToBoundsCentersView(t *testing.T) {
	c := NewOrbitCamera(1)
	c.FitToBounds(math.AABB{Min: [3]float32{-10, -10, -10}, Max: [3]float32{30, 10, 10}})

	if got := c.Center(); got != (math.Vec3{X: 10}) {
		t.Errorf("center = %v, want (10,0,0)", got)
	}
	// The center projects to the middle of the screen.
	viewProj := c.ProjMatrix().Mul(c.ViewMatrix())
	p := viewProj.TransformPoint(c.Center().Array())
	if p[0] > 1e-4 || p[0] < -1e-4 || p[1] > 1e-4 || p[1] < -1e-4 {
		t.Errorf("center projects to %v", p)
	}
}
