package datatex

import (
	"go.uber.org/multierr"

	"github.com/Faultbox/dtx/internal/engine/texture"
	"github.com/Faultbox/dtx/pkg/geometry"
)

// Texture units the batching shaders sample from.
const (
	UnitColorsAndFlags = iota
	UnitDecodeMatrices
	UnitPositions
	UnitInstanceMatrices
	UnitCamera
	UnitModel
	// Per width class, in order: portion ids, indices, edge portion ids,
	// edge indices.
	unitPerClassBase
)

// UnitFor returns the texture unit of a per-class texture. kind is 0 for
// portion ids, 1 for indices, 2 for edge portion ids, 3 for edge indices.
func UnitFor(class geometry.WidthClass, kind int) int {
	return unitPerClassBase + int(class)*4 + kind
}

// State is the set of textures generated for one finalized layer.
// Camera and Model are shared across layers and are not released by
// Destroy.
type State struct {
	ColorsAndFlags   *ColorsAndFlags
	DecodeMatrices   texture.Texture
	Positions        texture.Texture
	InstanceMatrices texture.Texture

	PortionIDs     [geometry.NumWidthClasses]texture.Texture
	Indices        [geometry.NumWidthClasses]texture.Texture
	EdgePortionIDs [geometry.NumWidthClasses]texture.Texture
	EdgeIndices    [geometry.NumWidthClasses]texture.Texture

	Camera *MatrixTexture
	Model  *MatrixTexture
}

func (s *State) each(fn func(unit int, t texture.Texture)) {
	if s.ColorsAndFlags != nil {
		fn(UnitColorsAndFlags, s.ColorsAndFlags.Texture())
	}
	fn(UnitDecodeMatrices, s.DecodeMatrices)
	fn(UnitPositions, s.Positions)
	fn(UnitInstanceMatrices, s.InstanceMatrices)
	if s.Camera != nil {
		fn(UnitCamera, s.Camera.Texture())
	}
	if s.Model != nil {
		fn(UnitModel, s.Model.Texture())
	}
	for c := geometry.Width8; c <= geometry.Width32; c++ {
		fn(UnitFor(c, 0), s.PortionIDs[c])
		fn(UnitFor(c, 1), s.Indices[c])
		fn(UnitFor(c, 2), s.EdgePortionIDs[c])
		fn(UnitFor(c, 3), s.EdgeIndices[c])
	}
}

// Bind binds every present texture to its unit.
func (s *State) Bind() {
	s.each(func(unit int, t texture.Texture) {
		if t != nil {
			t.Bind(unit)
		}
	})
}

// Unbind clears every unit bound by Bind.
func (s *State) Unbind() {
	s.each(func(unit int, t texture.Texture) {
		if t != nil {
			t.Unbind(unit)
		}
	})
}

// Destroy releases the textures owned by this layer and reports every
// failure.
func (s *State) Destroy() error {
	var err error
	s.each(func(unit int, t texture.Texture) {
		if t == nil || unit == UnitCamera || unit == UnitModel {
			return
		}
		err = multierr.Append(err, t.Destroy())
	})
	*s = State{}
	return err
}
