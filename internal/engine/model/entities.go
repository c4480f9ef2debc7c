package model

import (
	"fmt"

	"github.com/Faultbox/dtx/internal/engine/layer"
	"github.com/Faultbox/dtx/internal/engine/picking"
)

func (m *Model) entity(id int) (*entity, error) {
	if !m.finalized {
		return nil, layer.ErrNotFinalized
	}
	if id < 0 || id >= len(m.entities) {
		return nil, fmt.Errorf("%w: entity %d", layer.ErrUnknownPortion, id)
	}
	return &m.entities[id], nil
}

type flagSetter func(l portionLayer, id int, flags layer.EntityFlags, transparent bool) error

// toggle flips one flag of an entity and hands the full new state to its
// layer. The model copy only changes once the layer accepted it.
func (m *Model) toggle(id int, flag layer.EntityFlags, on bool, set flagSetter) error {
	e, err := m.entity(id)
	if err != nil {
		return err
	}
	flags := e.flags.With(flag, on)
	if err := set(e.layer, e.local, flags, e.transparent); err != nil {
		return err
	}
	e.flags = flags
	return nil
}

// SetVisible shows or hides an entity.
func (m *Model) SetVisible(id int, on bool) error {
	return m.toggle(id, layer.FlagVisible, on, portionLayer.SetVisible)
}

// SetHighlighted toggles highlighting.
func (m *Model) SetHighlighted(id int, on bool) error {
	return m.toggle(id, layer.FlagHighlighted, on, portionLayer.SetHighlighted)
}

// SetXRayed toggles x-ray.
func (m *Model) SetXRayed(id int, on bool) error {
	return m.toggle(id, layer.FlagXRayed, on, portionLayer.SetXRayed)
}

// SetSelected toggles selection.
func (m *Model) SetSelected(id int, on bool) error {
	return m.toggle(id, layer.FlagSelected, on, portionLayer.SetSelected)
}

// SetEdges toggles edge emphasis.
func (m *Model) SetEdges(id int, on bool) error {
	return m.toggle(id, layer.FlagEdges, on, portionLayer.SetEdges)
}

// SetCulled toggles culling.
func (m *Model) SetCulled(id int, on bool) error {
	return m.toggle(id, layer.FlagCulled, on, portionLayer.SetCulled)
}

// SetPickable toggles pickability.
func (m *Model) SetPickable(id int, on bool) error {
	return m.toggle(id, layer.FlagPickable, on, portionLayer.SetPickable)
}

// SetClippable toggles clippability.
func (m *Model) SetClippable(id int, on bool) error {
	return m.toggle(id, layer.FlagClippable, on,
		func(l portionLayer, id int, flags layer.EntityFlags, _ bool) error {
			return l.SetClippable(id, flags)
		})
}

// SetCollidable toggles collidability.
func (m *Model) SetCollidable(id int, on bool) error {
	return m.toggle(id, layer.FlagCollidable, on,
		func(l portionLayer, id int, flags layer.EntityFlags, _ bool) error {
			return l.SetCollidable(id, flags)
		})
}

// SetTransparent moves an entity between the opaque and transparent passes.
func (m *Model) SetTransparent(id int, on bool) error {
	e, err := m.entity(id)
	if err != nil {
		return err
	}
	if err := e.layer.SetTransparent(e.local, e.flags, on); err != nil {
		return err
	}
	e.transparent = on
	return nil
}

// SetColor recolors an entity. Transparency is not derived from alpha.
func (m *Model) SetColor(id int, color [4]uint8) error {
	e, err := m.entity(id)
	if err != nil {
		return err
	}
	return e.layer.SetColor(e.local, color)
}

// SetOffset moves an entity.
func (m *Model) SetOffset(id int, offset [3]float32) error {
	e, err := m.entity(id)
	if err != nil {
		return err
	}
	return e.layer.SetOffset(e.local, offset)
}

// Flags returns the current state of an entity.
func (m *Model) Flags(id int) (layer.EntityFlags, bool, error) {
	if id < 0 || id >= len(m.entities) {
		return 0, false, fmt.Errorf("%w: entity %d", layer.ErrUnknownPortion, id)
	}
	e := m.entities[id]
	return e.flags, e.transparent, nil
}

// PrecisionPick returns the closest surface hit among the visible,
// pickable entities. The result carries the model-level entity id.
func (m *Model) PrecisionPick(ray picking.Ray) (layer.PickResult, bool, error) {
	if !m.finalized {
		return layer.PickResult{}, false, layer.ErrNotFinalized
	}
	var best layer.PickResult
	found := false
	for id, e := range m.entities {
		if !e.flags.Has(layer.FlagVisible|layer.FlagPickable) || e.flags.Has(layer.FlagCulled) {
			continue
		}
		_, ok, err := e.layer.RayPickAABB(e.local, ray)
		if err != nil {
			return layer.PickResult{}, false, err
		}
		if !ok {
			continue
		}
		hit, ok, err := e.layer.PrecisionRayPickSurface(e.local, ray)
		if err != nil {
			return layer.PickResult{}, false, err
		}
		if ok && (!found || hit.Distance < best.Distance) {
			hit.Portion = id
			best = hit
			found = true
		}
	}
	return best, found, nil
}
