package layer

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/engine/datatex"
)

// which texel a setter owns
type flagColumn int

const (
	columnFlags flagColumn = iota
	columnFlags2
)

// setState moves a portion to a new state, rewrites the affected texels
// on every row and updates the tallies by its fan-out. The owned column
// is always written; the other one only when its inputs changed. If a
// write fails, the texels already written are restored and neither the
// portion nor the tallies change.
func (c *core) setState(id int, flags EntityFlags, transparent bool, owned flagColumn, deferred bool) error {
	if !c.finalized {
		return ErrNotFinalized
	}
	p, err := c.portion(id)
	if err != nil {
		return err
	}

	changed := p.flags ^ flags
	writeFlags := owned == columnFlags || changed&^FlagClippable != 0 || p.transparent != transparent
	writeFlags2 := owned == columnFlags2 || changed&FlagClippable != 0

	passes := DeriveRenderPasses(flags, transparent).Bytes()
	flags2 := DeriveFlags2(flags)
	var written []texelRef
	for _, row := range p.rows {
		if writeFlags {
			if err := c.writeSaved(&written, datatex.ColFlags, row, passes, deferred); err != nil {
				return c.rollback(written, deferred, fmt.Errorf("writing flags of portion %d: %w", id, err))
			}
		}
		if writeFlags2 {
			if err := c.writeSaved(&written, datatex.ColFlags2, row, flags2, deferred); err != nil {
				return c.rollback(written, deferred, fmt.Errorf("writing flags2 of portion %d: %w", id, err))
			}
		}
	}

	d := delta(p.flags, flags, p.transparent, transparent, len(p.rows))
	c.counters.Add(d)
	c.cfg.Context.Counters().Add(d)
	p.flags = flags
	p.transparent = transparent
	return nil
}

// texelRef is a texel and the value it held before a write.
type texelRef struct {
	col, row int
	prev     [4]byte
}

func (c *core) writeSaved(written *[]texelRef, col, row int, v [4]byte, deferred bool) error {
	*written = append(*written, texelRef{col: col, row: row, prev: c.flags.cf.Texel(col, row)})
	return c.flags.write(col, row, v, deferred)
}

// rollback puts back the texels of a failed setter, newest first.
func (c *core) rollback(written []texelRef, deferred bool, err error) error {
	for i := len(written) - 1; i >= 0; i-- {
		t := written[i]
		err = multierr.Append(err, c.flags.write(t.col, t.row, t.prev, deferred))
	}
	return err
}

// InitFlags applies the initial state of a portion. The texels are only
// written to the shadow copy; FlushInitFlags uploads them all at once.
func (c *core) InitFlags(id int, flags EntityFlags, transparent bool) error {
	if !c.finalized {
		return ErrNotFinalized
	}
	if err := c.setState(id, flags, transparent, columnFlags, true); err != nil {
		return err
	}
	// The flags2 texel is written even when clippability is unchanged.
	p := &c.logical[id]
	flags2 := DeriveFlags2(flags)
	for _, row := range p.rows {
		if err := c.flags.write(datatex.ColFlags2, row, flags2, true); err != nil {
			return err
		}
	}
	return nil
}

// FlushInitFlags uploads the state written by InitFlags.
func (c *core) FlushInitFlags() error {
	if !c.finalized {
		return ErrNotFinalized
	}
	return c.flags.flush()
}

// SetVisible updates visibility. flags is the full new state.
func (c *core) SetVisible(id int, flags EntityFlags, transparent bool) error {
	return c.setState(id, flags, transparent, columnFlags, false)
}

// SetHighlighted updates highlighting.
func (c *core) SetHighlighted(id int, flags EntityFlags, transparent bool) error {
	return c.setState(id, flags, transparent, columnFlags, false)
}

// SetXRayed updates x-ray.
func (c *core) SetXRayed(id int, flags EntityFlags, transparent bool) error {
	return c.setState(id, flags, transparent, columnFlags, false)
}

// SetSelected updates selection.
func (c *core) SetSelected(id int, flags EntityFlags, transparent bool) error {
	return c.setState(id, flags, transparent, columnFlags, false)
}

// SetEdges updates edge emphasis.
func (c *core) SetEdges(id int, flags EntityFlags, transparent bool) error {
	return c.setState(id, flags, transparent, columnFlags, false)
}

// SetCulled updates culling. The culled tally moves by the portion's
// fan-out.
func (c *core) SetCulled(id int, flags EntityFlags, transparent bool) error {
	return c.setState(id, flags, transparent, columnFlags, false)
}

// SetPickable updates pickability.
func (c *core) SetPickable(id int, flags EntityFlags, transparent bool) error {
	return c.setState(id, flags, transparent, columnFlags, false)
}

// SetTransparent updates transparency.
func (c *core) SetTransparent(id int, flags EntityFlags, transparent bool) error {
	return c.setState(id, flags, transparent, columnFlags, false)
}

// SetClippable updates clippability, which lives in the flags2 texel.
func (c *core) SetClippable(id int, flags EntityFlags) error {
	p, err := c.portion(id)
	if err != nil {
		return err
	}
	return c.setState(id, flags, p.transparent, columnFlags2, false)
}

// SetCollidable records collidability. Nothing on the GPU depends on it.
func (c *core) SetCollidable(id int, flags EntityFlags) error {
	if !c.finalized {
		return ErrNotFinalized
	}
	p, err := c.portion(id)
	if err != nil {
		return err
	}
	p.flags = p.flags.With(FlagCollidable, flags.Has(FlagCollidable))
	return nil
}

// SetColor rewrites the color texel of every row of a portion.
func (c *core) SetColor(id int, color [4]uint8) error {
	if !c.finalized {
		return ErrNotFinalized
	}
	p, err := c.portion(id)
	if err != nil {
		return err
	}
	var written []texelRef
	for _, row := range p.rows {
		if err := c.writeSaved(&written, datatex.ColColor, row, color, false); err != nil {
			return c.rollback(written, false, fmt.Errorf("writing color of portion %d: %w", id, err))
		}
	}
	return nil
}

// SetOffset moves a portion. No texture carries the offset; it shifts the
// portion for picking and bounds tests only.
func (c *core) SetOffset(id int, offset [3]float32) error {
	if !c.finalized {
		return ErrNotFinalized
	}
	if !c.cfg.EntityOffsets {
		c.log.Warn("entity offsets are disabled", zap.Int("portion", id))
		return ErrOffsetsDisabled
	}
	p, err := c.portion(id)
	if err != nil {
		return err
	}
	p.offset = offset
	return nil
}

// Offset returns the offset of a portion.
func (c *core) Offset(id int) ([3]float32, error) {
	p, err := c.portion(id)
	if err != nil {
		return [3]float32{}, err
	}
	return p.offset, nil
}

// Flags returns the current state of a portion.
func (c *core) Flags(id int) (EntityFlags, bool, error) {
	p, err := c.portion(id)
	if err != nil {
		return 0, false, err
	}
	return p.flags, p.transparent, nil
}

// BeginDeferredFlags starts a transaction: flag and color writes update
// the shadow copy only until CommitDeferredFlags.
func (c *core) BeginDeferredFlags() {
	c.flags.begin()
}

// CommitDeferredFlags ends a transaction with at most one full upload.
func (c *core) CommitDeferredFlags() error {
	if !c.finalized {
		c.flags.deferred = false
		return nil
	}
	return c.flags.commit()
}
