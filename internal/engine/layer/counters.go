package layer

// Counters tally portions by state. Layers keep their own and mirror every
// change into the owning model's aggregate, so the render loop can skip a
// pass without touching the textures.
//
// Every tally counts physical portions: a portion split into K buckets
// moves each count by K.
type Counters struct {
	Portions    int
	Visible     int
	Transparent int
	XRayed      int
	Selected    int
	Highlighted int
	Clippable   int
	Edges       int
	Pickable    int
	Culled      int
}

// counted lists the flags that have a tally.
var counted = [...]struct {
	flag EntityFlags
	get  func(*Counters) *int
}{
	{FlagVisible, func(c *Counters) *int { return &c.Visible }},
	{FlagXRayed, func(c *Counters) *int { return &c.XRayed }},
	{FlagSelected, func(c *Counters) *int { return &c.Selected }},
	{FlagHighlighted, func(c *Counters) *int { return &c.Highlighted }},
	{FlagClippable, func(c *Counters) *int { return &c.Clippable }},
	{FlagEdges, func(c *Counters) *int { return &c.Edges }},
	{FlagPickable, func(c *Counters) *int { return &c.Pickable }},
	{FlagCulled, func(c *Counters) *int { return &c.Culled }},
}

// delta returns the tally change for a state transition of n portions.
func delta(from, to EntityFlags, fromTransparent, toTransparent bool, n int) Counters {
	var d Counters
	for _, c := range counted {
		was, is := from.Has(c.flag), to.Has(c.flag)
		switch {
		case is && !was:
			*c.get(&d) += n
		case was && !is:
			*c.get(&d) -= n
		}
	}
	switch {
	case toTransparent && !fromTransparent:
		d.Transparent += n
	case fromTransparent && !toTransparent:
		d.Transparent -= n
	}
	return d
}

// Add applies a delta.
func (c *Counters) Add(d Counters) {
	c.Portions += d.Portions
	c.Visible += d.Visible
	c.Transparent += d.Transparent
	c.XRayed += d.XRayed
	c.Selected += d.Selected
	c.Highlighted += d.Highlighted
	c.Clippable += d.Clippable
	c.Edges += d.Edges
	c.Pickable += d.Pickable
	c.Culled += d.Culled
}

// Skip reports whether a pass has nothing to draw.
func (c Counters) Skip(pass RenderPass) bool {
	hidden := c.Culled == c.Portions || c.Visible == 0
	if hidden {
		return true
	}
	switch pass {
	case PassColorOpaque:
		return c.Transparent == c.Portions || c.XRayed == c.Portions
	case PassColorTransparent:
		return c.Transparent == 0 || c.XRayed == c.Portions
	case PassSilhouetteXRayed, PassEdgesXRayed:
		return c.XRayed == 0
	case PassSilhouetteHighlighted, PassEdgesHighlighted:
		return c.Highlighted == 0
	case PassSilhouetteSelected, PassEdgesSelected:
		return c.Selected == 0
	case PassEdgesColorOpaque:
		return c.Edges == 0
	case PassEdgesColorTransparent:
		return c.Edges == 0 || c.Transparent == 0
	case PassPick:
		return false
	case PassNotRendered:
		return true
	}
	return true
}
