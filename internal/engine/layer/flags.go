// Package layer batches many small meshes ("portions") into a handful of
// data textures and manages their per-object render state.
//
// A layer accepts portions while open, generates its textures once in
// Finalize, and from then on only rewrites texels: flags, colors and
// offsets. Layers are not safe for concurrent use; all calls are expected
// from the render thread.
package layer

// EntityFlags is the state bitmask of one portion.
type EntityFlags uint16

const (
	FlagVisible EntityFlags = 1 << iota
	FlagCulled
	FlagPickable
	FlagClippable
	FlagCollidable
	FlagXRayed
	FlagHighlighted
	FlagSelected
	FlagEdges
)

// Has reports whether every bit of mask is set.
func (f EntityFlags) Has(mask EntityFlags) bool {
	return f&mask == mask
}

// With returns f with mask set or cleared.
func (f EntityFlags) With(mask EntityFlags, on bool) EntityFlags {
	if on {
		return f | mask
	}
	return f &^ mask
}

// RenderPass identifies the pass that draws a portion. Values are read by
// the shaders and must not change.
type RenderPass uint8

const (
	PassNotRendered RenderPass = iota
	PassColorOpaque
	PassColorTransparent
	PassSilhouetteHighlighted
	PassSilhouetteSelected
	PassSilhouetteXRayed
	PassEdgesColorOpaque
	PassEdgesColorTransparent
	PassEdgesHighlighted
	PassEdgesSelected
	PassEdgesXRayed
	PassPick

	numRenderPasses
)

var passNames = [numRenderPasses]string{
	"not-rendered",
	"color-opaque",
	"color-transparent",
	"silhouette-highlighted",
	"silhouette-selected",
	"silhouette-xrayed",
	"edges-color-opaque",
	"edges-color-transparent",
	"edges-highlighted",
	"edges-selected",
	"edges-xrayed",
	"pick",
}

func (p RenderPass) String() string {
	if p < numRenderPasses {
		return passNames[p]
	}
	return "unknown"
}

// RenderPasses is the flags texel: the pass for color, silhouette, edges
// and picking, in that byte order.
type RenderPasses [4]RenderPass

// Bytes returns the texel value.
func (r RenderPasses) Bytes() [4]byte {
	return [4]byte{byte(r[0]), byte(r[1]), byte(r[2]), byte(r[3])}
}

// DeriveRenderPasses computes the flags texel for a portion state.
func DeriveRenderPasses(f EntityFlags, transparent bool) RenderPasses {
	visible := f.Has(FlagVisible)
	culled := f.Has(FlagCulled)
	xrayed := f.Has(FlagXRayed)
	highlighted := f.Has(FlagHighlighted)
	selected := f.Has(FlagSelected)
	shown := visible && !culled

	var out RenderPasses

	// Highlight and select are drawn on top of color, so they do not
	// suppress it; x-ray does.
	switch {
	case !shown || xrayed:
		out[0] = PassNotRendered
	case transparent:
		out[0] = PassColorTransparent
	default:
		out[0] = PassColorOpaque
	}

	switch {
	case !shown:
		out[1] = PassNotRendered
	case selected:
		out[1] = PassSilhouetteSelected
	case highlighted:
		out[1] = PassSilhouetteHighlighted
	case xrayed:
		out[1] = PassSilhouetteXRayed
	default:
		out[1] = PassNotRendered
	}

	switch {
	case !shown:
		out[2] = PassNotRendered
	case selected:
		out[2] = PassEdgesSelected
	case highlighted:
		out[2] = PassEdgesHighlighted
	case xrayed:
		out[2] = PassEdgesXRayed
	case f.Has(FlagEdges) && transparent:
		out[2] = PassEdgesColorTransparent
	case f.Has(FlagEdges):
		out[2] = PassEdgesColorOpaque
	default:
		out[2] = PassNotRendered
	}

	if shown && f.Has(FlagPickable) {
		out[3] = PassPick
	} else {
		out[3] = PassNotRendered
	}
	return out
}

// DeriveFlags2 computes the flags2 texel. Only byte 0 varies.
func DeriveFlags2(f EntityFlags) [4]byte {
	var clippable byte
	if f.Has(FlagClippable) {
		clippable = 255
	}
	return [4]byte{clippable, 0, 1, 2}
}
