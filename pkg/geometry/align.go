package geometry

// PrimitivesPerGroup is the number of primitives that share one
// portion-id texel. Every portion's primitive count is padded to a
// multiple of it so a texel never covers two portions.
const PrimitivesPerGroup = 8

// AlignedCount rounds a primitive count up to a whole number of groups.
func AlignedCount(numPrimitives int) int {
	return (numPrimitives + PrimitivesPerGroup - 1) / PrimitivesPerGroup * PrimitivesPerGroup
}

// Align zero-pads a flat primitive array (arity 3 for triangles, 2 for
// edges) to a whole number of groups. It returns the padded slice and the
// number of padding elements added. The input is not modified.
func Align(src []uint32, arity int) ([]uint32, int) {
	numPrimitives := len(src) / arity
	aligned := AlignedCount(numPrimitives) * arity
	if aligned == len(src) {
		return src, 0
	}
	dst := make([]uint32, aligned)
	copy(dst, src)
	return dst, aligned - len(src)
}
