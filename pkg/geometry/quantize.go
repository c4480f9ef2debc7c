package geometry

import (
	gomath "math"

	"github.com/Faultbox/dtx/pkg/math"
)

// quantizeRange is the largest quantized coordinate.
const quantizeRange = 65535

// DecodeMatrixFor returns the matrix that maps quantized [0, 65535]
// coordinates back onto the given bounds.
func DecodeMatrixFor(bounds math.AABB) math.Mat4 {
	var scale [3]float32
	for i := 0; i < 3; i++ {
		extent := bounds.Max[i] - bounds.Min[i]
		if extent > 0 {
			scale[i] = extent / quantizeRange
		} else {
			scale[i] = 1
		}
	}
	return math.Translate(bounds.Min[0], bounds.Min[1], bounds.Min[2]).
		Mul(math.Scale(scale[0], scale[1], scale[2]))
}

// QuantizePositions compresses float positions to 16-bit integers over
// their own bounding box and returns the matching decode matrix.
func QuantizePositions(positions []float32) ([]uint16, math.Mat4) {
	bounds := math.EmptyAABB()
	for i := 0; i+2 < len(positions); i += 3 {
		bounds.ExpandPoint([3]float32{positions[i], positions[i+1], positions[i+2]})
	}
	if bounds.IsEmpty() {
		return nil, math.Identity()
	}

	out := make([]uint16, len(positions))
	for i := 0; i+2 < len(positions); i += 3 {
		for axis := 0; axis < 3; axis++ {
			extent := bounds.Max[axis] - bounds.Min[axis]
			if extent <= 0 {
				continue
			}
			q := (positions[i+axis] - bounds.Min[axis]) * quantizeRange / extent
			out[i+axis] = uint16(gomath.Round(float64(q)))
		}
	}
	return out, DecodeMatrixFor(bounds)
}

// DecompressPosition maps a quantized position through its decode matrix.
func DecompressPosition[T Scalar](q []T, decode math.Mat4) [3]float32 {
	return decode.TransformPoint([3]float32{float32(q[0]), float32(q[1]), float32(q[2])})
}

// Bounds returns the bounding box of a flat position array.
func Bounds[T Scalar](positions []T) math.AABB {
	b := math.EmptyAABB()
	for i := 0; i+2 < len(positions); i += 3 {
		b.ExpandPoint([3]float32{float32(positions[i]), float32(positions[i+1]), float32(positions[i+2])})
	}
	return b
}
