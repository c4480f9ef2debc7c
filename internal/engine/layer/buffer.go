package layer

import (
	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/pkg/geometry"
	"github.com/Faultbox/dtx/pkg/math"
)

// batchBuffer accumulates everything a layer needs to generate its
// textures. It is append-only and dropped after finalize.
type batchBuffer struct {
	positions []uint16

	indices     [geometry.NumWidthClasses][]uint32
	edgeIndices [geometry.NumWidthClasses][]uint32

	// One entry per group of geometry.PrimitivesPerGroup primitives.
	portionIDs     [geometry.NumWidthClasses][]uint16
	edgePortionIDs [geometry.NumWidthClasses][]uint16

	objects        []datatex.ObjectRow
	decodeMatrices []math.Mat4

	// Instancing only.
	meshMatrices   []math.Mat4
	normalMatrices []math.Mat4

	paddingIndices     int
	paddingEdgeIndices int
}

// numVerts returns the unique vertices appended so far.
func (b *batchBuffer) numVerts() int {
	return len(b.positions) / 3
}

// appendGeometry appends one bucket's positions and aligned primitives to
// its width class. When owner is non-negative, portion-id entries are
// recorded for every primitive group. It returns the vertex base.
func (b *batchBuffer) appendGeometry(bucket geometry.Bucket[uint16], owner int) (vertexBase int) {
	vertexBase = b.numVerts()
	b.positions = append(b.positions, bucket.Positions...)

	class := bucket.WidthClass()

	indices, pad := geometry.Align(bucket.Indices, 3)
	b.paddingIndices += pad
	b.indices[class] = append(b.indices[class], indices...)

	edges, pad := geometry.Align(bucket.EdgeIndices, 2)
	b.paddingEdgeIndices += pad
	b.edgeIndices[class] = append(b.edgeIndices[class], edges...)

	if owner >= 0 {
		for i := 0; i < len(indices)/3; i += geometry.PrimitivesPerGroup {
			b.portionIDs[class] = append(b.portionIDs[class], uint16(owner))
		}
		for i := 0; i < len(edges)/2; i += geometry.PrimitivesPerGroup {
			b.edgePortionIDs[class] = append(b.edgePortionIDs[class], uint16(owner))
		}
	}
	return vertexBase
}

// numPrimitives returns the aligned triangle and edge counts of a class.
func (b *batchBuffer) numPrimitives(class geometry.WidthClass) (triangles, edges int) {
	return len(b.indices[class]) / 3, len(b.edgeIndices[class]) / 2
}

func narrow[T datatex.Index](src []uint32) []T {
	out := make([]T, len(src))
	for i, v := range src {
		out[i] = T(v)
	}
	return out
}
