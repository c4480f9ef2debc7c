package geometry

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/dtx/pkg/math"
)

func edgeSetOf(edges []uint32) map[uint64]bool {
	out := make(map[uint64]bool)
	for i := 0; i+1 < len(edges); i += 2 {
		out[edgeKey(edges[i], edges[i+1])] = true
	}
	return out
}

func TestBuildEdgeIndicesFlatQuad(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	edges, err := BuildEdgeIndices(NewUniquifier(), positions, indices, math.Identity(), DefaultEdgeThreshold)
	require.NoError(t, err)

	// The shared diagonal is coplanar and dropped; the outline stays.
	got := edgeSetOf(edges)
	assert.Len(t, got, 4)
	assert.False(t, got[edgeKey(0, 2)])
	assert.True(t, got[edgeKey(0, 1)])
	assert.True(t, got[edgeKey(3, 0)])
}

func TestBuildEdgeIndicesFold(t *testing.T) {
	// Two triangles meeting at a right angle along x.
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
	indices := []uint32{0, 1, 2, 0, 3, 1}

	edges, err := BuildEdgeIndices(NewUniquifier(), positions, indices, math.Identity(), DefaultEdgeThreshold)
	require.NoError(t, err)
	assert.True(t, edgeSetOf(edges)[edgeKey(0, 1)])

	edges, err = BuildEdgeIndices(NewUniquifier(), positions, indices, math.Identity(), 120)
	require.NoError(t, err)
	assert.False(t, edgeSetOf(edges)[edgeKey(0, 1)])
}

func TestBuildEdgeIndicesWeldsSeams(t *testing.T) {
	// Same flat quad, but the diagonal vertices are duplicated.
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 0, 0,
		1, 1, 0,
		0, 1, 0,
	}
	indices := []uint32{0, 1, 2, 3, 4, 5}

	edges, err := BuildEdgeIndices(NewUniquifier(), positions, indices, math.Identity(), DefaultEdgeThreshold)
	require.NoError(t, err)
	assert.Len(t, edges, 8)
	for _, idx := range edges {
		assert.Less(t, int(idx), 6)
	}
}

// shallowFold is two triangles sharing the edge (0,0,0)-(0,0,1) with a
// 5 degree crease between them. Its bounding box is 2 wide but under
// 0.09 tall, so quantization stretches y far more than x.
func shallowFold() ([]float32, []uint32) {
	c, s := math32.Cos(5*math32.Pi/180), math32.Sin(5*math32.Pi/180)
	positions := []float32{
		0, 0, 0,
		0, 0, 1,
		-1, 0, 0,
		c, s, 0,
	}
	return positions, []uint32{0, 1, 2, 0, 3, 1}
}

func TestBuildEdgeIndicesQuantizedAnisotropic(t *testing.T) {
	positions, indices := shallowFold()
	q, decode := QuantizePositions(positions)

	edges, err := BuildEdgeIndices(NewUniquifier(), q, indices, decode, DefaultEdgeThreshold)
	require.NoError(t, err)
	got := edgeSetOf(edges)
	assert.Len(t, got, 4, "the 5 degree crease is below the threshold")
	assert.False(t, got[edgeKey(0, 1)])

	// Measured in quantized space the crease looks much sharper.
	raw, err := BuildEdgeIndices(NewUniquifier(), q, indices, math.Identity(), DefaultEdgeThreshold)
	require.NoError(t, err)
	assert.Len(t, edgeSetOf(raw), 5)

	direct, err := BuildEdgeIndices(NewUniquifier(), positions, indices, math.Identity(), DefaultEdgeThreshold)
	require.NoError(t, err)
	assert.Equal(t, got, edgeSetOf(direct))
}
