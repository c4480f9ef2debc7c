package layer

import (
	"encoding/binary"
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/internal/engine/texture"
	"github.com/Faultbox/dtx/pkg/geometry"
	"github.com/Faultbox/dtx/pkg/math"
)

func registerGeometry(t *testing.T, l *InstancingLayer, id string, g GeometryConfig) {
	t.Helper()
	plan, err := l.PlanGeometry(g)
	require.NoError(t, err)
	require.True(t, l.FitsGeometry(plan))
	require.NoError(t, l.RegisterGeometry(id, plan))
}

func instance(x float32) InstanceConfig {
	return InstanceConfig{
		MeshMatrix: math.Translate(x, 0, 0),
		Color:      [4]uint8{10, 20, 30, 255},
		Flags:      FlagVisible | FlagPickable,
	}
}

func TestInstancesShareGeometry(t *testing.T) {
	b := texture.NewMemoryBackend()
	l := NewInstancingLayer(testConfig(b))
	registerGeometry(t, l, "tris", soup(4, 0))
	registerGeometry(t, l, "more", soup(2, 0))

	for i := 0; i < 3; i++ {
		require.True(t, l.CanCreateInstance("tris"))
		id, err := l.CreateInstance("tris", instance(float32(i*10)))
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}
	_, err := l.CreateInstance("more", instance(0))
	require.NoError(t, err)

	assert.Equal(t, 4, l.NumPortions())
	assert.Equal(t, 12+6, l.NumUniqueVerts())
	assert.Equal(t, 0, l.VertexBase(2))
	assert.Equal(t, 12, l.VertexBase(3))

	ranges, err := l.GeometryRanges("more")
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, GeometryRange{
		Class:         geometry.Width8,
		VertexBase:    12,
		FirstTriangle: geometry.PrimitivesPerGroup,
		NumTriangles:  geometry.PrimitivesPerGroup,
	}, ranges[0])

	box, err := l.PortionAABB(2)
	require.NoError(t, err)
	assert.InDelta(t, 20, box.Min[0], 1e-3)
	assert.InDelta(t, 23, box.Max[0], 1e-3)

	require.NoError(t, l.Finalize())
	s := l.State()
	assert.Nil(t, s.PortionIDs[geometry.Width8])
	require.NotNil(t, s.InstanceMatrices)
	assert.Equal(t, 8, s.InstanceMatrices.Width())
	assert.Equal(t, 4, s.InstanceMatrices.Height())

	tex, ok := s.InstanceMatrices.(*texture.MemoryTexture)
	require.True(t, ok)
	translation := tex.Texel(3, 1)
	assert.Equal(t, float32(10), gomath.Float32frombits(binary.LittleEndian.Uint32(translation)))

	look := datatex.NewLookup(s)
	assert.Equal(t, uint32(12), look.VertexBase(3))
}

func TestInstanceFanOut(t *testing.T) {
	l := NewInstancingLayer(testConfig(texture.NewMemoryBackend()))
	registerGeometry(t, l, "big", soup(100, 0))

	id, err := l.CreateInstance("big", instance(0))
	require.NoError(t, err)
	rows, err := l.FanOut(id)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, l.Finalize())
	require.NoError(t, l.InitFlags(id, FlagVisible, false))
	require.NoError(t, l.FlushInitFlags())
	assert.Equal(t, 2, l.Counters().Visible)
}

func TestInstancingErrors(t *testing.T) {
	l := NewInstancingLayer(testConfig(texture.NewMemoryBackend()))
	registerGeometry(t, l, "tris", soup(2, 0))

	plan, err := l.PlanGeometry(soup(1, 0))
	require.NoError(t, err)
	assert.ErrorIs(t, l.RegisterGeometry("tris", plan), ErrDuplicateID)

	_, err = l.CreateInstance("missing", instance(0))
	assert.ErrorIs(t, err, ErrUnknownGeometry)
	assert.False(t, l.CanCreateInstance("missing"))
	_, err = l.GeometryRanges("missing")
	assert.ErrorIs(t, err, ErrUnknownGeometry)

	_, err = l.CreateInstance("tris", instance(0))
	require.NoError(t, err)
	require.NoError(t, l.Finalize())

	_, err = l.CreateInstance("tris", instance(0))
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = l.PlanGeometry(soup(1, 0))
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestInstancingCapacityQueriesAfterFinalize(t *testing.T) {
	b := texture.NewMemoryBackend()
	l := NewInstancingLayer(testConfig(b))
	registerGeometry(t, l, "g", soup(2, 0))
	_, err := l.CreateInstance("g", instance(0))
	require.NoError(t, err)
	require.NoError(t, l.Finalize())

	assert.False(t, l.CanCreateInstance("g"))
	assert.False(t, l.CanCreateInstance("missing"))

	_, err = l.CreateInstance("g", instance(1))
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestFitsGeometryAfterFinalize(t *testing.T) {
	b := texture.NewMemoryBackend()
	l := NewInstancingLayer(testConfig(b))
	plan, err := l.PlanGeometry(soup(2, 0))
	require.NoError(t, err)
	require.NoError(t, l.RegisterGeometry("g", plan))
	_, err = l.CreateInstance("g", instance(0))
	require.NoError(t, err)
	require.NoError(t, l.Finalize())

	assert.False(t, l.FitsGeometry(plan))
	assert.ErrorIs(t, l.RegisterGeometry("h", plan), ErrAlreadyFinalized)
}
