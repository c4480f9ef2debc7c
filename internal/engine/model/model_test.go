package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/engine/camera"
	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/internal/engine/layer"
	"github.com/Faultbox/dtx/internal/engine/picking"
	"github.com/Faultbox/dtx/internal/engine/texture"
	"github.com/Faultbox/dtx/pkg/math"
)

func newModel(mutate func(*Config)) (*Model, *texture.MemoryBackend) {
	b := texture.NewMemoryBackend()
	cfg := Config{
		Generator: datatex.NewGenerator(b, zap.NewNop()),
		Logger:    zap.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg), b
}

// strip returns n separate triangles in the plane x = offset + i.
func strip(n int, offset float32) layer.PortionConfig {
	g := layer.GeometryConfig{}
	for i := 0; i < n; i++ {
		x := offset + float32(i)
		g.Positions = append(g.Positions, x, 0, 0, x, 1, 0, x, 0, 1)
		base := uint32(i * 3)
		g.Indices = append(g.Indices, base, base+1, base+2)
	}
	return layer.PortionConfig{
		GeometryConfig: g,
		Color:          [4]uint8{255, 255, 255, 255},
		Flags:          layer.FlagVisible | layer.FlagPickable,
	}
}

func TestPortionsRouteToNewLayer(t *testing.T) {
	m, _ := newModel(func(c *Config) { c.MaxGeometryBatchSize = 30 })

	for i := 0; i < 3; i++ {
		id, err := m.CreatePortion(strip(4, float32(i*10)))
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}
	require.Len(t, m.BatchingLayers(), 2)
	assert.Equal(t, 2, m.BatchingLayers()[0].NumPortions())
	assert.Equal(t, 1, m.BatchingLayers()[1].NumPortions())

	require.NoError(t, m.Finalize())
	assert.Equal(t, 3, m.Counters().Portions)
	assert.Equal(t, 3, m.Counters().Visible)

	stats := m.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, 0, stats[0].Index)
	assert.Equal(t, 1, stats[1].Index)
}

func TestCountersAggregateLayers(t *testing.T) {
	m, _ := newModel(func(c *Config) { c.MaxGeometryBatchSize = 12 })
	a, err := m.CreatePortion(strip(4, 0))
	require.NoError(t, err)
	b, err := m.CreatePortion(strip(4, 10))
	require.NoError(t, err)
	require.NoError(t, m.Finalize())
	require.Len(t, m.BatchingLayers(), 2)

	require.NoError(t, m.SetSelected(a, true))
	require.NoError(t, m.SetSelected(b, true))
	require.NoError(t, m.SetCulled(b, true))

	var sum layer.Counters
	for _, l := range m.BatchingLayers() {
		sum.Add(l.Counters())
	}
	assert.Equal(t, sum, *m.Counters())
	assert.Equal(t, 2, m.Counters().Selected)
	assert.Equal(t, 1, m.Counters().Culled)
	assert.False(t, m.Skip(layer.PassSilhouetteSelected))
	assert.True(t, m.Skip(layer.PassColorTransparent))

	flags, _, err := m.Flags(b)
	require.NoError(t, err)
	assert.True(t, flags.Has(layer.FlagSelected|layer.FlagCulled))
}

func TestInitialFlagsApplied(t *testing.T) {
	m, _ := newModel(nil)
	hidden := strip(2, 0)
	hidden.Flags = 0
	translucent := strip(2, 10)
	translucent.Color[3] = 100

	_, err := m.CreatePortion(hidden)
	require.NoError(t, err)
	_, err = m.CreatePortion(translucent)
	require.NoError(t, err)
	require.NoError(t, m.Finalize())

	look := datatex.NewLookup(m.BatchingLayers()[0].State())
	assert.Equal(t, [4]byte{}, look.Flags(0))
	assert.Equal(t, layer.RenderPasses{layer.PassColorTransparent, 0, 0, layer.PassPick}.Bytes(), look.Flags(1))
	assert.Equal(t, 1, m.Counters().Transparent)
}

func TestSharedMatrixTextures(t *testing.T) {
	m, _ := newModel(func(c *Config) { c.MaxGeometryBatchSize = 6 })
	for i := 0; i < 2; i++ {
		_, err := m.CreatePortion(strip(2, float32(i*10)))
		require.NoError(t, err)
	}
	require.NoError(t, m.Finalize())

	layers := m.BatchingLayers()
	require.Len(t, layers, 2)
	assert.Same(t, layers[0].State().Camera, layers[1].State().Camera)
	assert.Same(t, layers[0].State().Model, layers[1].State().Model)

	cam := camera.NewOrbitCamera(1)
	tex := layers[0].State().Camera.Texture().(*texture.MemoryTexture)

	updated, err := m.OnFrame(cam)
	require.NoError(t, err)
	assert.True(t, updated)
	updated, err = m.OnFrame(cam)
	require.NoError(t, err)
	assert.False(t, updated, "unchanged camera")
	assert.Equal(t, 1, tex.Stats().FullUploads)

	cam.HandleZoom(1)
	updated, err = m.OnFrame(cam)
	require.NoError(t, err)
	assert.True(t, updated)

	proj, err := datatex.Matrix(layers[0].State().Camera, 2)
	require.NoError(t, err)
	assert.Equal(t, cam.ProjMatrix(), proj)
}

func TestSetWorldMatrix(t *testing.T) {
	m, _ := newModel(nil)
	_, err := m.CreatePortion(strip(2, 0))
	require.NoError(t, err)
	require.NoError(t, m.Finalize())

	world := math.Translate(5, 0, 0)
	require.NoError(t, m.SetWorldMatrix(world))

	got, err := datatex.Matrix(m.BatchingLayers()[0].State().Model, 0)
	require.NoError(t, err)
	assert.Equal(t, world, got)

	box := m.AABB()
	assert.InDelta(t, 5, box.Min[0], 1e-3)
	assert.InDelta(t, 6, box.Max[0], 1e-3)
}

func TestDeferredAcrossLayers(t *testing.T) {
	m, b := newModel(func(c *Config) { c.MaxGeometryBatchSize = 6 })
	var ids []int
	for i := 0; i < 3; i++ {
		id, err := m.CreatePortion(strip(2, float32(i*10)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, m.Finalize())

	subImages := func() int {
		n := 0
		for _, tex := range b.Textures() {
			n += tex.Stats().SubImages
		}
		return n
	}

	m.BeginDeferredFlags()
	for _, id := range ids {
		require.NoError(t, m.SetHighlighted(id, true))
		require.NoError(t, m.SetColor(id, [4]uint8{1, 1, 1, 255}))
	}
	assert.Zero(t, subImages())
	require.NoError(t, m.CommitDeferredFlags())
	assert.Zero(t, subImages())

	for _, l := range m.BatchingLayers() {
		look := datatex.NewLookup(l.State())
		assert.Equal(t, byte(layer.PassSilhouetteHighlighted), look.Flags(0)[1])
		assert.Equal(t, [4]byte{1, 1, 1, 255}, look.Color(0))
	}
}

func TestInstancesThroughModel(t *testing.T) {
	m, _ := newModel(nil)
	require.NoError(t, m.RegisterGeometry("tri", strip(1, 0).GeometryConfig))
	assert.ErrorIs(t, m.RegisterGeometry("tri", strip(1, 0).GeometryConfig), layer.ErrDuplicateID)

	portion, err := m.CreatePortion(strip(2, 0))
	require.NoError(t, err)
	inst, err := m.CreateInstance("tri", layer.InstanceConfig{
		MeshMatrix: math.Translate(0, 0, 5),
		Color:      [4]uint8{9, 9, 9, 255},
		Flags:      layer.FlagVisible,
	})
	require.NoError(t, err)
	assert.Equal(t, portion+1, inst)

	_, err = m.CreateInstance("nope", layer.InstanceConfig{})
	assert.ErrorIs(t, err, layer.ErrUnknownGeometry)

	require.NoError(t, m.Finalize())
	assert.Len(t, m.InstancingLayers(), 1)
	assert.Equal(t, 2, m.NumEntities())
	assert.Equal(t, 2, m.Counters().Visible)

	require.NoError(t, m.SetXRayed(inst, true))
	assert.Equal(t, 1, m.Counters().XRayed)
	assert.Equal(t, 1, m.InstancingLayers()[0].Counters().XRayed)
}

func TestInstancesSpillToNewLayer(t *testing.T) {
	m, _ := newModel(nil)
	require.NoError(t, m.RegisterGeometry("tri", strip(1, 0).GeometryConfig))

	total := layer.MaxObjects + 5
	for i := 0; i < total; i++ {
		id, err := m.CreateInstance("tri", layer.InstanceConfig{
			MeshMatrix: math.Translate(float32(i), 0, 0),
			Color:      [4]uint8{255, 255, 255, 255},
			Flags:      layer.FlagVisible,
		})
		require.NoErrorf(t, err, "instance %d", i)
		require.Equal(t, i, id)
	}

	require.Len(t, m.InstancingLayers(), 2)
	assert.Equal(t, layer.MaxObjects, m.InstancingLayers()[0].NumPortions())
	assert.Equal(t, 5, m.InstancingLayers()[1].NumPortions())

	require.NoError(t, m.Finalize())
	assert.Equal(t, total, m.NumEntities())
	assert.Equal(t, total, m.Counters().Visible)

	require.NoError(t, m.SetSelected(total-1, true))
	assert.Equal(t, 1, m.InstancingLayers()[1].Counters().Selected)
	assert.Equal(t, 0, m.InstancingLayers()[0].Counters().Selected)
}

func TestPrecisionPickAcrossEntities(t *testing.T) {
	m, _ := newModel(func(c *Config) {
		c.PrecisionPicking = true
		c.MaxGeometryBatchSize = 3
	})
	near, err := m.CreatePortion(strip(1, 0))
	require.NoError(t, err)
	far, err := m.CreatePortion(strip(1, 10))
	require.NoError(t, err)
	require.NoError(t, m.Finalize())

	ray := picking.Ray{Origin: [3]float32{-5, 0.2, 0.2}, Direction: [3]float32{1, 0, 0}}

	hit, ok, err := m.PrecisionPick(ray)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, near, hit.Portion)
	assert.InDelta(t, 5, hit.Distance, 1e-3)

	require.NoError(t, m.SetVisible(near, false))
	hit, ok, err = m.PrecisionPick(ray)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, far, hit.Portion)

	require.NoError(t, m.SetPickable(far, false))
	_, ok, err = m.PrecisionPick(ray)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestModelUsageErrors(t *testing.T) {
	m, _ := newModel(nil)
	id, err := m.CreatePortion(strip(1, 0))
	require.NoError(t, err)

	assert.ErrorIs(t, m.SetVisible(id, false), layer.ErrNotFinalized)
	_, _, err = m.PrecisionPick(picking.Ray{})
	assert.ErrorIs(t, err, layer.ErrNotFinalized)

	require.NoError(t, m.Finalize())
	assert.ErrorIs(t, m.Finalize(), layer.ErrAlreadyFinalized)
	_, err = m.CreatePortion(strip(1, 0))
	assert.ErrorIs(t, err, layer.ErrAlreadyFinalized)
	assert.ErrorIs(t, m.SetVisible(99, true), layer.ErrUnknownPortion)
	assert.ErrorIs(t, m.SetOffset(id, [3]float32{1, 0, 0}), layer.ErrOffsetsDisabled)

	// A rejected change leaves the model state alone.
	flags, _, err := m.Flags(id)
	require.NoError(t, err)
	assert.True(t, flags.Has(layer.FlagVisible))
}

func TestDestroyReleasesEverything(t *testing.T) {
	m, b := newModel(func(c *Config) { c.MaxGeometryBatchSize = 3 })
	for i := 0; i < 2; i++ {
		_, err := m.CreatePortion(strip(1, float32(i)))
		require.NoError(t, err)
	}
	require.NoError(t, m.RegisterGeometry("g", strip(1, 0).GeometryConfig))
	_, err := m.CreateInstance("g", layer.InstanceConfig{Flags: layer.FlagVisible})
	require.NoError(t, err)
	require.NoError(t, m.Finalize())
	require.Positive(t, b.Live())

	require.NoError(t, m.Destroy())
	assert.Zero(t, b.Live())
}
