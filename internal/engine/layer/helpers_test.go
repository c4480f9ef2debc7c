package layer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/internal/engine/texture"
)

func testConfig(b *texture.MemoryBackend) Config {
	return Config{
		Generator: datatex.NewGenerator(b, zap.NewNop()),
		Logger:    zap.NewNop(),
	}
}

// soup returns n separate triangles with no shared positions, the i-th
// at x = offset+i.
func soup(n int, offset float32) GeometryConfig {
	g := GeometryConfig{
		Positions: make([]float32, 0, n*9),
		Indices:   make([]uint32, 0, n*3),
	}
	for i := 0; i < n; i++ {
		x := offset + float32(i)
		g.Positions = append(g.Positions,
			x, 0, 0,
			x, 1, 0,
			x, 0, 1,
		)
		base := uint32(i * 3)
		g.Indices = append(g.Indices, base, base+1, base+2)
	}
	return g
}

func opaque(g GeometryConfig) PortionConfig {
	return PortionConfig{
		GeometryConfig: g,
		Color:          [4]uint8{200, 100, 50, 255},
		PickColor:      [4]uint8{1, 0, 0, 255},
		Flags:          FlagVisible | FlagPickable,
	}
}

func addPortion(t *testing.T, l *BatchingLayer, cfg PortionConfig) int {
	t.Helper()
	ok, err := l.CanCreatePortion(cfg)
	require.NoError(t, err)
	require.True(t, ok)
	id, err := l.CreatePortion(cfg)
	require.NoError(t, err)
	return id
}

// finalizeWith finalizes l and applies every portion's initial flags.
func finalizeWith(t *testing.T, l *BatchingLayer, cfgs ...PortionConfig) {
	t.Helper()
	require.NoError(t, l.Finalize())
	for id, cfg := range cfgs {
		require.NoError(t, l.InitFlags(id, cfg.Flags, cfg.Transparent()))
	}
	require.NoError(t, l.FlushInitFlags())
}

func colorsTexture(t *testing.T, c *core) *texture.MemoryTexture {
	t.Helper()
	tex, ok := c.State().ColorsAndFlags.Texture().(*texture.MemoryTexture)
	require.True(t, ok)
	return tex
}

func texel4(b []byte) [4]byte {
	return [4]byte{b[0], b[1], b[2], b[3]}
}
