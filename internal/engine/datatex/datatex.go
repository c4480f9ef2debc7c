// Package datatex encodes batched geometry and per-object state into the
// fixed-layout data textures read by the batching shaders.
//
// Every texture is addressed by (column, row). Per-object textures use one
// row per physical portion; per-vertex and per-primitive textures wrap at
// TextureWidth texels per row, so element i lives at (i&511, i>>9).
package datatex

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dtx/internal/engine/texture"
	"github.com/Faultbox/dtx/internal/logger"
)

const (
	// TextureWidth is the row width of every wrapped texture.
	TextureWidth = 512
	// MaxTextureHeight bounds the rows of any one texture.
	MaxTextureHeight = 2048
	// MaxTexels is the addressable element count of one wrapped texture.
	MaxTexels = TextureWidth * MaxTextureHeight

	textureWidthShift = 9
	textureWidthMask  = TextureWidth - 1
)

// ErrEmptyTexture is returned by generators that require at least one row.
var ErrEmptyTexture = errors.New("zero-height data texture")

// TexelCoords maps an element index to its texel in a wrapped texture.
func TexelCoords(i int) (x, y int) {
	return i & textureWidthMask, i >> textureWidthShift
}

// wrappedHeight returns the rows needed for n elements.
func wrappedHeight(n int) int {
	return (n + TextureWidth - 1) / TextureWidth
}

// Generator builds data textures on a texture backend.
type Generator struct {
	backend texture.Backend
	log     *zap.Logger
}

// NewGenerator returns a generator. A nil logger uses the global one.
func NewGenerator(backend texture.Backend, log *zap.Logger) *Generator {
	if log == nil {
		log = logger.Named("datatex")
	}
	return &Generator{backend: backend, log: log}
}

// Backend returns the backend textures are created on.
func (g *Generator) Backend() texture.Backend {
	return g.backend
}

func (g *Generator) create(name string, format texture.Format, width, height int, data []byte) (texture.Texture, error) {
	if height > MaxTextureHeight {
		g.log.Warn("data texture exceeds max height",
			zap.String("texture", name),
			zap.Int("height", height))
	}
	tex, err := g.backend.Create(format, width, height, data)
	if err != nil {
		return nil, fmt.Errorf("creating %s texture: %w", name, err)
	}
	return tex, nil
}
