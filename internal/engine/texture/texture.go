package texture

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty     = errors.New("texture has zero width or height")
	ErrRegion    = errors.New("region outside texture")
	ErrDataSize  = errors.New("data size does not match region")
	ErrDestroyed = errors.New("texture destroyed")
)

// Texture is a GPU texture handle that a render pass binds by unit.
type Texture interface {
	Bind(unit int)
	Unbind(unit int)

	// SubImage replaces a w×h region at (x, y). data is tightly packed.
	SubImage(x, y, w, h int, data []byte) error
	// Upload replaces the whole texture.
	Upload(data []byte) error
	Destroy() error

	Width() int
	Height() int
	Format() Format
}

// Backend creates textures. Storage is sized once at creation.
type Backend interface {
	Create(format Format, width, height int, data []byte) (Texture, error)
}

func checkCreate(format Format, width, height int, data []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %s %dx%d", ErrEmpty, format, width, height)
	}
	if data != nil && len(data) != width*height*format.TexelBytes() {
		return fmt.Errorf("%w: %s %dx%d got %d bytes", ErrDataSize, format, width, height, len(data))
	}
	return nil
}

func checkRegion(t Texture, x, y, w, h int, data []byte) error {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > t.Width() || y+h > t.Height() {
		return fmt.Errorf("%w: (%d,%d %dx%d) in %dx%d", ErrRegion, x, y, w, h, t.Width(), t.Height())
	}
	if len(data) != w*h*t.Format().TexelBytes() {
		return fmt.Errorf("%w: %dx%d %s got %d bytes", ErrDataSize, w, h, t.Format(), len(data))
	}
	return nil
}
