package texture

import (
	"fmt"
	"slices"
)

// UploadStats counts the updates a memory texture has received.
type UploadStats struct {
	SubImages   int // partial-region updates
	FullUploads int
	Bytes       int
}

// MemoryBackend keeps texture contents in host memory. It backs headless
// runs and lets tests read texels back.
type MemoryBackend struct {
	textures []*MemoryTexture
}

// NewMemoryBackend returns an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Create allocates a zeroed texture and copies initial data if given.
func (b *MemoryBackend) Create(format Format, width, height int, data []byte) (Texture, error) {
	if err := checkCreate(format, width, height, data); err != nil {
		return nil, err
	}
	t := &MemoryTexture{
		format: format,
		width:  width,
		height: height,
		pixels: make([]byte, width*height*format.TexelBytes()),
		bound:  -1,
	}
	copy(t.pixels, data)
	b.textures = append(b.textures, t)
	return t, nil
}

// Textures returns every texture created so far, destroyed ones included.
func (b *MemoryBackend) Textures() []*MemoryTexture {
	return b.textures
}

// Live returns the number of textures not yet destroyed.
func (b *MemoryBackend) Live() int {
	n := 0
	for _, t := range b.textures {
		if !t.destroyed {
			n++
		}
	}
	return n
}

// MemoryTexture is a texture held in a byte slice.
type MemoryTexture struct {
	format    Format
	width     int
	height    int
	pixels    []byte
	stats     UploadStats
	bound     int
	destroyed bool
}

func (t *MemoryTexture) Width() int     { return t.width }
func (t *MemoryTexture) Height() int    { return t.height }
func (t *MemoryTexture) Format() Format { return t.format }

// Bind records the unit the texture is bound to.
func (t *MemoryTexture) Bind(unit int) { t.bound = unit }

// Unbind clears the bound unit.
func (t *MemoryTexture) Unbind(unit int) {
	if t.bound == unit {
		t.bound = -1
	}
}

// BoundUnit returns the unit the texture is bound to, or -1.
func (t *MemoryTexture) BoundUnit() int { return t.bound }

// SubImage copies a tightly packed region into the texture.
func (t *MemoryTexture) SubImage(x, y, w, h int, data []byte) error {
	if t.destroyed {
		return ErrDestroyed
	}
	if err := checkRegion(t, x, y, w, h, data); err != nil {
		return err
	}
	texel := t.format.TexelBytes()
	rowBytes := w * texel
	for row := 0; row < h; row++ {
		dst := ((y+row)*t.width + x) * texel
		copy(t.pixels[dst:dst+rowBytes], data[row*rowBytes:(row+1)*rowBytes])
	}
	if x == 0 && y == 0 && w == t.width && h == t.height {
		t.stats.FullUploads++
	} else {
		t.stats.SubImages++
	}
	t.stats.Bytes += len(data)
	return nil
}

// Upload replaces the whole texture.
func (t *MemoryTexture) Upload(data []byte) error {
	return t.SubImage(0, 0, t.width, t.height, data)
}

// Destroy marks the texture released. Contents stay readable.
func (t *MemoryTexture) Destroy() error {
	if t.destroyed {
		return ErrDestroyed
	}
	t.destroyed = true
	return nil
}

// Destroyed reports whether Destroy has been called.
func (t *MemoryTexture) Destroyed() bool { return t.destroyed }

// Stats returns the update counters.
func (t *MemoryTexture) Stats() UploadStats { return t.stats }

// Texel returns a copy of the bytes of the texel at (x, y).
func (t *MemoryTexture) Texel(x, y int) []byte {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		panic(fmt.Sprintf("texture: texel (%d,%d) outside %dx%d", x, y, t.width, t.height))
	}
	texel := t.format.TexelBytes()
	off := (y*t.width + x) * texel
	return slices.Clone(t.pixels[off : off+texel])
}

// Pixels returns a copy of the full texture contents.
func (t *MemoryTexture) Pixels() []byte {
	return slices.Clone(t.pixels)
}
