package texture

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

type glFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

var glFormats = [...]glFormat{
	RGBA8UI: {gl.RGBA8UI, gl.RGBA_INTEGER, gl.UNSIGNED_BYTE},
	RGB8UI:  {gl.RGB8UI, gl.RGB_INTEGER, gl.UNSIGNED_BYTE},
	RG8UI:   {gl.RG8UI, gl.RG_INTEGER, gl.UNSIGNED_BYTE},
	RGB16UI: {gl.RGB16UI, gl.RGB_INTEGER, gl.UNSIGNED_SHORT},
	RG16UI:  {gl.RG16UI, gl.RG_INTEGER, gl.UNSIGNED_SHORT},
	R16UI:   {gl.R16UI, gl.RED_INTEGER, gl.UNSIGNED_SHORT},
	RGB32UI: {gl.RGB32UI, gl.RGB_INTEGER, gl.UNSIGNED_INT},
	RG32UI:  {gl.RG32UI, gl.RG_INTEGER, gl.UNSIGNED_INT},
	RGBA16F: {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT},
	RGBA32F: {gl.RGBA32F, gl.RGBA, gl.FLOAT},
}

// GLBackend creates textures on the current OpenGL context. All calls
// must happen on the thread that owns the context.
type GLBackend struct {
	log *zap.Logger
}

// NewGLBackend returns a backend bound to the current context.
func NewGLBackend(log *zap.Logger) *GLBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &GLBackend{log: log}
}

// GLTexture is an OpenGL texture with nearest filtering and edge clamping.
type GLTexture struct {
	id     uint32
	format Format
	width  int
	height int
}

// Create allocates storage and optionally uploads initial data.
func (b *GLBackend) Create(format Format, width, height int, data []byte) (Texture, error) {
	if err := checkCreate(format, width, height, data); err != nil {
		return nil, err
	}
	f := glFormats[format]

	t := &GLTexture{format: format, width: width, height: height}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	// Rows of RGB8 and RGB16 texels are not 4-byte aligned.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, f.internal, int32(width), int32(height), 0, f.format, f.xtype, pointer(data))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &t.id)
		return nil, fmt.Errorf("creating %s texture %dx%d: gl error 0x%x", format, width, height, code)
	}

	b.log.Debug("texture created",
		zap.Uint32("id", t.id),
		zap.Stringer("format", format),
		zap.Int("width", width),
		zap.Int("height", height))
	return t, nil
}

func pointer(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(&data[0])
}

// ID returns the OpenGL texture name.
func (t *GLTexture) ID() uint32 { return t.id }

func (t *GLTexture) Width() int     { return t.width }
func (t *GLTexture) Height() int    { return t.height }
func (t *GLTexture) Format() Format { return t.format }

// Bind binds the texture to a texture unit.
func (t *GLTexture) Bind(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, t.id)
}

// Unbind clears a texture unit.
func (t *GLTexture) Unbind(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// SubImage updates a region in place.
func (t *GLTexture) SubImage(x, y, w, h int, data []byte) error {
	if t.id == 0 {
		return ErrDestroyed
	}
	if err := checkRegion(t, x, y, w, h, data); err != nil {
		return err
	}
	f := glFormats[t.format]
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, int32(x), int32(y), int32(w), int32(h), f.format, f.xtype, gl.Ptr(&data[0]))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// Upload replaces the full texture contents.
func (t *GLTexture) Upload(data []byte) error {
	return t.SubImage(0, 0, t.width, t.height, data)
}

// Destroy releases the GPU texture.
func (t *GLTexture) Destroy() error {
	if t.id == 0 {
		return ErrDestroyed
	}
	gl.DeleteTextures(1, &t.id)
	t.id = 0
	return nil
}
