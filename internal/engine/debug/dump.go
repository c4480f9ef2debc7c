// Package debug writes data textures to disk for inspection.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// TextureDump writes RGBA8 texture contents as PNG files.
type TextureDump struct {
	outputDir string
	prefix    string
}

// NewTextureDump creates a dump handler writing into outputDir.
func NewTextureDump(outputDir, prefix string) *TextureDump {
	return &TextureDump{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// SetOutputDir sets the output directory for dumps.
func (d *TextureDump) SetOutputDir(dir string) {
	d.outputDir = dir
}

// Filename returns the path a dump of the named texture goes to.
func (d *TextureDump) Filename(name string, index int) string {
	filename := fmt.Sprintf("%s_%s_%03d.png", d.prefix, name, index)
	if d.outputDir != "" {
		filename = filepath.Join(d.outputDir, filename)
	}
	return filename
}

// DumpRGBA8 writes width*height texels of 4 bytes each. Row 0 of the
// texture is the top row of the image, so object rows read top to bottom.
// Alpha is stored unpremultiplied since flag texels are not colors.
func (d *TextureDump) DumpRGBA8(name string, index int, pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	if d.outputDir != "" {
		if err := os.MkdirAll(d.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[y*rowSize:(y+1)*rowSize])
	}

	filename := d.Filename(name, index)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}

	return filename, nil
}
