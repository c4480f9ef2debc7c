// Package texture allocates and updates the 2D data textures that carry
// per-object and per-primitive attributes to the GPU.
package texture

import "fmt"

// Format is a texel layout: component count, component type and size.
type Format int

const (
	RGBA8UI Format = iota
	RGB8UI
	RG8UI
	RGB16UI
	RG16UI
	R16UI
	RGB32UI
	RG32UI
	RGBA16F
	RGBA32F
)

type formatInfo struct {
	name       string
	components int
	size       int // bytes per component
	float      bool
}

var formats = [...]formatInfo{
	RGBA8UI: {"RGBA8UI", 4, 1, false},
	RGB8UI:  {"RGB8UI", 3, 1, false},
	RG8UI:   {"RG8UI", 2, 1, false},
	RGB16UI: {"RGB16UI", 3, 2, false},
	RG16UI:  {"RG16UI", 2, 2, false},
	R16UI:   {"R16UI", 1, 2, false},
	RGB32UI: {"RGB32UI", 3, 4, false},
	RG32UI:  {"RG32UI", 2, 4, false},
	RGBA16F: {"RGBA16F", 4, 2, true},
	RGBA32F: {"RGBA32F", 4, 4, true},
}

func (f Format) info() formatInfo {
	if f < 0 || int(f) >= len(formats) {
		panic(fmt.Sprintf("texture: unknown format %d", int(f)))
	}
	return formats[f]
}

// Components returns the number of channels per texel.
func (f Format) Components() int { return f.info().components }

// ComponentBytes returns the size of one channel in bytes.
func (f Format) ComponentBytes() int { return f.info().size }

// TexelBytes returns the size of one texel in bytes.
func (f Format) TexelBytes() int { return f.info().components * f.info().size }

// Float reports whether channels are floating point.
func (f Format) Float() bool { return f.info().float }

func (f Format) String() string {
	if f < 0 || int(f) >= len(formats) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formats[f].name
}

// UintFormat returns the unsigned integer format with the given channel
// count and channel width in bits (8, 16 or 32).
func UintFormat(components, bits int) (Format, error) {
	for f, info := range formats {
		if !info.float && info.components == components && info.size*8 == bits {
			return Format(f), nil
		}
	}
	return 0, fmt.Errorf("texture: no %d-channel %d-bit unsigned format", components, bits)
}
