package datatex

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/x448/float16"

	"github.com/Faultbox/dtx/internal/engine/texture"
	"github.com/Faultbox/dtx/pkg/geometry"
	"github.com/Faultbox/dtx/pkg/math"
)

// TexelReader reads back one texel. Memory textures implement it.
type TexelReader interface {
	Texel(x, y int) []byte
}

// ErrNotReadable is returned when a texture cannot be read back.
var ErrNotReadable = errors.New("texture cannot be read back")

// Lookup decodes a State the way the batching shaders do: primitive to
// portion, portion to vertex base, primitive to vertex indices, vertex to
// quantized position.
type Lookup struct {
	s *State
}

// NewLookup wraps a state whose textures are readable.
func NewLookup(s *State) *Lookup {
	return &Lookup{s: s}
}

func reader(t texture.Texture) (TexelReader, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: missing", ErrNotReadable)
	}
	r, ok := t.(TexelReader)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotReadable, t)
	}
	return r, nil
}

// Portion returns the portion owning a triangle (or edge, if edges is set)
// of the given width class.
func (l *Lookup) Portion(class geometry.WidthClass, primitive int, edges bool) (int, error) {
	t := l.s.PortionIDs[class]
	if edges {
		t = l.s.EdgePortionIDs[class]
	}
	r, err := reader(t)
	if err != nil {
		return 0, err
	}
	x, y := TexelCoords(primitive / geometry.PrimitivesPerGroup)
	return int(binary.LittleEndian.Uint16(r.Texel(x, y))), nil
}

// VertexBase decodes the big-endian vertex base of a portion.
func (l *Lookup) VertexBase(portion int) uint32 {
	t := l.s.ColorsAndFlags.Texel(ColVertexBase, portion)
	return uint32(t[0])<<24 + uint32(t[1])<<16 + uint32(t[2])<<8 + uint32(t[3])
}

// Flags returns the render-pass bytes of a portion.
func (l *Lookup) Flags(portion int) [4]byte {
	return l.s.ColorsAndFlags.Texel(ColFlags, portion)
}

// Color returns the RGBA color of a portion.
func (l *Lookup) Color(portion int) [4]byte {
	return l.s.ColorsAndFlags.Texel(ColColor, portion)
}

// Primitive returns the layer-wide vertex ids of a triangle (arity 3) or
// edge (arity 2): the stored local indices plus the owning portion's
// vertex base.
func (l *Lookup) Primitive(class geometry.WidthClass, primitive int, edges bool) ([]uint32, error) {
	t := l.s.Indices[class]
	arity := 3
	if edges {
		t = l.s.EdgeIndices[class]
		arity = 2
	}
	r, err := reader(t)
	if err != nil {
		return nil, err
	}
	portion, err := l.Portion(class, primitive, edges)
	if err != nil {
		return nil, err
	}
	base := l.VertexBase(portion)

	x, y := TexelCoords(primitive)
	texel := r.Texel(x, y)
	size := class.Bytes()
	out := make([]uint32, arity)
	for i := range out {
		var v uint32
		switch size {
		case 1:
			v = uint32(texel[i])
		case 2:
			v = uint32(binary.LittleEndian.Uint16(texel[i*2:]))
		default:
			v = binary.LittleEndian.Uint32(texel[i*4:])
		}
		out[i] = base + v
	}
	return out, nil
}

// Position returns the quantized position of a layer-wide vertex id.
func (l *Lookup) Position(vertex uint32) ([3]uint16, error) {
	r, err := reader(l.s.Positions)
	if err != nil {
		return [3]uint16{}, err
	}
	x, y := TexelCoords(int(vertex))
	texel := r.Texel(x, y)
	return [3]uint16{
		binary.LittleEndian.Uint16(texel[0:]),
		binary.LittleEndian.Uint16(texel[2:]),
		binary.LittleEndian.Uint16(texel[4:]),
	}, nil
}

// DecodeMatrix returns the decode matrix of a portion as stored, that is
// rounded to half precision.
func (l *Lookup) DecodeMatrix(portion int) (math.Mat4, error) {
	r, err := reader(l.s.DecodeMatrices)
	if err != nil {
		return math.Mat4{}, err
	}
	var m math.Mat4
	for col := 0; col < 4; col++ {
		texel := r.Texel(col, portion)
		for c := 0; c < 4; c++ {
			m[col*4+c] = float16.Frombits(binary.LittleEndian.Uint16(texel[c*2:])).Float32()
		}
	}
	return m, nil
}

// Matrix reads one row of a matrix texture.
func Matrix(m *MatrixTexture, row int) (math.Mat4, error) {
	r, err := reader(m.Texture())
	if err != nil {
		return math.Mat4{}, err
	}
	var out math.Mat4
	for col := 0; col < 4; col++ {
		texel := r.Texel(col, row)
		for c := 0; c < 4; c++ {
			out[col*4+c] = gomath.Float32frombits(binary.LittleEndian.Uint32(texel[c*4:]))
		}
	}
	return out, nil
}
