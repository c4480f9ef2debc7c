package datatex

import (
	"encoding/binary"
	"fmt"
	gomath "math"
	"unsafe"

	"github.com/x448/float16"

	"github.com/Faultbox/dtx/internal/engine/texture"
	"github.com/Faultbox/dtx/pkg/math"
)

// DecodeMatrices builds the per-object positions-decode-matrix texture:
// one row per object, four RGBA16F texels holding the matrix columns.
func (g *Generator) DecodeMatrices(mats []math.Mat4) (texture.Texture, error) {
	if len(mats) == 0 {
		return nil, fmt.Errorf("decode matrices: %w", ErrEmptyTexture)
	}
	data := make([]byte, 0, len(mats)*16*2)
	for _, m := range mats {
		for _, v := range m {
			data = binary.LittleEndian.AppendUint16(data, float16.Fromfloat32(v).Bits())
		}
	}
	return g.create("decode matrices", texture.RGBA16F, 4, len(mats), data)
}

// Positions builds the vertex-coordinates texture from quantized XYZ
// triples, wrapped at TextureWidth vertices per row.
func (g *Generator) Positions(positions []uint16) (texture.Texture, error) {
	numVerts := len(positions) / 3
	if numVerts == 0 {
		return nil, fmt.Errorf("positions: %w", ErrEmptyTexture)
	}
	height := wrappedHeight(numVerts)
	data := make([]byte, TextureWidth*height*3*2)
	for i, v := range positions[:numVerts*3] {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	return g.create("positions", texture.RGB16UI, TextureWidth, height, data)
}

// PortionIDs builds a portion-id texture with one R16UI texel per group of
// eight primitives. Empty input yields a nil texture and no error.
func (g *Generator) PortionIDs(ids []uint16) (texture.Texture, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	height := wrappedHeight(len(ids))
	data := make([]byte, TextureWidth*height*2)
	for i, id := range ids {
		binary.LittleEndian.PutUint16(data[i*2:], id)
	}
	return g.create("portion ids", texture.R16UI, TextureWidth, height, data)
}

// Index is an index element of one width class.
type Index interface {
	~uint8 | ~uint16 | ~uint32
}

// Primitives builds an indices (arity 3) or edge-indices (arity 2) texture
// whose channel width follows the element type. One texel holds one
// primitive. Empty input yields a nil texture and no error.
func Primitives[T Index](g *Generator, indices []T, arity int) (texture.Texture, error) {
	numPrimitives := len(indices) / arity
	if numPrimitives == 0 {
		return nil, nil
	}
	size := int(unsafe.Sizeof(T(0)))
	format, err := texture.UintFormat(arity, size*8)
	if err != nil {
		return nil, err
	}
	height := wrappedHeight(numPrimitives)
	data := make([]byte, TextureWidth*height*arity*size)
	for i, v := range indices[:numPrimitives*arity] {
		switch size {
		case 1:
			data[i] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
		default:
			binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
		}
	}
	return g.create(fmt.Sprintf("%d-bit primitives", size*8), format, TextureWidth, height, data)
}

// MatrixTexture holds one 4×4 float matrix per row as four RGBA32F texels.
type MatrixTexture struct {
	tex  texture.Texture
	rows int
}

func (g *Generator) matrices(name string, rows int) (*MatrixTexture, error) {
	tex, err := g.create(name, texture.RGBA32F, 4, rows, nil)
	if err != nil {
		return nil, err
	}
	return &MatrixTexture{tex: tex, rows: rows}, nil
}

// CameraMatrices creates the camera texture: view, view-normal, projection.
func (g *Generator) CameraMatrices() (*MatrixTexture, error) {
	return g.matrices("camera matrices", 3)
}

// ModelMatrices creates the model texture: world, world-normal.
func (g *Generator) ModelMatrices() (*MatrixTexture, error) {
	return g.matrices("model matrices", 2)
}

// InstanceMatrices builds the per-instance texture: one row per instance
// holding the mesh matrix in texels 0-3 and its normal matrix in 4-7.
func (g *Generator) InstanceMatrices(mesh, normal []math.Mat4) (texture.Texture, error) {
	if len(mesh) == 0 {
		return nil, fmt.Errorf("instance matrices: %w", ErrEmptyTexture)
	}
	if len(normal) != len(mesh) {
		return nil, fmt.Errorf("instance matrices: %d mesh vs %d normal matrices", len(mesh), len(normal))
	}
	data := make([]byte, 0, len(mesh)*32*4)
	for i := range mesh {
		data = appendMatrix(data, mesh[i])
		data = appendMatrix(data, normal[i])
	}
	return g.create("instance matrices", texture.RGBA32F, 8, len(mesh), data)
}

func appendMatrix(data []byte, m math.Mat4) []byte {
	for _, v := range m {
		data = binary.LittleEndian.AppendUint32(data, gomath.Float32bits(v))
	}
	return data
}

// Texture returns the GPU texture.
func (m *MatrixTexture) Texture() texture.Texture { return m.tex }

// Update replaces every row, in order.
func (m *MatrixTexture) Update(mats ...math.Mat4) error {
	if len(mats) != m.rows {
		return fmt.Errorf("matrix texture has %d rows, got %d matrices", m.rows, len(mats))
	}
	data := make([]byte, 0, m.rows*64)
	for _, mat := range mats {
		data = appendMatrix(data, mat)
	}
	return m.tex.Upload(data)
}

// Destroy releases the texture.
func (m *MatrixTexture) Destroy() error {
	return m.tex.Destroy()
}
