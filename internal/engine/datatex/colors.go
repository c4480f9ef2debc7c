package datatex

import (
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/dtx/internal/engine/texture"
)

// Columns of the colors-and-flags texture. Each is one RGBA8UI texel.
const (
	ColColor = iota
	ColPickColor
	ColFlags
	ColFlags2
	ColVertexBase
	colReserved

	NumObjectColumns
)

// ObjectRowBytes is the size of one colors-and-flags row.
const ObjectRowBytes = NumObjectColumns * 4

// ObjectRow is the initial content of one colors-and-flags row.
type ObjectRow struct {
	Color      [4]uint8
	PickColor  [4]uint8
	VertexBase uint32
}

// InitialFlags2 is the flags2 texel before clippability is applied.
// Bytes 1-3 are fixed markers read by the shaders.
var InitialFlags2 = [4]byte{0, 0, 1, 2}

// ColorsAndFlags is the per-object colors-and-flags texture together with
// its host-side shadow copy. Writes go to the shadow first; the caller
// decides whether to push a single texel or the whole texture.
type ColorsAndFlags struct {
	tex  texture.Texture
	data []byte
	rows int
}

// ColorsAndFlags builds the per-object texture. Flag bytes start zeroed.
func (g *Generator) ColorsAndFlags(rows []ObjectRow) (*ColorsAndFlags, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("colors and flags: %w", ErrEmptyTexture)
	}
	data := make([]byte, len(rows)*ObjectRowBytes)
	for i, r := range rows {
		row := data[i*ObjectRowBytes : (i+1)*ObjectRowBytes]
		copy(row[ColColor*4:], r.Color[:])
		copy(row[ColPickColor*4:], r.PickColor[:])
		copy(row[ColFlags2*4:], InitialFlags2[:])
		binary.BigEndian.PutUint32(row[ColVertexBase*4:], r.VertexBase)
	}
	tex, err := g.create("colors and flags", texture.RGBA8UI, NumObjectColumns, len(rows), data)
	if err != nil {
		return nil, err
	}
	return &ColorsAndFlags{tex: tex, data: data, rows: len(rows)}, nil
}

// Texture returns the GPU texture.
func (c *ColorsAndFlags) Texture() texture.Texture { return c.tex }

// Rows returns the number of object rows.
func (c *ColorsAndFlags) Rows() int { return c.rows }

// Texel returns the shadow value at (col, row).
func (c *ColorsAndFlags) Texel(col, row int) [4]byte {
	off := row*ObjectRowBytes + col*4
	return [4]byte(c.data[off : off+4])
}

// Set writes the shadow copy only.
func (c *ColorsAndFlags) Set(col, row int, v [4]byte) {
	off := row*ObjectRowBytes + col*4
	copy(c.data[off:off+4], v[:])
}

// Flush uploads one shadow texel with a 1×1 sub-image update.
func (c *ColorsAndFlags) Flush(col, row int) error {
	off := row*ObjectRowBytes + col*4
	return c.tex.SubImage(col, row, 1, 1, c.data[off:off+4])
}

// Write sets a texel and uploads it immediately.
func (c *ColorsAndFlags) Write(col, row int, v [4]byte) error {
	c.Set(col, row, v)
	return c.Flush(col, row)
}

// UploadAll pushes the whole shadow copy in one upload.
func (c *ColorsAndFlags) UploadAll() error {
	return c.tex.Upload(c.data)
}

// Snapshot returns a copy of the shadow data.
func (c *ColorsAndFlags) Snapshot() []byte {
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}
