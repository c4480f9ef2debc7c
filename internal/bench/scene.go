package bench

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/Faultbox/dtx/internal/engine/layer"
	"github.com/Faultbox/dtx/pkg/math"
)

// gridMesh returns a rippled k×k vertex grid with at least verts vertices.
func gridMesh(verts int, phase float32) layer.GeometryConfig {
	k := max(2, int(math32.Ceil(math32.Sqrt(float32(verts)))))

	g := layer.GeometryConfig{
		Positions: make([]float32, 0, k*k*3),
		Indices:   make([]uint32, 0, (k-1)*(k-1)*6),
	}
	step := 1 / float32(k-1)
	for z := 0; z < k; z++ {
		for x := 0; x < k; x++ {
			fx, fz := float32(x)*step, float32(z)*step
			y := 0.1 * math32.Sin(fx*6+phase) * math32.Cos(fz*6)
			g.Positions = append(g.Positions, fx, y, fz)
		}
	}
	for z := 0; z < k-1; z++ {
		for x := 0; x < k-1; x++ {
			i := uint32(z*k + x)
			next := i + uint32(k)
			g.Indices = append(g.Indices, i, next, i+1, i+1, next, next+1)
		}
	}
	return g
}

// cubeMesh returns a unit cube with shared corners.
func cubeMesh() layer.GeometryConfig {
	return layer.GeometryConfig{
		Positions: []float32{
			0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
			0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
		},
		Indices: []uint32{
			0, 2, 1, 0, 3, 2,
			4, 5, 6, 4, 6, 7,
			0, 1, 5, 0, 5, 4,
			3, 7, 6, 3, 6, 2,
			0, 4, 7, 0, 7, 3,
			1, 2, 6, 1, 6, 5,
		},
	}
}

// gridPlacement spreads n items over a square grid with the given spacing.
func gridPlacement(i, n int, spacing float32) math.Mat4 {
	side := max(1, int(math32.Ceil(math32.Sqrt(float32(n)))))
	x := float32(i%side) * spacing
	z := float32(i/side) * spacing
	return math.Translate(x, 0, z)
}

func randomColor(rng *rand.Rand) [4]uint8 {
	return [4]uint8{uint8(rng.IntN(256)), uint8(rng.IntN(256)), uint8(rng.IntN(256)), 255}
}
