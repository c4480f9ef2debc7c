package geometry

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/dtx/pkg/math"
)

// DefaultEdgeThreshold is the dihedral angle, in degrees, above which the
// edge between two faces is drawn.
const DefaultEdgeThreshold = 10

type edgeFaces struct {
	a, b   uint32 // original vertex indices from the first face
	face0  int
	face1  int
	shared int
}

// BuildEdgeIndices derives feature edges from a triangle mesh. Positions
// are welded first so seams between duplicated vertices do not show up as
// edges. An edge is kept if it borders a single face, more than two faces,
// or two faces whose normals differ by more than thresholdDegrees.
//
// Face normals are taken after mapping positions through decode, so
// quantized input is measured in model space. Pass the identity for
// positions that are already in model space.
//
// The returned indices address the input positions.
func BuildEdgeIndices[T Scalar](u *Uniquifier, positions []T, indices []uint32, decode math.Mat4, thresholdDegrees float32) ([]uint32, error) {
	welded, err := Uniquify(u, positions, indices, nil)
	if err != nil {
		return nil, err
	}

	numFaces := len(indices) / 3
	normals := make([]math.Vec3, numFaces)
	for f := 0; f < numFaces; f++ {
		normals[f] = faceNormal(welded.Positions, welded.Indices[f*3:f*3+3], decode)
	}

	faces := make(map[uint64]*edgeFaces, numFaces*3/2)
	order := make([]uint64, 0, numFaces*3/2)

	for f := 0; f < numFaces; f++ {
		for j := 0; j < 3; j++ {
			k := (j + 1) % 3
			wa, wb := welded.Indices[f*3+j], welded.Indices[f*3+k]
			if wa == wb {
				continue
			}
			key := edgeKey(wa, wb)
			e, ok := faces[key]
			if !ok {
				faces[key] = &edgeFaces{a: indices[f*3+j], b: indices[f*3+k], face0: f, face1: -1, shared: 1}
				order = append(order, key)
				continue
			}
			if e.face1 < 0 {
				e.face1 = f
			}
			e.shared++
		}
	}

	cosThreshold := math32.Cos(thresholdDegrees * math32.Pi / 180)

	out := make([]uint32, 0, len(order))
	for _, key := range order {
		e := faces[key]
		keep := e.shared != 2
		if !keep {
			n0, n1 := normals[e.face0], normals[e.face1]
			keep = n0.Dot(n1) < cosThreshold
		}
		if keep {
			out = append(out, e.a, e.b)
		}
	}
	return out, nil
}

func faceNormal[T Scalar](positions []T, tri []uint32, decode math.Mat4) math.Vec3 {
	p := func(i uint32) math.Vec3 {
		return math.V3(DecompressPosition(positions[i*3:i*3+3], decode))
	}
	a, b, c := p(tri[0]), p(tri[1]), p(tri[2])
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}
