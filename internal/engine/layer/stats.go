package layer

import (
	"github.com/Faultbox/dtx/internal/engine/datatex"
	"github.com/Faultbox/dtx/internal/engine/texture"
	"github.com/Faultbox/dtx/pkg/geometry"
)

// Stats describes the memory use of one layer.
type Stats struct {
	Index int
	Kind  string

	Portions         int
	PhysicalPortions int
	UniqueVerts      int

	// Aligned primitive counts per width class.
	Triangles [geometry.NumWidthClasses]int
	Edges     [geometry.NumWidthClasses]int

	// Zero indices added to keep portion-id groups aligned.
	PaddingIndices     int
	PaddingEdgeIndices int

	// TextureBytes counts textures owned by the layer.
	TextureBytes int

	RejectedObjectIDs   int
	RejectedTextureSize int

	Finalized bool
}

func textureBytes(s *datatex.State) int {
	total := 0
	add := func(t texture.Texture) {
		if t != nil {
			total += t.Width() * t.Height() * t.Format().TexelBytes()
		}
	}
	if s.ColorsAndFlags != nil {
		add(s.ColorsAndFlags.Texture())
	}
	add(s.DecodeMatrices)
	add(s.Positions)
	add(s.InstanceMatrices)
	for class := range s.Indices {
		add(s.PortionIDs[class])
		add(s.EdgePortionIDs[class])
		add(s.Indices[class])
		add(s.EdgeIndices[class])
	}
	return total
}
