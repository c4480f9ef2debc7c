package geometry

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrBucketOverflow is returned when a geometry cannot be addressed even
// after splitting into buckets of the requested width.
var ErrBucketOverflow = errors.New("geometry too large for bucket width")

// Bucket is one physical split of a geometry. Its indices address only
// its own positions, so it fits a narrower width class than its parent.
type Bucket[T Scalar] struct {
	Positions   []T
	Indices     []uint32
	EdgeIndices []uint32
}

// NumPositions returns the number of positions held by the bucket.
func (b Bucket[T]) NumPositions() int {
	return len(b.Positions) / 3
}

// WidthClass returns the class the bucket routes to.
func (b Bucket[T]) WidthClass() WidthClass {
	return ClassFor(b.NumPositions())
}

// Bucketize splits a unique-position geometry so that no bucket holds more
// than 1<<bitsPerBucket positions. Triangles are never split. An edge is
// emitted into the bucket of the first triangle that contains both of its
// vertices. Edges that belong to no triangle are kept too: they go to the
// last bucket, or to a new one when their vertices do not fit. Duplicate
// and zero-length edges are emitted once at most.
func Bucketize[T Scalar](g Unique[T], bitsPerBucket int) ([]Bucket[T], error) {
	if bitsPerBucket <= 0 || bitsPerBucket > 16 {
		return nil, fmt.Errorf("bucketize: unsupported bucket width %d", bitsPerBucket)
	}

	numPositions := g.NumPositions()
	maxPerBucket := 1 << bitsPerBucket

	if uint64(numPositions) > uint64(maxPerBucket)*uint64(maxPerBucket) {
		return nil, fmt.Errorf("bucketize: %w (%d positions, %d bits)", ErrBucketOverflow, numPositions, bitsPerBucket)
	}

	if numPositions <= maxPerBucket {
		return []Bucket[T]{{
			Positions:   g.Positions,
			Indices:     g.Indices,
			EdgeIndices: g.EdgeIndices,
		}}, nil
	}

	edges := newEdgeSet(g.EdgeIndices)
	triangles := sortedTriangles(g.Indices)

	// Generation stamps avoid clearing the remap table per bucket.
	stamp := make([]uint32, numPositions)
	local := make([]uint32, numPositions)
	generation := uint32(1)

	buckets := []Bucket[T]{{}}
	cur := &buckets[0]

	inBucket := func(v uint32) bool { return stamp[v] == generation }

	place := func(v uint32) uint32 {
		if !inBucket(v) {
			stamp[v] = generation
			local[v] = uint32(cur.NumPositions())
			cur.Positions = append(cur.Positions, g.Positions[v*3:v*3+3]...)
		}
		return local[v]
	}

	for _, tri := range triangles {
		a, b, c := g.Indices[tri*3], g.Indices[tri*3+1], g.Indices[tri*3+2]

		// Repeated vertices in a degenerate triangle are counted once.
		verts := [3]uint32{a, b, c}
		added := 0
		for i, v := range verts {
			if !inBucket(v) && !slices.Contains(verts[:i], v) {
				added++
			}
		}

		if cur.NumPositions()+added > maxPerBucket {
			generation++
			buckets = append(buckets, Bucket[T]{})
			cur = &buckets[len(buckets)-1]
		}

		la, lb, lc := place(a), place(b), place(c)
		cur.Indices = append(cur.Indices, la, lb, lc)

		for _, e := range [3][2]uint32{{a, b}, {a, c}, {b, c}} {
			if edges.take(e[0], e[1]) {
				cur.EdgeIndices = append(cur.EdgeIndices, local[e[0]], local[e[1]])
			}
		}
	}

	for _, e := range edges.remaining() {
		added := 0
		for _, v := range e {
			if !inBucket(v) {
				added++
			}
		}
		if cur.NumPositions()+added > maxPerBucket {
			generation++
			buckets = append(buckets, Bucket[T]{})
			cur = &buckets[len(buckets)-1]
		}
		la, lb := place(e[0]), place(e[1])
		cur.EdgeIndices = append(cur.EdgeIndices, la, lb)
	}

	return buckets, nil
}

// sortedTriangles orders triangles by their smallest vertex index so that
// triangles sharing low-numbered vertices land in the same bucket.
func sortedTriangles(indices []uint32) []uint32 {
	numTriangles := len(indices) / 3
	order := make([]uint32, numTriangles)
	for i := range order {
		order[i] = uint32(i)
	}
	minOf := func(t uint32) uint32 {
		return min(indices[t*3], indices[t*3+1], indices[t*3+2])
	}
	slices.SortStableFunc(order, func(x, y uint32) int {
		mx, my := minOf(x), minOf(y)
		switch {
		case mx < my:
			return -1
		case mx > my:
			return 1
		}
		return 0
	})
	return order
}

// edgeSet answers "is (a,b) an edge not yet emitted" with a binary search
// over the undirected, sorted edge keys.
type edgeSet struct {
	keys    []uint64
	emitted []bool
}

func edgeKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

func newEdgeSet(edgeIndices []uint32) *edgeSet {
	keys := make([]uint64, 0, len(edgeIndices)/2)
	for i := 0; i+1 < len(edgeIndices); i += 2 {
		keys = append(keys, edgeKey(edgeIndices[i], edgeIndices[i+1]))
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)
	return &edgeSet{keys: keys, emitted: make([]bool, len(keys))}
}

func (s *edgeSet) take(a, b uint32) bool {
	if a == b {
		return false
	}
	key := edgeKey(a, b)
	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= key })
	if i == len(s.keys) || s.keys[i] != key || s.emitted[i] {
		return false
	}
	s.emitted[i] = true
	return true
}

// remaining returns the edges not yet emitted, marking them emitted.
func (s *edgeSet) remaining() [][2]uint32 {
	var out [][2]uint32
	for i, key := range s.keys {
		if s.emitted[i] {
			continue
		}
		s.emitted[i] = true
		a, b := uint32(key>>32), uint32(key)
		if a == b {
			continue
		}
		out = append(out, [2]uint32{a, b})
	}
	return out
}
