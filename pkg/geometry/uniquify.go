// Package geometry prepares indexed triangle geometry for data-texture
// batching: position deduplication, index-width bucketing, primitive
// alignment, edge extraction and position quantization.
package geometry

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/exp/constraints"
)

// Scalar is any position component type the deduplicator can compare.
type Scalar interface {
	constraints.Integer | constraints.Float
}

var (
	ErrIndexOutOfRange = errors.New("index references a missing position")
	ErrPositionsLength = errors.New("positions length is not a multiple of 3")
)

// Unique is a geometry whose positions are pairwise distinct.
type Unique[T Scalar] struct {
	Positions   []T
	Indices     []uint32
	EdgeIndices []uint32
}

// NumPositions returns the number of unique positions.
func (u Unique[T]) NumPositions() int {
	return len(u.Positions) / 3
}

// Uniquifier deduplicates positions by sorting instead of hashing.
// It keeps grow-only scratch buffers between calls, so a single
// instance must not be used from several goroutines at once.
type Uniquifier struct {
	ascending []uint32
	seq       []uint32
	remap     []uint32
}

// NewUniquifier returns a deduplicator with empty scratch buffers.
func NewUniquifier() *Uniquifier {
	return &Uniquifier{}
}

// scratch returns a sorted-index buffer and a remap buffer of length n,
// both initialised to 0..n-1.
func (u *Uniquifier) scratch(n int) (seq, remap []uint32) {
	if len(u.ascending) < n {
		start := len(u.ascending)
		u.ascending = slices.Grow(u.ascending, n-start)[:n]
		for i := start; i < n; i++ {
			u.ascending[i] = uint32(i)
		}
		u.seq = make([]uint32, n)
		u.remap = make([]uint32, n)
	}
	seq = u.seq[:n]
	remap = u.remap[:n]
	copy(seq, u.ascending[:n])
	copy(remap, u.ascending[:n])
	return seq, remap
}

// Uniquify collapses identical position triples (exact comparison, no
// epsilon) and rewrites indices and edge indices to point at the survivors.
//
// Output positions follow lexicographic sort order, not first occurrence.
func Uniquify[T Scalar](u *Uniquifier, positions []T, indices, edgeIndices []uint32) (Unique[T], error) {
	if len(positions)%3 != 0 {
		return Unique[T]{}, fmt.Errorf("uniquify: %w (len=%d)", ErrPositionsLength, len(positions))
	}
	n := len(positions) / 3
	if n == 0 {
		if len(indices) > 0 || len(edgeIndices) > 0 {
			return Unique[T]{}, fmt.Errorf("uniquify: %w", ErrIndexOutOfRange)
		}
		return Unique[T]{}, nil
	}

	seq, remap := u.scratch(n)

	compare := func(a, b uint32) int {
		pa := positions[a*3 : a*3+3]
		pb := positions[b*3 : b*3+3]
		for i := 0; i < 3; i++ {
			if pa[i] < pb[i] {
				return -1
			}
			if pa[i] > pb[i] {
				return 1
			}
		}
		return 0
	}

	slices.SortFunc(seq, compare)

	numUnique := 1
	remap[seq[0]] = 0
	for i := 1; i < n; i++ {
		if compare(seq[i], seq[i-1]) != 0 {
			numUnique++
		}
		remap[seq[i]] = uint32(numUnique - 1)
	}

	out := Unique[T]{Positions: make([]T, numUnique*3)}
	copy(out.Positions[0:3], positions[seq[0]*3:seq[0]*3+3])
	for i, uniqueIdx := 1, 0; i < n; i++ {
		if compare(seq[i], seq[i-1]) != 0 {
			uniqueIdx++
			copy(out.Positions[uniqueIdx*3:uniqueIdx*3+3], positions[seq[i]*3:seq[i]*3+3])
		}
	}

	var err error
	if out.Indices, err = applyRemap(remap, indices); err != nil {
		return Unique[T]{}, fmt.Errorf("uniquify indices: %w", err)
	}
	if out.EdgeIndices, err = applyRemap(remap, edgeIndices); err != nil {
		return Unique[T]{}, fmt.Errorf("uniquify edge indices: %w", err)
	}
	return out, nil
}

func applyRemap(remap []uint32, src []uint32) ([]uint32, error) {
	if src == nil {
		return nil, nil
	}
	dst := make([]uint32, len(src))
	for i, idx := range src {
		if int(idx) >= len(remap) {
			return nil, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfRange, idx, len(remap))
		}
		dst[i] = remap[idx]
	}
	return dst, nil
}
