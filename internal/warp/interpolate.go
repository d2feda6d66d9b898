package warp

import (
	"fmt"
	"math"

	"drag-warp/pkg/geometry"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/kdtree"
)

const (
	DefaultNeighbors          = 4
	DefaultMaxReferencePoints = 100
	DefaultEpsilon            = 1e-6
)

// Interpolator displaces points by an inverse-distance-weighted average of the
// displacements attached to their nearest reference points.
//
// It has no notion of direction: the same primitive serves the forward
// contour warp, the forward fill warp and the backward correspondence solve.
// The zero value is not usable; start from NewInterpolator.
type Interpolator struct {
	Neighbors          int     // k nearest references per point
	MaxReferencePoints int     // references beyond this are subsampled
	Epsilon            float64 // added to every distance before inversion
}

// NewInterpolator returns an Interpolator with the default parameters.
func NewInterpolator() Interpolator {
	return Interpolator{
		Neighbors:          DefaultNeighbors,
		MaxReferencePoints: DefaultMaxReferencePoints,
		Epsilon:            DefaultEpsilon,
	}
}

// Interpolate returns a displaced copy of points. refs and dirs are parallel.
//
// With no points or no references the points come back unchanged; a single
// reference translates every point by its displacement. Otherwise each point
// moves by the normalized 1/(d+eps) weighted sum of its k nearest references'
// displacements and is rounded to the nearest pixel.
func (in Interpolator) Interpolate(points, refs, dirs []geometry.Point2D) []geometry.Point2D {
	if len(refs) != len(dirs) {
		panic(fmt.Sprintf("warp: %d reference points but %d directions", len(refs), len(dirs)))
	}

	out := make([]geometry.Point2D, len(points))
	copy(out, points)
	if len(points) == 0 || len(refs) == 0 {
		return out
	}

	if len(refs) == 1 {
		for i := range out {
			out[i] = out[i].Add(dirs[0])
		}
		return out
	}

	refs, dirs = subsample(refs, dirs, in.MaxReferencePoints)

	k := in.Neighbors
	if k < 1 {
		k = 1
	}
	if k > len(refs) {
		k = len(refs)
	}

	tree := newPointTree(refs)
	weights := make([]float64, k)
	dx := make([]float64, k)
	dy := make([]float64, k)

	for i, p := range points {
		keeper := kdtree.NewNKeeper(k)
		tree.NearestSet(keeper, query(p))

		for j, cd := range keeper.Heap {
			ref := cd.Comparable.(indexedPoint)
			weights[j] = 1 / (math.Sqrt(cd.Dist) + in.Epsilon)
			dx[j] = dirs[ref.idx].X
			dy[j] = dirs[ref.idx].Y
		}
		floats.Scale(1/floats.Sum(weights), weights)

		moved := geometry.Point2D{
			X: p.X + floats.Dot(weights, dx),
			Y: p.Y + floats.Dot(weights, dy),
		}
		out[i] = geometry.Point2D{X: math.RoundToEven(moved.X), Y: math.RoundToEven(moved.Y)}
	}
	return out
}

// subsample keeps exactly max references at evenly spaced indices when there
// are more than max. The selection depends only on the lengths.
func subsample(refs, dirs []geometry.Point2D, max int) ([]geometry.Point2D, []geometry.Point2D) {
	if max < 1 || len(refs) <= max {
		return refs, dirs
	}
	idx := SubsampleIndices(len(refs), max)
	r := make([]geometry.Point2D, len(idx))
	d := make([]geometry.Point2D, len(idx))
	for i, j := range idx {
		r[i] = refs[j]
		d[i] = dirs[j]
	}
	return r, d
}

// SubsampleIndices returns count indices evenly spaced over [0, n-1],
// truncated toward zero. The first is always 0 and the last n-1.
func SubsampleIndices(n, count int) []int {
	if count <= 0 || n <= 0 {
		return nil
	}
	idx := make([]int, count)
	if count == 1 {
		return idx
	}
	step := float64(n-1) / float64(count-1)
	for i := range idx {
		idx[i] = int(float64(i) * step)
	}
	idx[count-1] = n - 1
	return idx
}
