package warp

import (
	"fmt"
	"math"

	"drag-warp/pkg/geometry"
)

// DefaultMatchThreshold is the distance below which a control point counts as
// lying on a region pixel.
const DefaultMatchThreshold = 1e-6

// MatchControlPoints keeps the control pairs whose source point lies within
// threshold of some pixel in fill. Pairing and input order are preserved.
// Empty fill or an empty control set matches nothing.
func MatchControlPoints(fill []geometry.PointInt, sources, targets []geometry.Point2D, threshold float64) ([]geometry.Point2D, []geometry.Point2D) {
	if len(sources) != len(targets) {
		panic(fmt.Sprintf("warp: %d source control points but %d targets", len(sources), len(targets)))
	}
	if len(fill) == 0 || len(sources) == 0 {
		return nil, nil
	}

	tree := newPointTree(geometry.ToFloats(fill))

	var src, tgt []geometry.Point2D
	for i, s := range sources {
		_, d2 := tree.Nearest(query(s))
		if math.Sqrt(d2) < threshold {
			src = append(src, s)
			tgt = append(tgt, targets[i])
		}
	}
	return src, tgt
}
