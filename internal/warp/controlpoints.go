package warp

import (
	"errors"
	"fmt"

	"drag-warp/pkg/geometry"
)

// ErrOddControlPoints is returned when the flat control point sequence cannot
// be split into (source, target) pairs.
var ErrOddControlPoints = errors.New("control points must alternate source and target (even count)")

// ControlPair is one user drag: the handle and where it should land.
type ControlPair struct {
	Source geometry.PointInt `json:"source"`
	Target geometry.PointInt `json:"target"`
}

// Direction returns Target - Source.
func (c ControlPair) Direction() geometry.PointInt {
	return c.Target.Sub(c.Source)
}

// ParseControlPoints splits an alternating source, target, source, target...
// sequence into pairs.
func ParseControlPoints(points []geometry.PointInt) ([]ControlPair, error) {
	if len(points)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d points", ErrOddControlPoints, len(points))
	}
	pairs := make([]ControlPair, len(points)/2)
	for i := range pairs {
		pairs[i] = ControlPair{Source: points[2*i], Target: points[2*i+1]}
	}
	return pairs, nil
}

// FlattenControlPairs is the inverse of ParseControlPoints.
func FlattenControlPairs(pairs []ControlPair) []geometry.PointInt {
	out := make([]geometry.PointInt, 0, 2*len(pairs))
	for _, p := range pairs {
		out = append(out, p.Source, p.Target)
	}
	return out
}

func splitPairs(pairs []ControlPair) (sources, targets []geometry.Point2D) {
	sources = make([]geometry.Point2D, len(pairs))
	targets = make([]geometry.Point2D, len(pairs))
	for i, p := range pairs {
		sources[i] = p.Source.ToFloat()
		targets[i] = p.Target.ToFloat()
	}
	return sources, targets
}

// NormalizeKernelSize clamps negative sizes to 0 and bumps positive even
// sizes to the next odd value. 0 disables seam drawing and dilation.
func NormalizeKernelSize(k int) int {
	if k < 0 {
		return 0
	}
	if k > 0 && k%2 == 0 {
		return k + 1
	}
	return k
}
