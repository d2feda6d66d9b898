package warp

import "drag-warp/pkg/geometry"

// WithinBounds reports, per point, whether it lies in [0,width)×[0,height).
func WithinBounds(points []geometry.PointInt, height, width int) []bool {
	valid := make([]bool, len(points))
	for i, p := range points {
		valid[i] = p.In(width, height)
	}
	return valid
}
