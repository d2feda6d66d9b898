package refine

import (
	"math"
	"sort"

	"drag-warp/internal/mask"
	"drag-warp/internal/warp"
	"drag-warp/pkg/geometry"
)

// SamplePoints picks up to maxPoints prompt points spread over the mask.
//
// Small masks return every set pixel. Larger ones are binned on a grid sized
// to the mask's bounding-box aspect ratio and each occupied bin contributes
// the (truncated) mean of its pixels; a final evenly spaced pick trims any
// excess.
func SamplePoints(m *mask.Mask, maxPoints int) []geometry.PointInt {
	if m.Empty() || maxPoints < 1 {
		return nil
	}
	pts := m.Points()
	if len(pts) <= maxPoints {
		return pts
	}

	box := geometry.BoundingBox(pts)
	xMin, yMin := box.X, box.Y
	xMax, yMax := box.X+box.Width-1, box.Y+box.Height-1

	aspect := float64(xMax-xMin) / math.Max(float64(yMax-yMin), 1)
	if aspect <= 0 {
		aspect = 1 / float64(maxPoints)
	}
	ny := int(math.Sqrt(float64(maxPoints) / aspect))
	if ny < 1 {
		ny = 1
	}
	nx := int(float64(ny) * aspect)
	if nx < 1 {
		nx = 1
	}

	xBins := linspaceInts(xMin, xMax+1, nx+1)
	yBins := linspaceInts(yMin, yMax+1, ny+1)

	type acc struct{ sumX, sumY, n int }
	bins := make(map[int]*acc)
	for _, p := range pts {
		key := digitize(p.Y, yBins)*nx + digitize(p.X, xBins)
		a := bins[key]
		if a == nil {
			a = &acc{}
			bins[key] = a
		}
		a.sumX += p.X
		a.sumY += p.Y
		a.n++
	}

	keys := make([]int, 0, len(bins))
	for k := range bins {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	sampled := make([]geometry.PointInt, len(keys))
	for i, k := range keys {
		a := bins[k]
		sampled[i] = geometry.Pt(a.sumX/a.n, a.sumY/a.n)
	}

	if len(sampled) > maxPoints {
		idx := warp.SubsampleIndices(len(sampled), maxPoints)
		trimmed := make([]geometry.PointInt, len(idx))
		for i, j := range idx {
			trimmed[i] = sampled[j]
		}
		sampled = trimmed
	}
	return sampled
}

// linspaceInts returns n values evenly spaced over [start, stop], truncated.
func linspaceInts(start, stop, n int) []int {
	out := make([]int, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := float64(stop-start) / float64(n-1)
	for i := range out {
		out[i] = int(float64(start) + float64(i)*step)
	}
	return out
}

// digitize returns the index of the bin [edges[i], edges[i+1]) holding v.
func digitize(v int, edges []int) int {
	return sort.SearchInts(edges, v+1) - 1
}
