package warp

import (
	"drag-warp/pkg/geometry"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// indexedPoint is a kd-tree entry that remembers its position in the
// caller's slice so the matching displacement can be recovered.
type indexedPoint struct {
	x, y float64
	idx  int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	switch d {
	case 0:
		return p.x - q.x
	case 1:
		return p.y - q.y
	default:
		panic("warp: illegal kd-tree dimension")
	}
}

func (p indexedPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	dx := p.x - q.x
	dy := p.y - q.y
	return dx*dx + dy*dy
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p indexedPoints) Len() int                              { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return indexedPlane{indexedPoints: p, dim: d}.Pivot()
}

// indexedPlane orders points along one dimension for median partitioning.
type indexedPlane struct {
	indexedPoints
	dim kdtree.Dim
}

func (p indexedPlane) Less(i, j int) bool {
	return p.indexedPoints[i].Compare(p.indexedPoints[j], p.dim) < 0
}
func (p indexedPlane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}
func (p indexedPlane) Slice(start, end int) kdtree.SortSlicer {
	return indexedPlane{indexedPoints: p.indexedPoints[start:end], dim: p.dim}
}
func (p indexedPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func newPointTree(pts []geometry.Point2D) *kdtree.Tree {
	entries := make(indexedPoints, len(pts))
	for i, p := range pts {
		entries[i] = indexedPoint{x: p.X, y: p.Y, idx: i}
	}
	return kdtree.New(entries, false)
}

func query(p geometry.Point2D) indexedPoint {
	return indexedPoint{x: p.X, y: p.Y, idx: -1}
}
