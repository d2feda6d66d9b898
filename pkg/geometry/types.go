// Package geometry provides the point types shared by the warp and its collaborators.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point or displacement with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Round snaps to the nearest integer pixel, ties to even.
func (p Point2D) Round() PointInt {
	return PointInt{X: int(math.RoundToEven(p.X)), Y: int(math.RoundToEven(p.Y))}
}

// PointInt represents a pixel coordinate.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for PointInt{X: x, Y: y}.
func Pt(x, y int) PointInt {
	return PointInt{X: x, Y: y}
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// Sub returns the difference of two pixel coordinates.
func (p PointInt) Sub(other PointInt) PointInt {
	return PointInt{X: p.X - other.X, Y: p.Y - other.Y}
}

// In reports whether the point lies in [0,width)×[0,height).
func (p PointInt) In(width, height int) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}

// ImagePoint converts to an image.Point for gocv drawing calls.
func (p PointInt) ImagePoint() image.Point {
	return image.Point{X: p.X, Y: p.Y}
}

// FromImagePoints converts a gocv contour to pixel coordinates.
func FromImagePoints(pts []image.Point) []PointInt {
	out := make([]PointInt, len(pts))
	for i, p := range pts {
		out[i] = PointInt{X: p.X, Y: p.Y}
	}
	return out
}

// ToImagePoints converts pixel coordinates to image.Points.
func ToImagePoints(pts []PointInt) []image.Point {
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = p.ImagePoint()
	}
	return out
}

// ToFloats converts a slice of pixel coordinates to Point2D.
func ToFloats(pts []PointInt) []Point2D {
	out := make([]Point2D, len(pts))
	for i, p := range pts {
		out[i] = p.ToFloat()
	}
	return out
}

// RoundAll rounds every point to its nearest pixel.
func RoundAll(pts []Point2D) []PointInt {
	out := make([]PointInt, len(pts))
	for i, p := range pts {
		out[i] = p.Round()
	}
	return out
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BoundingBox computes the inclusive axis-aligned bounding box of a set of pixels.
func BoundingBox(points []PointInt) RectInt {
	if len(points) == 0 {
		return RectInt{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return RectInt{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}
