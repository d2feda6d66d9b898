package image

import (
	"image"
	"image/color"

	"drag-warp/internal/mask"
	"drag-warp/pkg/geometry"

	"golang.org/x/image/draw"
)

// BlendMode specifies how a tint is combined with the base image.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	default:
		return "Unknown"
	}
}

// Overlay renders diagnostic views of a warp on top of a base image.
type Overlay struct {
	Base    image.Image
	Mode    BlendMode
	Opacity float64 // 0.0 - 1.0
}

// NewOverlay creates an overlay with a half-transparent normal blend.
func NewOverlay(base image.Image) *Overlay {
	return &Overlay{Base: base, Mode: BlendNormal, Opacity: 0.5}
}

// Render tints every set mask pixel and draws each drag as a line from
// handle to target.
func (o *Overlay) Render(m *mask.Mask, tint color.RGBA, drags [][2]geometry.PointInt, dragColor color.RGBA) *image.RGBA {
	b := o.Base.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), o.Base, b.Min, draw.Src)

	if m != nil {
		for y := 0; y < m.Height && y < dst.Rect.Dy(); y++ {
			for x := 0; x < m.Width && x < dst.Rect.Dx(); x++ {
				if m.At(x, y) != 0 {
					dst.SetRGBA(x, y, o.blend(dst.RGBAAt(x, y), tint))
				}
			}
		}
	}

	for _, d := range drags {
		for _, p := range line(d[0], d[1]) {
			if p.In(dst.Rect.Dx(), dst.Rect.Dy()) {
				dst.SetRGBA(p.X, p.Y, dragColor)
			}
		}
	}
	return dst
}

// blend performs the blend operation between two colors.
func (o *Overlay) blend(dst, src color.RGBA) color.RGBA {
	sf := [3]float64{float64(src.R) / 255, float64(src.G) / 255, float64(src.B) / 255}
	df := [3]float64{float64(dst.R) / 255, float64(dst.G) / 255, float64(dst.B) / 255}

	var rf [3]float64
	for i := range rf {
		switch o.Mode {
		case BlendMultiply:
			rf[i] = sf[i] * df[i]
		case BlendScreen:
			rf[i] = 1 - (1-sf[i])*(1-df[i])
		default:
			rf[i] = sf[i]
		}
	}

	alpha := clamp(o.Opacity, 0, 1)
	return color.RGBA{
		R: uint8(clamp(rf[0]*alpha+df[0]*(1-alpha), 0, 1) * 255),
		G: uint8(clamp(rf[1]*alpha+df[1]*(1-alpha), 0, 1) * 255),
		B: uint8(clamp(rf[2]*alpha+df[2]*(1-alpha), 0, 1) * 255),
		A: dst.A,
	}
}

// line returns the Bresenham rasterization from a to b, inclusive.
func line(a, b geometry.PointInt) []geometry.PointInt {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	var pts []geometry.PointInt
	x, y := a.X, a.Y
	for {
		pts = append(pts, geometry.Pt(x, y))
		if x == b.X && y == b.Y {
			return pts
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
