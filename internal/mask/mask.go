// Package mask provides the binary H×W mask used by the warp, with conversion
// to and from gocv Mats and the morphology the warp needs.
package mask

import (
	"fmt"
	"image"
	"image/color"

	"drag-warp/pkg/geometry"

	"gocv.io/x/gocv"
)

// Mask is a row-major binary image. Every element of Pix is 0 or 1.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// New returns an all-zero mask of the given size.
func New(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// FromBytes builds a mask from row-major bytes, treating any non-zero value as set.
func FromBytes(width, height int, data []byte) (*Mask, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("mask data has %d bytes, want %d for %dx%d", len(data), width*height, width, height)
	}
	m := New(width, height)
	for i, v := range data {
		if v > 0 {
			m.Pix[i] = 1
		}
	}
	return m, nil
}

// FromGray binarizes a grayscale image: pixels above threshold are set.
func FromGray(img *image.Gray, threshold uint8) *Mask {
	b := img.Bounds()
	m := New(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+m.Width]
		for x, v := range row {
			if v > threshold {
				m.Pix[y*m.Width+x] = 1
			}
		}
	}
	return m
}

// FromMat converts a single-channel 8-bit Mat into a mask (non-zero → 1).
func FromMat(mat gocv.Mat) (*Mask, error) {
	if mat.Empty() {
		return New(0, 0), nil
	}
	if mat.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("mask mat must be 8-bit single channel, got type %v", mat.Type())
	}
	return FromBytes(mat.Cols(), mat.Rows(), mat.ToBytes())
}

// ToMat returns a CV_8U Mat with set pixels at 255. The caller must Close it.
func (m *Mask) ToMat() (gocv.Mat, error) {
	if m.Empty() {
		return gocv.NewMat(), nil
	}
	data := make([]byte, len(m.Pix))
	for i, v := range m.Pix {
		if v != 0 {
			data[i] = 255
		}
	}
	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8U, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to build mask mat: %w", err)
	}
	// NewMatFromBytes may share the slice; clone so the Mat owns its data.
	owned := mat.Clone()
	mat.Close()
	return owned, nil
}

// ToGray returns the mask as a grayscale image with set pixels at 255.
func (m *Mask) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v != 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

// Empty reports whether the mask has zero area.
func (m *Mask) Empty() bool {
	return m == nil || m.Width == 0 || m.Height == 0
}

// At returns the value at (x, y), or 0 outside the mask.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y) as set (v != 0) or clear. Out-of-range writes are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	if v {
		m.Pix[y*m.Width+x] = 1
	} else {
		m.Pix[y*m.Width+x] = 0
	}
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Points returns the set pixels in row-major order as (x, y).
func (m *Mask) Points() []geometry.PointInt {
	var pts []geometry.PointInt
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] != 0 {
				pts = append(pts, geometry.PointInt{X: x, Y: y})
			}
		}
	}
	return pts
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// SameSize reports whether two masks share dimensions.
func (m *Mask) SameSize(other *Mask) bool {
	return m.Width == other.Width && m.Height == other.Height
}

// Equal reports whether two masks have the same size and contents.
func (m *Mask) Equal(other *Mask) bool {
	if !m.SameSize(other) {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// Or sets every pixel that is set in other. Sizes must match.
func (m *Mask) Or(other *Mask) {
	m.mustMatch(other)
	for i, v := range other.Pix {
		if v != 0 {
			m.Pix[i] = 1
		}
	}
}

// And clears every pixel that is clear in other. Sizes must match.
func (m *Mask) And(other *Mask) {
	m.mustMatch(other)
	for i, v := range other.Pix {
		if v == 0 {
			m.Pix[i] = 0
		}
	}
}

// AndNot clears every pixel that is set in other. Sizes must match.
func (m *Mask) AndNot(other *Mask) {
	m.mustMatch(other)
	for i, v := range other.Pix {
		if v != 0 {
			m.Pix[i] = 0
		}
	}
}

func (m *Mask) mustMatch(other *Mask) {
	if !m.SameSize(other) {
		panic(fmt.Sprintf("mask size mismatch: %dx%d vs %dx%d", m.Width, m.Height, other.Width, other.Height))
	}
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
