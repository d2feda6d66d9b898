package mask

import (
	"image"

	"drag-warp/pkg/geometry"

	"gocv.io/x/gocv"
)

// Dilate returns the mask dilated by a size×size rectangular structuring element.
// A size below 1 returns an unchanged copy.
func (m *Mask) Dilate(size int) (*Mask, error) {
	return m.morph(size, gocv.Dilate)
}

// Erode returns the mask eroded by a size×size rectangular structuring element.
// A size below 1 returns an unchanged copy.
func (m *Mask) Erode(size int) (*Mask, error) {
	return m.morph(size, gocv.Erode)
}

func (m *Mask) morph(size int, op func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat)) (*Mask, error) {
	if size < 1 || m.Empty() {
		return m.Clone(), nil
	}

	src, err := m.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: size, Y: size})
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	op(src, &dst, kernel)

	return FromMat(dst)
}

// FindExternalContours returns the outer boundary of every connected region,
// using simple chain approximation.
func (m *Mask) FindExternalContours() ([][]geometry.PointInt, error) {
	if m.Empty() || m.Count() == 0 {
		return nil, nil
	}

	src, err := m.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	contours := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([][]geometry.PointInt, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		out = append(out, geometry.FromImagePoints(contours.At(i).ToPoints()))
	}
	return out, nil
}

// FillContour returns a mask of the given size with the closed contour filled.
// An empty contour yields an all-zero mask.
func FillContour(contour []geometry.PointInt, width, height int) (*Mask, error) {
	out := New(width, height)
	if len(contour) == 0 || out.Empty() {
		return out, nil
	}
	if err := out.DrawContour(contour, -1); err != nil {
		return nil, err
	}
	return out, nil
}

// DrawContour rasterizes the closed contour into the mask with the given line
// thickness; a negative thickness fills the interior. Parts outside the mask
// are clipped.
func (m *Mask) DrawContour(contour []geometry.PointInt, thickness int) error {
	if len(contour) == 0 || m.Empty() || thickness == 0 {
		return nil
	}

	canvas, err := m.ToMat()
	if err != nil {
		return err
	}
	defer canvas.Close()

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{geometry.ToImagePoints(contour)})
	defer pv.Close()

	gocv.DrawContours(&canvas, pv, -1, white, thickness)

	drawn, err := FromMat(canvas)
	if err != nil {
		return err
	}
	copy(m.Pix, drawn.Pix)
	return nil
}
