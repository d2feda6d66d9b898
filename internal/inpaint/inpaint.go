// Package inpaint applies a warp's correspondence map to an image and fills
// the pixels it leaves vacant.
package inpaint

import (
	"context"
	"fmt"

	"drag-warp/internal/mask"
	"drag-warp/pkg/geometry"

	"gocv.io/x/gocv"
)

// Params are the generation settings handed to a Filler. Fillers ignore the
// fields they have no use for.
type Params struct {
	Prompt        string
	Steps         int
	GuidanceScale float64
	Strength      float64 // 0 keeps the input pixels, 1 takes the fill entirely
}

// DefaultParams mirrors the defaults of the drag endpoint.
func DefaultParams() Params {
	return Params{Steps: 8, GuidanceScale: 1, Strength: 1}
}

// Filler synthesizes the pixels under a hole mask. The returned Mat has the
// size and type of img and must be closed by the caller.
type Filler interface {
	Fill(ctx context.Context, img gocv.Mat, hole *mask.Mask, p Params) (gocv.Mat, error)
}

// ApplyCorrespondence returns a copy of img where every target pixel takes
// the color the matching source pixel had in img. All points must lie inside
// the image. The caller must Close the result.
func ApplyCorrespondence(img gocv.Mat, sources, targets []geometry.PointInt) (gocv.Mat, error) {
	if len(sources) != len(targets) {
		return gocv.NewMat(), fmt.Errorf("correspondence length mismatch: %d sources, %d targets", len(sources), len(targets))
	}
	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}

	width, height, channels := img.Cols(), img.Rows(), img.Channels()
	src := img.ToBytes()
	if len(src) != width*height*channels {
		return gocv.NewMat(), fmt.Errorf("unsupported image type %v", img.Type())
	}
	dst := make([]byte, len(src))
	copy(dst, src)

	for i := range sources {
		s, t := sources[i], targets[i]
		if !s.In(width, height) || !t.In(width, height) {
			return gocv.NewMat(), fmt.Errorf("correspondence %d (%v -> %v) outside %dx%d image", i, s, t, width, height)
		}
		so := (s.Y*width + s.X) * channels
		to := (t.Y*width + t.X) * channels
		copy(dst[to:to+channels], src[so:so+channels])
	}

	return matFromBytes(height, width, img.Type(), dst)
}

// Composite keeps original outside the hole and filled inside it.
func Composite(original, filled gocv.Mat, hole *mask.Mask) (gocv.Mat, error) {
	if hole.Empty() || hole.Count() == 0 {
		return original.Clone(), nil
	}
	holeMat, err := hole.ToMat()
	if err != nil {
		return gocv.NewMat(), err
	}
	defer holeMat.Close()

	out := original.Clone()
	filled.CopyToWithMask(&out, holeMat)
	return out, nil
}

func matFromBytes(rows, cols int, mt gocv.MatType, data []byte) (gocv.Mat, error) {
	mat, err := gocv.NewMatFromBytes(rows, cols, mt, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to build mat: %w", err)
	}
	owned := mat.Clone()
	mat.Close()
	return owned, nil
}
