package inpaint

import (
	"context"
	"fmt"
	"image"

	"drag-warp/internal/mask"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// DiffusionFiller is a local, deterministic stand-in for a generative
// inpainting model. Holes are filled from the outside in with the mean of
// already known neighbours, then smoothed with Params.Steps box-blur passes
// restricted to the hole.
type DiffusionFiller struct {
	blurSize int
	log      *zap.Logger
}

// NewDiffusionFiller creates a filler whose neighbourhood and blur window are
// blurSize pixels wide. A nil logger disables logging.
func NewDiffusionFiller(blurSize int, logger *zap.Logger) *DiffusionFiller {
	if blurSize < 3 {
		blurSize = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiffusionFiller{blurSize: blurSize, log: logger}
}

// Fill implements Filler. Prompt and GuidanceScale are ignored.
func (f *DiffusionFiller) Fill(ctx context.Context, img gocv.Mat, hole *mask.Mask, p Params) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}
	if hole.Width != img.Cols() || hole.Height != img.Rows() {
		return gocv.NewMat(), fmt.Errorf("hole mask is %dx%d but image is %dx%d", hole.Width, hole.Height, img.Cols(), img.Rows())
	}
	if hole.Count() == 0 {
		return img.Clone(), nil
	}

	data := img.ToBytes()
	channels := img.Channels()
	if len(data) != hole.Width*hole.Height*channels {
		return gocv.NewMat(), fmt.Errorf("unsupported image type %v", img.Type())
	}

	passes, err := f.peel(ctx, data, hole, channels)
	if err != nil {
		return gocv.NewMat(), err
	}

	filled, err := matFromBytes(img.Rows(), img.Cols(), img.Type(), data)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer filled.Close()

	holeMat, err := hole.ToMat()
	if err != nil {
		return gocv.NewMat(), err
	}
	defer holeMat.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	for i := 0; i < p.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return gocv.NewMat(), err
		}
		gocv.Blur(filled, &blurred, image.Point{X: f.blurSize, Y: f.blurSize})
		blurred.CopyToWithMask(&filled, holeMat)
	}

	f.log.Debug("hole filled",
		zap.Int("hole_pixels", hole.Count()),
		zap.Int("peel_passes", passes),
		zap.Int("smooth_passes", p.Steps))

	if p.Strength < 1 {
		strength := p.Strength
		if strength < 0 {
			strength = 0
		}
		mixed := gocv.NewMat()
		defer mixed.Close()
		gocv.AddWeighted(filled, strength, img, 1-strength, 0, &mixed)
		return Composite(img, mixed, hole)
	}
	return Composite(img, filled, hole)
}

// peel fills hole pixels in data layer by layer from the hole boundary.
// Pixels with no known neighbour after the hole stops shrinking are left as is.
func (f *DiffusionFiller) peel(ctx context.Context, data []byte, hole *mask.Mask, channels int) (int, error) {
	width, height := hole.Width, hole.Height
	radius := f.blurSize / 2

	known := make([]bool, len(hole.Pix))
	var pending []int
	for i, v := range hole.Pix {
		if v == 0 {
			known[i] = true
		} else {
			pending = append(pending, i)
		}
	}

	sums := make([]int, channels)
	type update struct {
		idx   int
		value []byte
	}

	passes := 0
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return passes, err
		}
		passes++

		var updates []update
		var remaining []int
		for _, idx := range pending {
			x, y := idx%width, idx/width
			for c := range sums {
				sums[c] = 0
			}
			n := 0
			for dy := -radius; dy <= radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= height {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					nx := x + dx
					if nx < 0 || nx >= width || !known[ny*width+nx] {
						continue
					}
					off := (ny*width + nx) * channels
					for c := 0; c < channels; c++ {
						sums[c] += int(data[off+c])
					}
					n++
				}
			}
			if n == 0 {
				remaining = append(remaining, idx)
				continue
			}
			value := make([]byte, channels)
			for c := range value {
				value[c] = byte(sums[c] / n)
			}
			updates = append(updates, update{idx: idx, value: value})
		}

		if len(updates) == 0 {
			break
		}
		for _, u := range updates {
			copy(data[u.idx*channels:], u.value)
			known[u.idx] = true
		}
		pending = remaining
	}
	return passes, nil
}
