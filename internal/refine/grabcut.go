// Package refine tightens a user-drawn region mask to the object under it
// before the warp runs.
package refine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"drag-warp/internal/mask"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ErrUnavailable means no refined mask was produced and the caller should
// carry on with the original mask.
var ErrUnavailable = errors.New("mask refinement unavailable")

// ErrNotLoaded is returned by Refine before Load or after Unload.
var ErrNotLoaded = fmt.Errorf("%w: refiner not loaded", ErrUnavailable)

// Refiner produces a refined binary mask for an image. Implementations own
// whatever model state they need between Load and Unload.
type Refiner interface {
	Load(ctx context.Context) error
	Unload() error
	// Refine returns the refined mask, or an error wrapping ErrUnavailable
	// when the input mask should be used unchanged.
	Refine(ctx context.Context, img gocv.Mat, m *mask.Mask, kernelSize int) (*mask.Mask, error)
}

// GrabCut mask labels.
const (
	gcBgd   = 0
	gcFgd   = 1
	gcPrBgd = 2
	gcPrFgd = 3
)

// GrabCutOptions configures GrabCutRefiner.
type GrabCutOptions struct {
	Iterations int // GrabCut rounds
	MaxPoints  int // prompt points sampled from the input mask
}

// DefaultGrabCutOptions returns the stock refiner settings.
func DefaultGrabCutOptions() GrabCutOptions {
	return GrabCutOptions{Iterations: 3, MaxPoints: 128}
}

// GrabCutRefiner refines masks with OpenCV GrabCut. Points sampled from the
// input mask act as sure-foreground prompts, the mask itself as probable
// foreground and a band around it as probable background.
//
// Calls to Refine are serialized; the colour models are reused across calls.
type GrabCutRefiner struct {
	opts GrabCutOptions
	log  *zap.Logger

	mu     sync.Mutex
	loaded bool
	bgd    gocv.Mat
	fgd    gocv.Mat
}

// NewGrabCutRefiner creates an unloaded refiner. A nil logger disables logging.
func NewGrabCutRefiner(opts GrabCutOptions, logger *zap.Logger) *GrabCutRefiner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}
	if opts.MaxPoints < 1 {
		opts.MaxPoints = DefaultGrabCutOptions().MaxPoints
	}
	return &GrabCutRefiner{opts: opts, log: logger}
}

// Load allocates the colour models. Loading twice is a no-op.
func (r *GrabCutRefiner) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return nil
	}
	r.bgd = gocv.NewMat()
	r.fgd = gocv.NewMat()
	r.loaded = true
	r.log.Info("grabcut refiner loaded", zap.Int("iterations", r.opts.Iterations))
	return nil
}

// Unload releases the colour models. Unloading twice is a no-op.
func (r *GrabCutRefiner) Unload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return nil
	}
	r.bgd.Close()
	r.fgd.Close()
	r.loaded = false
	r.log.Info("grabcut refiner unloaded")
	return nil
}

// Loaded reports whether Load has been called without a matching Unload.
func (r *GrabCutRefiner) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Refine runs GrabCut on a BGR image and combines the result with the input:
// (dilate(input) AND grabcut) OR erode(input), both with a kernelSize square.
func (r *GrabCutRefiner) Refine(ctx context.Context, img gocv.Mat, m *mask.Mask, kernelSize int) (*mask.Mask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Empty() || m.Count() == 0 {
		return nil, fmt.Errorf("%w: empty mask", ErrUnavailable)
	}
	if img.Empty() || img.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("%w: image must be 8-bit BGR", ErrUnavailable)
	}
	if img.Cols() != m.Width || img.Rows() != m.Height {
		return nil, fmt.Errorf("%w: image is %dx%d but mask is %dx%d",
			ErrUnavailable, img.Cols(), img.Rows(), m.Width, m.Height)
	}

	prompts := SamplePoints(m, r.opts.MaxPoints)
	if len(prompts) == 0 {
		return nil, fmt.Errorf("%w: no prompt points", ErrUnavailable)
	}

	expanded, err := m.Dilate(kernelSize)
	if err != nil {
		return nil, err
	}
	preserved, err := m.Erode(kernelSize)
	if err != nil {
		return nil, err
	}

	labels, background := seedLabels(m, expanded)
	if background == 0 {
		return nil, fmt.Errorf("%w: mask leaves no background to model", ErrUnavailable)
	}
	for _, p := range prompts {
		labels[p.Y*m.Width+p.X] = gcFgd
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return nil, ErrNotLoaded
	}

	labelMat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8U, labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	gcMask := labelMat.Clone()
	labelMat.Close()
	defer gcMask.Close()

	gocv.GrabCut(img, &gcMask, image.Rectangle{}, &r.bgd, &r.fgd, r.opts.Iterations, gocv.GCInitWithMask)

	refined := mask.New(m.Width, m.Height)
	for i, v := range gcMask.ToBytes() {
		if v == gcFgd || v == gcPrFgd {
			refined.Pix[i] = 1
		}
	}
	refined.And(expanded)
	refined.Or(preserved)

	r.log.Debug("mask refined",
		zap.Int("prompts", len(prompts)),
		zap.Int("input_pixels", m.Count()),
		zap.Int("refined_pixels", refined.Count()))
	return refined, nil
}

// seedLabels marks the mask as probable foreground, the expanded band as
// probable background and everything else as background. It returns the
// labels and how many of them are background of either kind.
func seedLabels(m, expanded *mask.Mask) ([]byte, int) {
	labels := make([]byte, len(m.Pix))
	background := 0
	for i := range labels {
		switch {
		case m.Pix[i] != 0:
			labels[i] = gcPrFgd
		case expanded.Pix[i] != 0:
			labels[i] = gcPrBgd
			background++
		default:
			labels[i] = gcBgd
			background++
		}
	}
	return labels, background
}
