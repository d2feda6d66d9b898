// Package drag runs a complete drag edit: optional mask refinement, the
// bidirectional warp, pixel transfer, hole filling and compositing.
package drag

import (
	"context"
	"errors"
	"fmt"

	"drag-warp/internal/inpaint"
	"drag-warp/internal/mask"
	"drag-warp/internal/refine"
	"drag-warp/internal/warp"
	"drag-warp/pkg/geometry"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	// ErrNoMatchingControlPoints is returned when the mask has pixels but no
	// region produced a correspondence.
	ErrNoMatchingControlPoints = errors.New("no matching control points found in any region")
	// ErrPointOutOfBounds is returned when a control point lies outside the image.
	ErrPointOutOfBounds = errors.New("drag points are outside image bounds")
)

// Request describes one drag edit.
type Request struct {
	Image         gocv.Mat            // 8-bit BGR
	Mask          *mask.Mask          // region to move, same size as Image
	Points        []geometry.PointInt // alternating handle, target
	Refine        bool
	RefineKernel  int
	InpaintKernel int
	Params        inpaint.Params
}

// Outcome holds every intermediate of an edit. Close releases its Mats.
type Outcome struct {
	Result      gocv.Mat
	Warped      gocv.Mat
	RefinedMask *mask.Mask // the mask actually warped
	Refined     bool       // RefinedMask came from the refiner
	Warp        *warp.Result
}

// Close releases the Mats held by the outcome.
func (o *Outcome) Close() {
	o.Result.Close()
	o.Warped.Close()
}

// Editor wires the warp to its collaborators. The refiner is optional.
type Editor struct {
	warper  *warp.Warper
	refiner refine.Refiner
	filler  inpaint.Filler
	log     *zap.Logger
}

// NewEditor creates an Editor. refiner may be nil; a nil logger disables logging.
func NewEditor(warper *warp.Warper, refiner refine.Refiner, filler inpaint.Filler, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{warper: warper, refiner: refiner, filler: filler, log: logger}
}

// Edit performs the drag described by req. The returned Outcome must be closed.
func (e *Editor) Edit(ctx context.Context, req Request) (*Outcome, error) {
	if req.Image.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	if req.Mask == nil {
		return nil, warp.ErrNilMask
	}
	width, height := req.Image.Cols(), req.Image.Rows()
	if req.Mask.Width != width || req.Mask.Height != height {
		return nil, fmt.Errorf("mask is %dx%d but image is %dx%d", req.Mask.Width, req.Mask.Height, width, height)
	}
	for _, p := range req.Points {
		if !p.In(width, height) {
			return nil, fmt.Errorf("%w: %v not in %dx%d", ErrPointOutOfBounds, p, width, height)
		}
	}

	regionMask, refined, err := e.refineMask(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := e.warper.BiWarp(ctx, regionMask, req.Points, req.InpaintKernel)
	if err != nil {
		return nil, fmt.Errorf("bi-warp failed: %w", err)
	}
	if res.Len() == 0 && regionMask.Count() > 0 {
		return nil, ErrNoMatchingControlPoints
	}

	warped, err := inpaint.ApplyCorrespondence(req.Image, res.Sources, res.Targets)
	if err != nil {
		return nil, fmt.Errorf("failed to apply correspondence: %w", err)
	}

	filled, err := e.filler.Fill(ctx, warped, res.InpaintMask, req.Params)
	if err != nil {
		warped.Close()
		return nil, fmt.Errorf("fill failed: %w", err)
	}
	defer filled.Close()

	result, err := inpaint.Composite(warped, filled, res.InpaintMask)
	if err != nil {
		warped.Close()
		return nil, fmt.Errorf("composite failed: %w", err)
	}

	e.log.Info("drag edit complete",
		zap.Int("control_points", len(req.Points)),
		zap.Bool("refined", refined),
		zap.Int("correspondences", res.Len()),
		zap.Int("hole_pixels", res.InpaintMask.Count()))

	return &Outcome{
		Result:      result,
		Warped:      warped,
		RefinedMask: regionMask,
		Refined:     refined,
		Warp:        res,
	}, nil
}

// refineMask returns the mask to warp. Refiner unavailability falls back to
// the input mask; any other refiner error aborts the edit.
func (e *Editor) refineMask(ctx context.Context, req Request) (*mask.Mask, bool, error) {
	if !req.Refine || e.refiner == nil || req.Mask.Count() == 0 {
		return req.Mask, false, nil
	}
	m, err := e.refiner.Refine(ctx, req.Image, req.Mask, req.RefineKernel)
	switch {
	case errors.Is(err, refine.ErrUnavailable):
		e.log.Warn("mask refinement unavailable, using input mask", zap.Error(err))
		return req.Mask, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("mask refinement failed: %w", err)
	}
	return m, true, nil
}
