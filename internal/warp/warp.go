// Package warp computes the pixel correspondences and hole mask for a
// drag-to-edit operation.
//
// Each connected region of the region mask is warped on its own: control
// pairs that start inside the region define a displacement field, the
// region's boundary and interior are pushed forward through it, and the
// inverse field is then sampled at every pixel of the moved region to find
// the source pixel it should copy. Pixels the region vacates become holes.
package warp

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"drag-warp/internal/mask"
	"drag-warp/pkg/geometry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNilMask is returned when BiWarp is called without a region mask.
var ErrNilMask = errors.New("region mask is nil")

// Options tunes the warp.
type Options struct {
	Interpolator   Interpolator
	MatchThreshold float64 // max distance from a control point to a region pixel
	Workers        int     // concurrent regions; 0 means runtime.NumCPU()
}

// DefaultOptions returns the stock warp parameters.
func DefaultOptions() Options {
	return Options{
		Interpolator:   NewInterpolator(),
		MatchThreshold: DefaultMatchThreshold,
	}
}

// Result is the output of BiWarp. Targets[i] takes its color from Sources[i].
type Result struct {
	Sources     []geometry.PointInt
	Targets     []geometry.PointInt
	InpaintMask *mask.Mask
}

// Len returns the number of correspondences.
func (r *Result) Len() int {
	return len(r.Sources)
}

// Warper runs the bidirectional region warp. It holds no per-call state and
// may be shared between goroutines.
type Warper struct {
	opts Options
	log  *zap.Logger
}

// NewWarper creates a Warper. A nil logger disables logging.
func NewWarper(opts Options, logger *zap.Logger) *Warper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Warper{opts: opts, log: logger}
}

// regionOutcome is what one region contributes to the aggregate.
type regionOutcome struct {
	sources    []geometry.PointInt
	targets    []geometry.PointInt
	sourceMask *mask.Mask
	targetMask *mask.Mask
	seam       []geometry.PointInt // forward-warped contour, nil if the region was skipped
}

// BiWarp computes source/target correspondences and the inpaint mask for the
// given region mask and alternating source/target control points.
//
// kernelSize is normalized with NormalizeKernelSize. When positive, the
// hole mask is dilated by a kernelSize square and the moved boundary is
// drawn into it with thickness (kernelSize-1)*2.
//
// Degenerate input (empty mask, no control pair inside any region, every
// source out of bounds) yields an empty Result with an all-zero mask, not an
// error. Cancellation is checked between regions.
func (w *Warper) BiWarp(ctx context.Context, regionMask *mask.Mask, controlPoints []geometry.PointInt, kernelSize int) (*Result, error) {
	if regionMask == nil {
		return nil, ErrNilMask
	}
	pairs, err := ParseControlPoints(controlPoints)
	if err != nil {
		return nil, err
	}
	kernelSize = NormalizeKernelSize(kernelSize)
	width, height := regionMask.Width, regionMask.Height

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions, err := ExtractRegions(regionMask)
	if err != nil {
		return nil, err
	}
	sources, targets := splitPairs(pairs)

	outcomes := make([]regionOutcome, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Workers)
	for i := range regions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := w.warpRegion(regions[i], sources, targets, width, height)
			if err != nil {
				return fmt.Errorf("region %d: %w", i, err)
			}
			outcomes[i] = o
			w.log.Debug("region warped",
				zap.Int("region", i),
				zap.Int("contour_points", len(regions[i].Contour)),
				zap.Int("fill_points", len(regions[i].Fill)),
				zap.Int("correspondences", len(o.sources)),
				zap.Bool("skipped", o.seam == nil))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res, err := w.merge(outcomes, width, height, kernelSize)
	if err != nil {
		return nil, err
	}
	w.log.Info("bi-warp complete",
		zap.Int("regions", len(regions)),
		zap.Int("control_pairs", len(pairs)),
		zap.Int("kernel_size", kernelSize),
		zap.Int("correspondences", res.Len()),
		zap.Int("inpaint_pixels", res.InpaintMask.Count()))
	return res, nil
}

// warpRegion runs the forward and backward solves for one region.
func (w *Warper) warpRegion(region Region, sources, targets []geometry.Point2D, width, height int) (regionOutcome, error) {
	interp := w.opts.Interpolator

	src, tgt := MatchControlPoints(region.Fill, sources, targets, w.opts.MatchThreshold)
	if len(src) == 0 {
		return regionOutcome{}, nil
	}
	dirs := make([]geometry.Point2D, len(src))
	for i := range src {
		dirs[i] = tgt[i].Sub(src[i])
	}

	targetContour := geometry.RoundAll(interp.Interpolate(geometry.ToFloats(region.Contour), src, dirs))
	fill := geometry.ToFloats(region.Fill)
	forwardFill := interp.Interpolate(fill, src, dirs)

	targetRegion, err := ContourToRegion(targetContour, width, height)
	if err != nil {
		return regionOutcome{}, err
	}
	if len(targetRegion.Fill) == 0 {
		return regionOutcome{}, nil
	}

	back := make([]geometry.Point2D, len(fill))
	for i := range fill {
		back[i] = fill[i].Sub(forwardFill[i])
	}
	resolved := geometry.RoundAll(interp.Interpolate(geometry.ToFloats(targetRegion.Fill), forwardFill, back))

	out := regionOutcome{
		sourceMask: region.Mask,
		targetMask: targetRegion.Mask,
		seam:       targetContour,
	}
	for i, ok := range WithinBounds(resolved, height, width) {
		if ok {
			out.sources = append(out.sources, resolved[i])
			out.targets = append(out.targets, targetRegion.Fill[i])
		}
	}
	return out, nil
}

// merge folds the per-region outcomes, in region order, into one Result.
func (w *Warper) merge(outcomes []regionOutcome, width, height, kernelSize int) (*Result, error) {
	sourceUnion := mask.New(width, height)
	targetUnion := mask.New(width, height)
	seam := mask.New(width, height)
	res := &Result{}

	for _, o := range outcomes {
		if o.seam != nil && kernelSize > 0 {
			if err := seam.DrawContour(o.seam, (kernelSize-1)*2); err != nil {
				return nil, fmt.Errorf("failed to draw seam: %w", err)
			}
		}
		if len(o.sources) == 0 {
			continue
		}
		res.Sources = append(res.Sources, o.sources...)
		res.Targets = append(res.Targets, o.targets...)
		sourceUnion.Or(o.sourceMask)
		targetUnion.Or(o.targetMask)
	}

	if res.Len() == 0 {
		res.Sources = []geometry.PointInt{}
		res.Targets = []geometry.PointInt{}
		res.InpaintMask = mask.New(width, height)
		return res, nil
	}

	hole := sourceUnion
	hole.AndNot(targetUnion)
	if kernelSize > 0 {
		dilated, err := hole.Dilate(kernelSize)
		if err != nil {
			return nil, fmt.Errorf("failed to dilate inpaint mask: %w", err)
		}
		hole = dilated
		hole.Or(seam)
	}
	res.InpaintMask = hole
	return res, nil
}
