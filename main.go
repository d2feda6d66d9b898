// Package main provides the drag-warp command: it moves a masked region of an
// image along one or more drag vectors and fills the area it leaves behind.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"drag-warp/internal/config"
	"drag-warp/internal/drag"
	imgpkg "drag-warp/internal/image"
	"drag-warp/internal/inpaint"
	"drag-warp/internal/logging"
	"drag-warp/internal/refine"
	"drag-warp/internal/version"
	"drag-warp/internal/warp"
	"drag-warp/pkg/geometry"

	"go.uber.org/zap"
)

func main() {
	imagePath := flag.String("image", "", "Path to input image (PNG, JPEG, TIFF, BMP or WebP)")
	maskPath := flag.String("mask", "", "Path to region mask; pixels brighter than -threshold are moved")
	pointsArg := flag.String("points", "", "Drag points x1,y1,x2,y2[,...] as handle/target pairs")
	configPath := flag.String("config", "", "Optional YAML config file")
	kernel := flag.Int("kernel", -1, "Inpaint kernel size (default from config)")
	useRefine := flag.Bool("refine", false, "Refine the mask with GrabCut before warping")
	threshold := flag.Uint("threshold", 127, "Mask binarization threshold")
	outDir := flag.String("out", "output", "Output directory")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *imagePath == "" || *maskPath == "" || *pointsArg == "" {
		fmt.Println("Usage: drag-warp -image <path> -mask <path> -points x1,y1,x2,y2 [-config cfg.yaml] [-kernel 5] [-refine] [-out dir]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger, runArgs{
		imagePath: *imagePath,
		maskPath:  *maskPath,
		points:    *pointsArg,
		kernel:    *kernel,
		refine:    *useRefine || cfg.Refine.Enabled,
		threshold: uint8(min(*threshold, 255)),
		outDir:    *outDir,
	})
	stop()
	logging.Sync(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type runArgs struct {
	imagePath string
	maskPath  string
	points    string
	kernel    int
	refine    bool
	threshold uint8
	outDir    string
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, args runArgs) error {
	logger.Info("starting", zap.String("version", version.Version), zap.String("commit", version.GitCommit))

	for _, p := range []string{args.imagePath, args.maskPath} {
		if !imgpkg.IsSupportedFormat(p) {
			logger.Warn("unrecognized image extension, trying to decode anyway", zap.String("path", p))
		}
	}

	layer, err := imgpkg.Load(args.imagePath)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	maskLayer, err := imgpkg.Load(args.maskPath)
	if err != nil {
		return fmt.Errorf("load mask: %w", err)
	}
	logger.Info("inputs loaded",
		zap.String("format", layer.Format),
		zap.Int("width", layer.Width()),
		zap.Int("height", layer.Height()))

	points, err := drag.ParsePoints(args.points)
	if err != nil {
		return fmt.Errorf("parse points: %w", err)
	}

	img, err := layer.ToMat()
	if err != nil {
		return err
	}
	defer img.Close()
	regionMask := maskLayer.ToMask(args.threshold)

	var refiner refine.Refiner
	if args.refine {
		gc := refine.NewGrabCutRefiner(cfg.RefineOptions(), logger)
		if err := gc.Load(ctx); err != nil {
			return fmt.Errorf("load refiner: %w", err)
		}
		defer gc.Unload()
		refiner = gc
	}

	kernelSize := cfg.Warp.KernelSize
	if args.kernel >= 0 {
		kernelSize = args.kernel
	}

	editor := drag.NewEditor(
		warp.NewWarper(cfg.WarpOptions(), logger),
		refiner,
		inpaint.NewDiffusionFiller(cfg.Inpaint.BlurSize, logger),
		logger,
	)
	req := drag.Request{
		Image:         img,
		Mask:          regionMask,
		Points:        points,
		Refine:        args.refine,
		RefineKernel:  cfg.Refine.KernelSize,
		InpaintKernel: kernelSize,
		Params:        cfg.FillParams(),
	}

	out, err := editor.Edit(ctx, req)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := drag.WriteArtifacts(args.outDir, req, out, "diffusion"); err != nil {
		return err
	}
	if err := writeOverlay(filepath.Join(args.outDir, "overlay.png"), out, points); err != nil {
		return err
	}

	fmt.Printf("Moved %d pixels, filled %d hole pixels\n", out.Warp.Len(), out.Warp.InpaintMask.Count())
	fmt.Printf("Results written to %s\n", args.outDir)
	return nil
}

// writeOverlay tints the hole over the result and draws each drag vector.
func writeOverlay(path string, out *drag.Outcome, points []geometry.PointInt) error {
	base, err := imgpkg.MatToImage(out.Result)
	if err != nil {
		return err
	}
	pairs, err := warp.ParseControlPoints(points)
	if err != nil {
		return err
	}
	drags := make([][2]geometry.PointInt, len(pairs))
	for i, p := range pairs {
		drags[i] = [2]geometry.PointInt{p.Source, p.Target}
	}

	rendered := imgpkg.NewOverlay(base).Render(out.Warp.InpaintMask,
		color.RGBA{R: 255, A: 255}, drags, color.RGBA{G: 255, A: 255})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create overlay: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, rendered); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return nil
}
