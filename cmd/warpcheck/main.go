// Command warpcheck runs the bidirectional warp on a synthetic square region
// and prints the resulting correspondence and hole statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"drag-warp/internal/logging"
	"drag-warp/internal/mask"
	"drag-warp/internal/warp"
	"drag-warp/pkg/geometry"
)

func main() {
	width := flag.Int("w", 256, "Image width")
	height := flag.Int("h", 256, "Image height")
	size := flag.Int("size", 64, "Square side length")
	dx := flag.Int("dx", 20, "Drag offset X")
	dy := flag.Int("dy", 10, "Drag offset Y")
	kernel := flag.Int("kernel", 5, "Inpaint kernel size")
	pairs := flag.Int("pairs", 1, "Number of drag pairs placed inside the square")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	if *size <= 0 || *size > *width || *size > *height || *pairs < 1 {
		fmt.Println("Usage: warpcheck [-w 256] [-h 256] [-size 64] [-dx 20] [-dy 10] [-kernel 5] [-pairs 1] [-v]")
		os.Exit(1)
	}

	mode := "release"
	if *verbose {
		mode = "debug"
	}
	logger, err := logging.New(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(logger)

	// Square centred in the image
	x0, y0 := (*width-*size)/2, (*height-*size)/2
	region := mask.New(*width, *height)
	for y := y0; y < y0+*size; y++ {
		for x := x0; x < x0+*size; x++ {
			region.Set(x, y, true)
		}
	}

	// Handles spread along the square's diagonal
	var points []geometry.PointInt
	for i := 0; i < *pairs; i++ {
		t := (i + 1) * *size / (*pairs + 1)
		h := geometry.Pt(x0+t, y0+t)
		points = append(points, h, geometry.Pt(h.X+*dx, h.Y+*dy))
	}

	fmt.Printf("Region: %dx%d square at (%d,%d) in %dx%d image\n", *size, *size, x0, y0, *width, *height)
	fmt.Printf("Drag: (%d,%d) with %d pair(s), kernel %d\n", *dx, *dy, *pairs, *kernel)

	w := warp.NewWarper(warp.DefaultOptions(), logger)
	start := time.Now()
	res, err := w.BiWarp(context.Background(), region, points, *kernel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warp failed: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	moved := 0
	for i := range res.Sources {
		if res.Sources[i] != res.Targets[i] {
			moved++
		}
	}
	box := geometry.BoundingBox(res.Targets)
	shift := 0.0
	if res.Len() > 0 {
		shift = geometry.Centroid(geometry.ToFloats(res.Targets)).Distance(geometry.Centroid(geometry.ToFloats(res.Sources)))
	}

	fmt.Printf("\nCorrespondences: %d (%d moved)\n", res.Len(), moved)
	fmt.Printf("Target bounds:   (%d,%d) %dx%d\n", box.X, box.Y, box.Width, box.Height)
	fmt.Printf("Centroid shift:  %.2f px\n", shift)
	fmt.Printf("Inpaint pixels:  %d\n", res.InpaintMask.Count())
	fmt.Printf("Elapsed:         %v\n", elapsed)
}
