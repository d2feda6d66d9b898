package drag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"drag-warp/internal/mask"

	"gocv.io/x/gocv"
)

// Meta is written to meta.json next to the image artifacts.
type Meta struct {
	Filler          string   `json:"filler"`
	Points          [][2]int `json:"points"`
	InpaintKernel   int      `json:"inpaint_kernel"`
	Refined         bool     `json:"refined"`
	Correspondences int      `json:"correspondences"`
	HolePixels      int      `json:"hole_pixels"`
}

// WriteArtifacts saves the inputs, every intermediate of out and meta.json
// into dir, creating it if needed.
func WriteArtifacts(dir string, req Request, out *Outcome, filler string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	mats := []struct {
		name string
		mat  gocv.Mat
	}{
		{"input_image.png", req.Image},
		{"warped.png", out.Warped},
		{"result.png", out.Result},
	}
	for _, m := range mats {
		if err := writeMat(filepath.Join(dir, m.name), m.mat); err != nil {
			return err
		}
	}

	masks := []struct {
		name string
		m    *mask.Mask
	}{
		{"input_mask.png", req.Mask},
		{"refined_mask.png", out.RefinedMask},
		{"inpaint_mask.png", out.Warp.InpaintMask},
	}
	for _, m := range masks {
		mat, err := m.m.ToMat()
		if err != nil {
			return fmt.Errorf("failed to convert %s: %w", m.name, err)
		}
		err = writeMat(filepath.Join(dir, m.name), mat)
		mat.Close()
		if err != nil {
			return err
		}
	}

	meta := Meta{
		Filler:          filler,
		Points:          make([][2]int, len(req.Points)),
		InpaintKernel:   req.InpaintKernel,
		Refined:         out.Refined,
		Correspondences: out.Warp.Len(),
		HolePixels:      out.Warp.InpaintMask.Count(),
	}
	for i, p := range req.Points {
		meta.Points[i] = [2]int{p.X, p.Y}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write meta: %w", err)
	}
	return nil
}

func writeMat(path string, mat gocv.Mat) error {
	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}
