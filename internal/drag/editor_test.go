package drag

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"drag-warp/internal/inpaint"
	"drag-warp/internal/mask"
	"drag-warp/internal/refine"
	"drag-warp/internal/warp"
	"drag-warp/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type stubRefiner struct {
	out   *mask.Mask
	err   error
	calls int
}

func (s *stubRefiner) Load(context.Context) error { return nil }
func (s *stubRefiner) Unload() error              { return nil }

func (s *stubRefiner) Refine(_ context.Context, _ gocv.Mat, m *mask.Mask, _ int) (*mask.Mask, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

var _ refine.Refiner = (*stubRefiner)(nil)

// scene is a 64x48 grey image with a red 20x20 square at (10,10).
func scene(t *testing.T) (gocv.Mat, *mask.Mask) {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), 48, 64, gocv.MatTypeCV8UC3)
	m := rectMask(64, 48, image.Rect(10, 10, 30, 30))
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			img.SetUCharAt(y, x*3, 0)
			img.SetUCharAt(y, x*3+1, 0)
			img.SetUCharAt(y, x*3+2, 255)
		}
	}
	return img, m
}

func rectMask(width, height int, r image.Rectangle) *mask.Mask {
	m := mask.New(width, height)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

func bgr(m gocv.Mat, x, y int) [3]uint8 {
	return [3]uint8{m.GetUCharAt(y, x*3), m.GetUCharAt(y, x*3+1), m.GetUCharAt(y, x*3+2)}
}

func newEditor(r refine.Refiner) *Editor {
	return NewEditor(warp.NewWarper(warp.DefaultOptions(), nil), r, inpaint.NewDiffusionFiller(5, nil), nil)
}

func dragRight(img gocv.Mat, m *mask.Mask) Request {
	return Request{
		Image:  img,
		Mask:   m,
		Points: []geometry.PointInt{geometry.Pt(20, 20), geometry.Pt(30, 20)},
		Params: inpaint.DefaultParams(),
	}
}

func TestEditMovesRegion(t *testing.T) {
	img, m := scene(t)
	defer img.Close()

	out, err := newEditor(nil).Edit(context.Background(), dragRight(img, m))
	require.NoError(t, err)
	defer out.Close()

	red := [3]uint8{0, 0, 255}
	grey := [3]uint8{128, 128, 128}

	assert.Equal(t, 400, out.Warp.Len())
	assert.False(t, out.Refined)
	assert.True(t, out.RefinedMask.Equal(m))

	// Vacated strip x in [10,20) is the hole; the rest of the source square
	// is covered by the moved region.
	assert.Equal(t, 200, out.Warp.InpaintMask.Count())
	assert.Equal(t, uint8(1), out.Warp.InpaintMask.At(15, 20))
	assert.Equal(t, uint8(0), out.Warp.InpaintMask.At(25, 20))

	assert.Equal(t, red, bgr(out.Warped, 35, 20))
	assert.Equal(t, red, bgr(out.Warped, 15, 20))
	assert.Equal(t, red, bgr(out.Result, 35, 20))
	assert.Equal(t, grey, bgr(out.Result, 5, 5))
	assert.Equal(t, grey, bgr(out.Result, 45, 40))
	assert.NotEqual(t, red, bgr(out.Result, 12, 20))

	// The input stays untouched.
	assert.Equal(t, grey, bgr(img, 35, 20))
}

func TestEditEmptyMaskReturnsInput(t *testing.T) {
	img, _ := scene(t)
	defer img.Close()

	req := dragRight(img, mask.New(64, 48))
	out, err := newEditor(nil).Edit(context.Background(), req)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 0, out.Warp.Len())
	assert.Equal(t, img.ToBytes(), out.Result.ToBytes())
}

func TestEditNoMatchingControlPoints(t *testing.T) {
	img, m := scene(t)
	defer img.Close()

	req := dragRight(img, m)
	req.Points = []geometry.PointInt{geometry.Pt(50, 40), geometry.Pt(55, 40)}
	_, err := newEditor(nil).Edit(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoMatchingControlPoints)
}

func TestEditRejectsBadInput(t *testing.T) {
	img, m := scene(t)
	defer img.Close()
	e := newEditor(nil)

	req := dragRight(img, m)
	req.Points = []geometry.PointInt{geometry.Pt(20, 20), geometry.Pt(64, 20)}
	_, err := e.Edit(context.Background(), req)
	assert.ErrorIs(t, err, ErrPointOutOfBounds)

	req = dragRight(img, m)
	req.Points = req.Points[:1]
	_, err = e.Edit(context.Background(), req)
	assert.ErrorIs(t, err, warp.ErrOddControlPoints)

	req = dragRight(img, nil)
	_, err = e.Edit(context.Background(), req)
	assert.ErrorIs(t, err, warp.ErrNilMask)

	req = dragRight(img, mask.New(10, 10))
	_, err = e.Edit(context.Background(), req)
	assert.Error(t, err)
}

func TestEditRefinerFallback(t *testing.T) {
	img, m := scene(t)
	defer img.Close()

	r := &stubRefiner{err: refine.ErrNotLoaded}
	req := dragRight(img, m)
	req.Refine = true
	out, err := newEditor(r).Edit(context.Background(), req)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 1, r.calls)
	assert.False(t, out.Refined)
	assert.True(t, out.RefinedMask.Equal(m))
	assert.Equal(t, 400, out.Warp.Len())
}

func TestEditUsesRefinedMask(t *testing.T) {
	img, m := scene(t)
	defer img.Close()

	smaller := rectMask(64, 48, image.Rect(15, 15, 25, 25))
	r := &stubRefiner{out: smaller}
	req := dragRight(img, m)
	req.Refine = true
	out, err := newEditor(r).Edit(context.Background(), req)
	require.NoError(t, err)
	defer out.Close()

	assert.True(t, out.Refined)
	assert.True(t, out.RefinedMask.Equal(smaller))
	assert.Equal(t, 100, out.Warp.Len())
}

func TestEditRefinerDisabled(t *testing.T) {
	img, m := scene(t)
	defer img.Close()

	r := &stubRefiner{out: mask.New(64, 48)}
	out, err := newEditor(r).Edit(context.Background(), dragRight(img, m))
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 0, r.calls)
}

func TestEditRefinerHardFailure(t *testing.T) {
	img, m := scene(t)
	defer img.Close()

	boom := errors.New("boom")
	req := dragRight(img, m)
	req.Refine = true
	_, err := newEditor(&stubRefiner{err: boom}).Edit(context.Background(), req)
	assert.ErrorIs(t, err, boom)
}

func TestEditCancelled(t *testing.T) {
	img, m := scene(t)
	defer img.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEditor(nil).Edit(ctx, dragRight(img, m))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteArtifacts(t *testing.T) {
	img, m := scene(t)
	defer img.Close()

	req := dragRight(img, m)
	out, err := newEditor(nil).Edit(context.Background(), req)
	require.NoError(t, err)
	defer out.Close()

	dir := filepath.Join(t.TempDir(), "run")
	require.NoError(t, WriteArtifacts(dir, req, out, "diffusion"))

	for _, name := range []string{
		"input_image.png", "input_mask.png", "refined_mask.png",
		"warped.png", "inpaint_mask.png", "result.png", "meta.json",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	require.NoError(t, err)
	var meta Meta
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, "diffusion", meta.Filler)
	assert.Equal(t, [][2]int{{20, 20}, {30, 20}}, meta.Points)
	assert.Equal(t, 400, meta.Correspondences)
	assert.Equal(t, 200, meta.HolePixels)
}
