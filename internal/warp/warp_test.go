package warp

import (
	"context"
	"errors"
	"sort"
	"testing"

	"drag-warp/internal/mask"
	"drag-warp/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareMask(width, height int, rects ...[4]int) *mask.Mask {
	m := mask.New(width, height)
	for _, r := range rects {
		for y := r[1]; y < r[3]; y++ {
			for x := r[0]; x < r[2]; x++ {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

func flat(xy ...int) []geometry.PointInt {
	out := make([]geometry.PointInt, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, geometry.Pt(xy[i], xy[i+1]))
	}
	return out
}

func biWarp(t *testing.T, m *mask.Mask, cps []geometry.PointInt, kernel int) *Result {
	t.Helper()
	res, err := NewWarper(DefaultOptions(), nil).BiWarp(context.Background(), m, cps, kernel)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func requireInvariants(t *testing.T, res *Result, width, height int) {
	t.Helper()
	require.Equal(t, len(res.Sources), len(res.Targets))
	require.Equal(t, width, res.InpaintMask.Width)
	require.Equal(t, height, res.InpaintMask.Height)
	for i := range res.Sources {
		require.True(t, res.Sources[i].In(width, height), "source %v", res.Sources[i])
		require.True(t, res.Targets[i].In(width, height), "target %v", res.Targets[i])
	}
}

type pair struct{ s, t geometry.PointInt }

func sortedPairs(res *Result) []pair {
	out := make([]pair, res.Len())
	for i := range out {
		out[i] = pair{res.Sources[i], res.Targets[i]}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.t.Y != b.t.Y {
			return a.t.Y < b.t.Y
		}
		if a.t.X != b.t.X {
			return a.t.X < b.t.X
		}
		if a.s.Y != b.s.Y {
			return a.s.Y < b.s.Y
		}
		return a.s.X < b.s.X
	})
	return out
}

func TestBiWarpEmptyMask(t *testing.T) {
	m := mask.New(64, 48)
	res := biWarp(t, m, flat(10, 10, 20, 20), 5)

	assert.Empty(t, res.Sources)
	assert.Empty(t, res.Targets)
	assert.Equal(t, 0, res.InpaintMask.Count())
	requireInvariants(t, res, 64, 48)
}

func TestBiWarpNoControlPointInRegion(t *testing.T) {
	m := squareMask(100, 100, [4]int{10, 10, 30, 30})
	res := biWarp(t, m, flat(80, 80, 90, 90), 5)

	assert.Zero(t, res.Len())
	assert.Equal(t, 0, res.InpaintMask.Count())
}

func TestBiWarpSingleDragTranslates(t *testing.T) {
	m := squareMask(100, 100, [4]int{10, 10, 30, 30})
	res := biWarp(t, m, flat(20, 20, 60, 60), 0)
	requireInvariants(t, res, 100, 100)

	require.Equal(t, 400, res.Len())
	for i := range res.Sources {
		assert.Equal(t, geometry.Pt(40, 40), res.Targets[i].Sub(res.Sources[i]))
		assert.Equal(t, uint8(1), m.At(res.Sources[i].X, res.Sources[i].Y))
	}
}

func TestBiWarpNonOverlappingHole(t *testing.T) {
	m := squareMask(100, 100, [4]int{10, 10, 30, 30})
	res := biWarp(t, m, flat(20, 20, 60, 60), 0)

	assert.Equal(t, 400, res.InpaintMask.Count())
	assert.True(t, res.InpaintMask.Equal(m))
	for _, p := range res.Targets {
		assert.Equal(t, uint8(0), m.At(p.X, p.Y), "target %v overlaps source region", p)
	}
}

func TestBiWarpKernelAddsDilationAndSeam(t *testing.T) {
	m := squareMask(100, 100, [4]int{10, 10, 30, 30})
	plain := biWarp(t, m, flat(20, 20, 60, 60), 0)
	dilated := biWarp(t, m, flat(20, 20, 60, 60), 5)

	assert.Greater(t, dilated.InpaintMask.Count(), plain.InpaintMask.Count())
	for _, p := range m.Points() {
		assert.Equal(t, uint8(1), dilated.InpaintMask.At(p.X, p.Y))
	}
	// The moved boundary is part of the seam band.
	assert.Equal(t, uint8(0), plain.InpaintMask.At(50, 50))
	assert.Equal(t, uint8(1), dilated.InpaintMask.At(50, 50))
	assert.Equal(t, plain.Sources, dilated.Sources)
	assert.Equal(t, plain.Targets, dilated.Targets)
}

func TestBiWarpKernelNormalization(t *testing.T) {
	m := squareMask(100, 100, [4]int{10, 10, 30, 30})
	cps := flat(20, 20, 60, 60)

	assert.Equal(t, biWarp(t, m, cps, 5), biWarp(t, m, cps, 4))
	assert.Equal(t, biWarp(t, m, cps, 0), biWarp(t, m, cps, -3))
}

func TestBiWarpDeterministic(t *testing.T) {
	m := squareMask(120, 90, [4]int{5, 5, 40, 35}, [4]int{60, 40, 100, 80})
	cps := flat(20, 20, 30, 25, 10, 10, 8, 14, 70, 50, 65, 45, 90, 70, 95, 72)

	first := biWarp(t, m, cps, 5)
	requireInvariants(t, first, 120, 90)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, biWarp(t, m, cps, 5))
	}
}

func TestBiWarpRegionsAreIndependent(t *testing.T) {
	m := squareMask(100, 100, [4]int{10, 10, 30, 30}, [4]int{60, 60, 80, 80})

	onlyFirst := biWarp(t, m, flat(20, 20, 25, 20), 0)
	assert.Equal(t, 400, onlyFirst.Len())
	assert.Equal(t, uint8(0), onlyFirst.InpaintMask.At(70, 70))

	both := biWarp(t, m, flat(20, 20, 25, 20, 70, 70, 70, 65), 3)
	swapped := biWarp(t, m, flat(70, 70, 70, 65, 20, 20, 25, 20), 3)
	requireInvariants(t, both, 100, 100)
	assert.Equal(t, 800, both.Len())
	assert.Equal(t, sortedPairs(both), sortedPairs(swapped))
	assert.True(t, both.InpaintMask.Equal(swapped.InpaintMask))
}

func TestBiWarpClipsAtImageEdge(t *testing.T) {
	m := squareMask(100, 100, [4]int{70, 40, 90, 60})
	res := biWarp(t, m, flat(80, 50, 95, 50), 0)
	requireInvariants(t, res, 100, 100)

	assert.Equal(t, 300, res.Len())
	for i := range res.Sources {
		assert.Equal(t, geometry.Pt(15, 0), res.Targets[i].Sub(res.Sources[i]))
	}
}

func TestBiWarpRegionMovedOffImage(t *testing.T) {
	m := squareMask(100, 100, [4]int{70, 40, 90, 60})
	res := biWarp(t, m, flat(80, 50, 180, 50), 5)

	assert.Zero(t, res.Len())
	assert.Equal(t, 0, res.InpaintMask.Count())
}

func TestBiWarpManyControlPairs(t *testing.T) {
	m := squareMask(120, 120, [4]int{5, 5, 100, 100})
	var cps []geometry.PointInt
	for i := 0; i < 500; i++ {
		src := geometry.Pt(10+i%25*3, 10+i/25*3)
		cps = append(cps, src, geometry.Pt(src.X+2+i%3, src.Y+1+i%2))
	}

	first := biWarp(t, m, cps, 5)
	requireInvariants(t, first, 120, 120)
	assert.NotZero(t, first.Len())
	assert.Equal(t, first, biWarp(t, m, cps, 5))
}

func TestBiWarpRejectsOddControlPoints(t *testing.T) {
	m := squareMask(100, 100, [4]int{10, 10, 30, 30})
	_, err := NewWarper(DefaultOptions(), nil).BiWarp(context.Background(), m, flat(20, 20, 60, 60, 1, 1)[:3], 5)
	assert.True(t, errors.Is(err, ErrOddControlPoints))
}

func TestBiWarpNilMask(t *testing.T) {
	_, err := NewWarper(DefaultOptions(), nil).BiWarp(context.Background(), nil, nil, 5)
	assert.True(t, errors.Is(err, ErrNilMask))
}

func TestBiWarpCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := squareMask(100, 100, [4]int{10, 10, 30, 30})
	_, err := NewWarper(DefaultOptions(), nil).BiWarp(ctx, m, flat(20, 20, 60, 60), 5)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExtractRegions(t *testing.T) {
	regions, err := ExtractRegions(mask.New(10, 10))
	require.NoError(t, err)
	assert.Empty(t, regions)

	m := squareMask(100, 100, [4]int{10, 10, 30, 30}, [4]int{60, 60, 70, 75})
	regions, err = ExtractRegions(m)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	total := 0
	for _, r := range regions {
		assert.NotEmpty(t, r.Contour)
		assert.Equal(t, len(r.Fill), r.Mask.Count())
		total += len(r.Fill)
	}
	assert.Equal(t, 400+150, total)
}

func TestContourToRegionEmpty(t *testing.T) {
	r, err := ContourToRegion(nil, 20, 10)
	require.NoError(t, err)
	assert.Empty(t, r.Fill)
	assert.Equal(t, 0, r.Mask.Count())
	assert.Equal(t, 20, r.Mask.Width)
	assert.Equal(t, 10, r.Mask.Height)
}
