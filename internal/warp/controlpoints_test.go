package warp

import (
	"errors"
	"testing"

	"drag-warp/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseControlPoints(t *testing.T) {
	flat := []geometry.PointInt{geometry.Pt(1, 2), geometry.Pt(3, 4), geometry.Pt(5, 6), geometry.Pt(7, 8)}
	pairs, err := ParseControlPoints(flat)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, ControlPair{Source: geometry.Pt(1, 2), Target: geometry.Pt(3, 4)}, pairs[0])
	assert.Equal(t, geometry.Pt(2, 2), pairs[1].Direction())
	assert.Equal(t, flat, FlattenControlPairs(pairs))
}

func TestParseControlPointsOdd(t *testing.T) {
	_, err := ParseControlPoints([]geometry.PointInt{geometry.Pt(1, 2), geometry.Pt(3, 4), geometry.Pt(5, 6)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOddControlPoints))
}

func TestNormalizeKernelSize(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 0},
		{0, 0},
		{1, 1},
		{4, 5},
		{5, 5},
		{20, 21},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKernelSize(tt.in), "kernel %d", tt.in)
	}
}
