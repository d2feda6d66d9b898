package warp

import (
	"fmt"

	"drag-warp/internal/mask"
	"drag-warp/pkg/geometry"
)

// Region is one connected component of a region mask.
type Region struct {
	Contour []geometry.PointInt // outer boundary, simple chain approximation
	Fill    []geometry.PointInt // interior pixels in row-major order
	Mask    *mask.Mask          // Fill rasterized over the full image extent
}

// ExtractRegions splits a region mask into its connected external contours.
// An empty or all-zero mask yields no regions.
func ExtractRegions(m *mask.Mask) ([]Region, error) {
	if m.Empty() {
		return nil, nil
	}

	contours, err := m.FindExternalContours()
	if err != nil {
		return nil, fmt.Errorf("failed to find contours: %w", err)
	}

	regions := make([]Region, 0, len(contours))
	for _, c := range contours {
		r, err := ContourToRegion(c, m.Width, m.Height)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// ContourToRegion fills a contour and collects the pixels it covers.
// A contour with no points yields no fill points and an all-zero mask.
func ContourToRegion(contour []geometry.PointInt, width, height int) (Region, error) {
	filled, err := mask.FillContour(contour, width, height)
	if err != nil {
		return Region{}, fmt.Errorf("failed to fill contour: %w", err)
	}
	return Region{
		Contour: contour,
		Fill:    filled.Points(),
		Mask:    filled,
	}, nil
}
