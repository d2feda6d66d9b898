package drag

import (
	"fmt"
	"strconv"
	"strings"

	"drag-warp/internal/warp"
	"drag-warp/pkg/geometry"
)

// ParsePoints parses "x1,y1,x2,y2,..." into alternating handle and target
// points. Whitespace around numbers is ignored.
func ParsePoints(s string) ([]geometry.PointInt, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("no points given")
	}
	fields := strings.Split(s, ",")
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("coordinate list has %d values, want x,y pairs", len(fields))
	}

	points := make([]geometry.PointInt, len(fields)/2)
	for i := range points {
		x, err := strconv.Atoi(strings.TrimSpace(fields[2*i]))
		if err != nil {
			return nil, fmt.Errorf("point %d: bad x: %w", i, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(fields[2*i+1]))
		if err != nil {
			return nil, fmt.Errorf("point %d: bad y: %w", i, err)
		}
		points[i] = geometry.Pt(x, y)
	}
	if _, err := warp.ParseControlPoints(points); err != nil {
		return nil, err
	}
	return points, nil
}
