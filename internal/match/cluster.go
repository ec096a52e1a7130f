package match

import (
	"image"
	"math"
)

// Cluster collapses candidate points into occurrence anchors.
//
// Points are walked in the order given (row-major from NonZero). The first
// point starts a cluster; each later point starts a new one only when its
// distance to the immediately preceding point, truncated to an integer,
// exceeds maxDistance. Otherwise it is absorbed.
//
// The walk follows scan order rather than 2-D proximity, so a detection blob
// that wraps across scan lines can yield more than one anchor, and two
// duplicates separated by an unrelated point in scan order are not merged.
// Changing this changes redaction coverage; keep it.
func Cluster(points []image.Point, maxDistance int) []image.Point {
	if len(points) == 0 {
		return nil
	}
	anchors := []image.Point{points[0]}
	for i := 1; i < len(points); i++ {
		if distance(points[i-1], points[i]) > maxDistance {
			anchors = append(anchors, points[i])
		}
	}
	return anchors
}

func distance(a, b image.Point) int {
	return int(math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y)))
}
