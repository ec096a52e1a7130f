package match

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// ScoreMap is a correlation surface. Cell (x, y) holds the score of the
// template anchored with its top-left corner at (x, y) in the frame.
type ScoreMap struct {
	m *mat.Dense
}

// NewScoreMap allocates a zeroed w×h map. Both dimensions must be positive.
func NewScoreMap(w, h int) *ScoreMap {
	return &ScoreMap{m: mat.NewDense(h, w, nil)}
}

// Size returns the map dimensions.
func (s *ScoreMap) Size() image.Point {
	r, c := s.m.Dims()
	return image.Pt(c, r)
}

// At returns the score at (x, y).
func (s *ScoreMap) At(x, y int) float64 { return s.m.At(y, x) }

// Set stores the score at (x, y).
func (s *ScoreMap) Set(x, y int, v float64) { s.m.Set(y, x, v) }

// Max returns the highest score and its location.
func (s *ScoreMap) Max() (float64, image.Point) {
	size := s.Size()
	best, at := s.At(0, 0), image.Point{}
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if v := s.At(x, y); v > best {
				best, at = v, image.Pt(x, y)
			}
		}
	}
	return best, at
}

// ThresholdToZero zeroes every score below threshold in place. Scores at or
// above threshold keep their value.
func ThresholdToZero(s *ScoreMap, threshold float64) {
	raw := s.m.RawMatrix()
	for r := 0; r < raw.Rows; r++ {
		row := raw.Data[r*raw.Stride : r*raw.Stride+raw.Cols]
		for i, v := range row {
			if v < threshold {
				row[i] = 0
			}
		}
	}
}

// NonZero returns the coordinates of every non-zero cell in row-major order.
func NonZero(s *ScoreMap) []image.Point {
	raw := s.m.RawMatrix()
	var points []image.Point
	for r := 0; r < raw.Rows; r++ {
		row := raw.Data[r*raw.Stride : r*raw.Stride+raw.Cols]
		for c, v := range row {
			if v != 0 {
				points = append(points, image.Pt(c, r))
			}
		}
	}
	return points
}
