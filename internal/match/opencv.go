//go:build gocv

package match

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func init() {
	Register(BackendOpenCV, func() (Correlator, error) { return OpenCVCorrelator{}, nil })
}

// OpenCVCorrelator runs cv::matchTemplate with TM_CCOEFF_NORMED.
type OpenCVCorrelator struct{}

// Correlate implements Correlator.
func (OpenCVCorrelator) Correlate(frame, tpl *image.Gray) (*ScoreMap, error) {
	if err := checkSize(frame.Rect.Size(), tpl.Rect.Size()); err != nil {
		return nil, err
	}
	frameMat, err := gocv.ImageGrayToMatGray(frame)
	if err != nil {
		return nil, fmt.Errorf("frame to mat: %w", err)
	}
	defer frameMat.Close()
	tplMat, err := gocv.ImageGrayToMatGray(tpl)
	if err != nil {
		return nil, fmt.Errorf("template to mat: %w", err)
	}
	defer tplMat.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(frameMat, tplMat, &result, gocv.TmCcoeffNormed, mask)

	rows, cols := result.Rows(), result.Cols()
	scores := NewScoreMap(cols, rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			scores.Set(x, y, float64(result.GetFloatAt(y, x)))
		}
	}
	return scores, nil
}
