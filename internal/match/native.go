package match

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
)

// NativeCorrelator computes normalised correlation coefficients
// (CCOEFF_NORMED) in pure Go.
//
// For a template T of n pixels and a frame window I:
//
//	R = (n·ΣTI - ΣT·ΣI) / sqrt((n·ΣT² - (ΣT)²) · (n·ΣI² - (ΣI)²))
//
// Window sums come from int64 integral images; ΣTI is a row-wise dot
// product. The variance terms are exact integers for any frame up to 4K,
// so flat regions are detected exactly.
type NativeCorrelator struct{}

// NewNativeCorrelator returns the pure Go correlator.
func NewNativeCorrelator() NativeCorrelator { return NativeCorrelator{} }

// Correlate implements Correlator.
func (NativeCorrelator) Correlate(frame, tpl *image.Gray) (*ScoreMap, error) {
	fw, fh := frame.Rect.Dx(), frame.Rect.Dy()
	tw, th := tpl.Rect.Dx(), tpl.Rect.Dy()
	if err := checkSize(image.Pt(fw, fh), image.Pt(tw, th)); err != nil {
		return nil, err
	}

	frameRows := grayRows(frame)
	tplRows := grayRows(tpl)
	n := int64(tw * th)

	var tplSum, tplSumSq int64
	for y := 0; y < th; y++ {
		for _, v := range tpl.Pix[y*tpl.Stride : y*tpl.Stride+tw] {
			tplSum += int64(v)
			tplSumSq += int64(v) * int64(v)
		}
	}
	tplVar := n*tplSumSq - tplSum*tplSum

	sum, sumSq := integrals(frame)
	stride := fw + 1
	windowSum := func(table []int64, x, y int) int64 {
		return table[(y+th)*stride+x+tw] - table[y*stride+x+tw] - table[(y+th)*stride+x] + table[y*stride+x]
	}

	ow, oh := fw-tw+1, fh-th+1
	scores := NewScoreMap(ow, oh)
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			winSum := windowSum(sum, x, y)
			winVar := n*windowSum(sumSq, x, y) - winSum*winSum
			if tplVar == 0 || winVar == 0 {
				scores.Set(x, y, flatScore(tplVar, winVar, tplSum, winSum))
				continue
			}
			var cross float64
			for ty, tplRow := range tplRows {
				cross += floats.Dot(tplRow, frameRows[y+ty][x:x+tw])
			}
			num := float64(n)*cross - float64(tplSum)*float64(winSum)
			score := num / math.Sqrt(float64(tplVar)*float64(winVar))
			scores.Set(x, y, math.Max(-1, math.Min(1, score)))
		}
	}
	return scores, nil
}

// flatScore scores windows where the template or the window has no
// variance: a flat template matches a flat window of the same mean.
func flatScore(tplVar, winVar, tplSum, winSum int64) float64 {
	if tplVar == 0 && winVar == 0 && tplSum == winSum {
		return 1
	}
	return 0
}

func grayRows(img *image.Gray) [][]float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rows := make([][]float64, h)
	backing := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := backing[y*w : (y+1)*w]
		src := img.Pix[y*img.Stride : y*img.Stride+w]
		for x, v := range src {
			row[x] = float64(v)
		}
		rows[y] = row
	}
	return rows
}

// integrals returns summed-area tables of values and squared values with a
// zero guard row and column.
func integrals(img *image.Gray) (sum, sumSq []int64) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	stride := w + 1
	sum = make([]int64, stride*(h+1))
	sumSq = make([]int64, stride*(h+1))
	for y := 0; y < h; y++ {
		var rowSum, rowSumSq int64
		for x, p := range img.Pix[y*img.Stride : y*img.Stride+w] {
			v := int64(p)
			rowSum += v
			rowSumSq += v * v
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + rowSum
			sumSq[(y+1)*stride+x+1] = sumSq[y*stride+x+1] + rowSumSq
		}
	}
	return sum, sumSq
}
