package match

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/google/go-cmp/cmp"

	"veil/internal/overlay"
	"veil/internal/video"
)

// noise fills an image with a deterministic pseudo-random grey pattern.
func noise(w, h int, seed uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	state := seed
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			state = state*1664525 + 1013904223
			v := uint8(state >> 24)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func paste(dst, src *image.RGBA, at image.Point) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetRGBA(at.X+x, at.Y+y, src.RGBAAt(x, y))
		}
	}
}

func newTemplate(t *testing.T, img image.Image, threshold float64) *overlay.Template {
	t.Helper()
	tpl, err := overlay.New("logo", img, threshold, overlay.StampOptions{})
	if err != nil {
		t.Fatalf("overlay.New returned error: %v", err)
	}
	return tpl
}

func TestClusterCollapsesAdjacentPoints(t *testing.T) {
	points := []image.Point{{0, 0}, {1, 0}, {2, 0}, {50, 50}}
	got := Cluster(points, 5)
	if diff := cmp.Diff([]image.Point{{0, 0}, {50, 50}}, got); diff != "" {
		t.Fatalf("unexpected clusters (-want +got):\n%s", diff)
	}
	if Cluster(nil, 5) != nil {
		t.Fatal("expected nil clusters for no points")
	}
}

func TestClusterComparesWithPreviousPointOnly(t *testing.T) {
	// (7,0) is 7 away from (0,0) but only 1 away from (6,0): the chain absorbs it.
	chain := []image.Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0}}
	if got := Cluster(chain, 5); len(got) != 1 {
		t.Fatalf("expected chained points to form one cluster, got %v", got)
	}
	// A scan-line wrap: (9,0) -> (0,1) is 9 away, so the blob splits.
	wrap := []image.Point{{8, 0}, {9, 0}, {0, 1}}
	if diff := cmp.Diff([]image.Point{{8, 0}, {0, 1}}, Cluster(wrap, 5)); diff != "" {
		t.Fatalf("unexpected wrap clusters (-want +got):\n%s", diff)
	}
	// Distance is truncated: sqrt(26) = 5.09 -> 5 does not exceed 5.
	if got := Cluster([]image.Point{{0, 0}, {5, 1}}, 5); len(got) != 1 {
		t.Fatalf("expected truncated distance to merge, got %v", got)
	}
}

func TestThresholdToZeroAndNonZero(t *testing.T) {
	scores := NewScoreMap(3, 2)
	scores.Set(0, 0, 0.5)
	scores.Set(2, 0, 0.96)
	scores.Set(1, 1, 0.99)
	scores.Set(2, 1, -1)

	ThresholdToZero(scores, 0.96)
	if scores.At(0, 0) != 0 || scores.At(2, 0) != 0.96 || scores.At(1, 1) != 0.99 || scores.At(2, 1) != 0 {
		t.Fatalf("unexpected thresholded map")
	}
	if diff := cmp.Diff([]image.Point{{2, 0}, {1, 1}}, NonZero(scores)); diff != "" {
		t.Fatalf("unexpected non-zero points (-want +got):\n%s", diff)
	}
	if scores.Size() != image.Pt(3, 2) {
		t.Fatalf("unexpected size %v", scores.Size())
	}
}

func TestNativeCorrelatorPeaksAtExactMatch(t *testing.T) {
	frame := noise(40, 30, 1)
	tplImg := noise(8, 6, 99)
	paste(frame, tplImg, image.Pt(13, 17))

	scores, err := NewNativeCorrelator().Correlate(video.NewFrame(0, 0, frame).Gray(), newTemplate(t, tplImg, 0.96).Gray)
	if err != nil {
		t.Fatalf("Correlate returned error: %v", err)
	}
	if scores.Size() != image.Pt(33, 25) {
		t.Fatalf("unexpected score map size %v", scores.Size())
	}
	best, at := scores.Max()
	if at != image.Pt(13, 17) {
		t.Fatalf("expected peak at (13,17), got %v", at)
	}
	if best < 0.9999 {
		t.Fatalf("expected exact match score ~1, got %v", best)
	}
}

func TestNativeCorrelatorIsBrightnessInvariant(t *testing.T) {
	tplImg := noise(6, 6, 7)
	shifted := image.NewRGBA(tplImg.Bounds())
	for i := range tplImg.Pix {
		if i%4 == 3 {
			shifted.Pix[i] = 255
			continue
		}
		shifted.Pix[i] = tplImg.Pix[i]/2 + 40
	}
	scores, err := NewNativeCorrelator().Correlate(video.NewFrame(0, 0, shifted).Gray(), newTemplate(t, tplImg, 0.9).Gray)
	if err != nil {
		t.Fatalf("Correlate returned error: %v", err)
	}
	if v := scores.At(0, 0); v < 0.99 {
		t.Fatalf("expected affine brightness change to keep a high score, got %v", v)
	}
}

func TestNativeCorrelatorFlatRegions(t *testing.T) {
	grey := color.RGBA{R: 100, G: 100, B: 100, A: 255}
	flat := image.NewRGBA(image.Rect(0, 0, 2, 2))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(grey), image.Point{}, draw.Src)
	frame := image.NewRGBA(image.Rect(0, 0, 4, 2))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(grey), image.Point{}, draw.Src)
	frame.SetRGBA(3, 0, color.RGBA{R: 200, G: 200, B: 200, A: 255})

	scores, err := NewNativeCorrelator().Correlate(video.NewFrame(0, 0, frame).Gray(), newTemplate(t, flat, 0.9).Gray)
	if err != nil {
		t.Fatalf("Correlate returned error: %v", err)
	}
	if scores.At(0, 0) != 1 || scores.At(1, 0) != 1 {
		t.Fatalf("expected flat template to match flat windows of equal mean, got %v %v", scores.At(0, 0), scores.At(1, 0))
	}
	if scores.At(2, 0) != 0 {
		t.Fatalf("expected flat template against textured window to score 0, got %v", scores.At(2, 0))
	}
}

func TestNativeCorrelatorLargeNearlyFlatWindow(t *testing.T) {
	// 700x700 windows push n·ΣI² past 2^53; a single differing pixel must
	// still register as variance.
	const size, span = 700, 720
	tpl := image.NewGray(image.Rect(0, 0, size, size))
	frame := image.NewGray(image.Rect(0, 0, span, span))
	for i := range tpl.Pix {
		tpl.Pix[i] = 200
	}
	for i := range frame.Pix {
		frame.Pix[i] = 200
	}
	frame.SetGray(size, size, color.Gray{Y: 201})

	scores, err := NewNativeCorrelator().Correlate(frame, tpl)
	if err != nil {
		t.Fatalf("Correlate returned error: %v", err)
	}
	if got := scores.At(0, 0); got != 1 {
		t.Fatalf("expected flat window to match flat template, got %v", got)
	}
	if got := scores.At(20, 20); got != 0 {
		t.Fatalf("expected window containing the odd pixel to score 0, got %v", got)
	}
	if got := scores.At(0, 20); got != 1 {
		t.Fatalf("expected window clear of the odd pixel to match, got %v", got)
	}
}

func TestMatcherExtractFindsEachOccurrence(t *testing.T) {
	frame := noise(64, 48, 3)
	tplImg := noise(8, 8, 42)
	paste(frame, tplImg, image.Pt(4, 5))
	paste(frame, tplImg, image.Pt(40, 30))
	tpl := newTemplate(t, tplImg, 0.96)

	rects, err := NewMatcher(NewNativeCorrelator()).Extract(video.NewFrame(0, 0, frame), tpl)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	want := []image.Rectangle{image.Rect(4, 5, 12, 13), image.Rect(40, 30, 48, 38)}
	if diff := cmp.Diff(want, rects); diff != "" {
		t.Fatalf("unexpected occurrences (-want +got):\n%s", diff)
	}
}

func TestMatcherExtractEmptyWhenAbsent(t *testing.T) {
	tpl := newTemplate(t, noise(8, 8, 42), 0.96)
	rects, err := NewMatcher(NewNativeCorrelator()).Extract(video.NewFrame(0, 0, noise(32, 32, 5)), tpl)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rects) != 0 {
		t.Fatalf("expected no occurrences, got %v", rects)
	}
}

func TestMatcherRejectsOversizedTemplate(t *testing.T) {
	tpl := newTemplate(t, noise(10, 4, 1), 0.96)
	_, err := NewMatcher(NewNativeCorrelator()).Extract(video.NewFrame(0, 0, noise(8, 8, 1)), tpl)
	if !errors.Is(err, ErrTemplateTooLarge) {
		t.Fatalf("expected ErrTemplateTooLarge, got %v", err)
	}
	if err := Fits(image.Pt(10, 4), tpl); err != nil {
		t.Fatalf("expected exact fit to pass, got %v", err)
	}
}

func TestNewCorrelator(t *testing.T) {
	c, err := NewCorrelator("")
	if err != nil {
		t.Fatalf("NewCorrelator returned error: %v", err)
	}
	if _, ok := c.(NativeCorrelator); !ok {
		t.Fatalf("expected native correlator by default, got %T", c)
	}
	if _, err := NewCorrelator("sift"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
