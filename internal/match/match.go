package match

import (
	"errors"
	"fmt"
	"image"

	"veil/internal/overlay"
	"veil/internal/video"
)

// ErrTemplateTooLarge is returned when a template does not fit inside the
// frame in at least one dimension.
var ErrTemplateTooLarge = errors.New("template larger than frame")

// Correlator produces a correlation map of size (fw-tw+1)×(fh-th+1). Every
// backend uses the same metric so one threshold means the same thing
// everywhere.
type Correlator interface {
	Correlate(frame, tpl *image.Gray) (*ScoreMap, error)
}

// Extractor locates the occurrences of a template in a frame.
type Extractor interface {
	Extract(frame *video.Frame, tpl *overlay.Template) ([]image.Rectangle, error)
}

// Matcher is the Extractor built on a Correlator: correlate, threshold to
// zero, scan non-zero cells and cluster them in scan order.
type Matcher struct {
	correlator Correlator
}

// NewMatcher returns a matcher using c.
func NewMatcher(c Correlator) *Matcher {
	return &Matcher{correlator: c}
}

// Extract returns one rectangle per clustered occurrence of tpl in frame.
// An empty result is not an error.
func (m *Matcher) Extract(frame *video.Frame, tpl *overlay.Template) ([]image.Rectangle, error) {
	if err := Fits(frame.Bounds().Size(), tpl); err != nil {
		return nil, err
	}
	scores, err := m.correlator.Correlate(frame.Gray(), tpl.Gray)
	if err != nil {
		return nil, fmt.Errorf("correlate %s on frame %d: %w", tpl.Name, frame.Index, err)
	}
	ThresholdToZero(scores, tpl.Threshold)
	anchors := Cluster(NonZero(scores), tpl.MaxDistance())
	if len(anchors) == 0 {
		return nil, nil
	}
	origin := frame.Bounds().Min
	rects := make([]image.Rectangle, len(anchors))
	for i, p := range anchors {
		rects[i] = tpl.At(p.Add(origin))
	}
	return rects, nil
}

// Fits reports ErrTemplateTooLarge when tpl cannot be placed inside a frame
// of the given size.
func Fits(frame image.Point, tpl *overlay.Template) error {
	if err := checkSize(frame, tpl.Size()); err != nil {
		return fmt.Errorf("template %s: %w", tpl.Name, err)
	}
	return nil
}

func checkSize(frame, tpl image.Point) error {
	if tpl.X <= 0 || tpl.Y <= 0 {
		return fmt.Errorf("empty template %dx%d", tpl.X, tpl.Y)
	}
	if tpl.X > frame.X || tpl.Y > frame.Y {
		return fmt.Errorf("%w: %dx%d does not fit %dx%d", ErrTemplateTooLarge, tpl.X, tpl.Y, frame.X, frame.Y)
	}
	return nil
}
