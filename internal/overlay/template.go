package overlay

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"

	"veil/internal/imageutil"
)

var (
	// ErrEmptyImage is returned when a reference image has no pixels.
	ErrEmptyImage = errors.New("template image is empty")
	// ErrNoTemplates is returned when a run resolves zero templates.
	ErrNoTemplates = errors.New("no templates supplied")
)

// Blur kinds accepted by StampOptions.
const (
	BlurBox      = "box"
	BlurGaussian = "gaussian"
)

// StampOptions controls how a template's redaction stamp is blurred.
type StampOptions struct {
	Blur   string
	Kernel int
	Sigma  float64
}

// Template is a reference image prepared for matching and redaction. It is
// immutable once built and safe to share between windows.
type Template struct {
	Name      string
	Path      string
	Threshold float64
	Gray      *image.Gray
	Stamp     *image.RGBA
	Kernel    int
}

// New builds a template from img. The stamp is img blurred once with the
// configured filter so redaction never depends on live frame content.
func New(name string, img image.Image, threshold float64, opts StampOptions) (*Template, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("template %q: %w", name, ErrEmptyImage)
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("template %q: threshold %v outside (0, 1]", name, threshold)
	}
	rgba := imageutil.ToRGBA(img)
	size := rgba.Rect.Size()
	kernel := stampKernel(size, opts.Kernel)

	var filter gift.Filter
	switch strings.ToLower(strings.TrimSpace(opts.Blur)) {
	case "", BlurBox:
		filter = gift.Mean(2*max(1, kernel/2)+1, false)
	case BlurGaussian:
		sigma := opts.Sigma
		if sigma <= 0 {
			sigma = max(0.5, float64(kernel)/3)
		}
		filter = gift.GaussianBlur(float32(sigma))
	default:
		return nil, fmt.Errorf("template %q: unsupported blur %q", name, opts.Blur)
	}
	g := gift.New(filter)
	stamp := image.NewRGBA(g.Bounds(rgba.Rect))
	g.Draw(stamp, rgba)

	return &Template{
		Name:      name,
		Threshold: threshold,
		Gray:      imageutil.Grayscale(rgba),
		Stamp:     stamp,
		Kernel:    kernel,
	}, nil
}

// Load decodes the image at path and builds a template named after the
// file stem.
func Load(path string, threshold float64, opts StampOptions) (*Template, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", path, err)
	}
	tpl, err := New(NameFromPath(path), img, threshold, opts)
	if err != nil {
		return nil, err
	}
	tpl.Path = path
	return tpl, nil
}

// Width returns the template width in pixels.
func (t *Template) Width() int { return t.Gray.Rect.Dx() }

// Height returns the template height in pixels.
func (t *Template) Height() int { return t.Gray.Rect.Dy() }

// Size returns the template dimensions.
func (t *Template) Size() image.Point { return t.Gray.Rect.Size() }

// MaxDistance is the clustering radius for this template: its smaller side.
func (t *Template) MaxDistance() int { return min(t.Width(), t.Height()) }

// At returns the occurrence rectangle anchored at p.
func (t *Template) At(p image.Point) image.Rectangle {
	return image.Rectangle{Min: p, Max: p.Add(t.Size())}
}

// NameFromPath derives a template name from a file name.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func stampKernel(size image.Point, configured int) int {
	if configured > 0 {
		return configured
	}
	return max(1, min(size.X, size.Y)/2)
}
