// Package redact stamps template occurrences out of frames.
package redact

import (
	"image"

	"github.com/disintegration/gift"

	"veil/internal/overlay"
)

// Apply copies the template's pre-blurred stamp over every occurrence in dst
// and returns how many rectangles touched the frame. Frame pixels under an
// occurrence are replaced, not blended, so applying the same occurrences
// twice leaves the frame unchanged.
func Apply(dst *image.RGBA, tpl *overlay.Template, occurrences []image.Rectangle) int {
	stamped := 0
	for _, rect := range occurrences {
		if rect.Intersect(dst.Rect).Empty() {
			continue
		}
		stamp := stampFor(tpl, rect.Size())
		gift.New().DrawAt(dst, stamp, rect.Min, gift.CopyOperator)
		stamped++
	}
	return stamped
}

// stampFor returns the stamp scaled to size. Occurrences normally share the
// template size, in which case the stamp is used as is.
func stampFor(tpl *overlay.Template, size image.Point) image.Image {
	if tpl.Stamp.Rect.Size() == size {
		return tpl.Stamp
	}
	g := gift.New(gift.Resize(size.X, size.Y, gift.LinearResampling))
	scaled := image.NewRGBA(g.Bounds(tpl.Stamp.Rect))
	g.Draw(scaled, tpl.Stamp)
	return scaled
}
