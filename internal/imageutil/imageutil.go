// Package imageutil holds the pixel conversions shared by frames and
// templates.
package imageutil

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/gift"
)

// Grayscale returns the luminance form of img using gift's grayscale
// filter. The result is anchored at the origin.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	gift.New(gift.Grayscale()).Draw(dst, img)
	return dst
}

// ToRGBA returns img as an origin-anchored *image.RGBA. An RGBA image that is
// already anchored at the origin is returned unchanged.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// CloneRGBA returns a deep copy of src.
func CloneRGBA(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	dst := &image.RGBA{
		Pix:    make([]byte, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}

// Fill paints rect of dst with a solid colour.
func Fill(dst draw.Image, rect image.Rectangle, c color.Color) {
	draw.Draw(dst, rect, image.NewUniform(c), image.Point{}, draw.Src)
}
