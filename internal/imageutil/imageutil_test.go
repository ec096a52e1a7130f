package imageutil

import (
	"image"
	"image/color"
	"testing"
)

func TestGrayscaleMatchesDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 14, 23))
	for y := 20; y < 23; y++ {
		for x := 10; x < 14; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	gray := Grayscale(src)
	if gray.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("unexpected bounds %v", gray.Bounds())
	}
	if v := gray.GrayAt(2, 1).Y; v < 199 || v > 201 {
		t.Fatalf("expected neutral grey to keep its level, got %d", v)
	}
}

func TestToRGBAReanchors(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 7))
	src.Set(5, 5, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	out := ToRGBA(src)
	if out.Rect.Min != (image.Point{}) {
		t.Fatalf("expected origin anchored image, got %v", out.Rect)
	}
	if got := out.RGBAAt(0, 0); got != (color.RGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Fatalf("unexpected pixel %v", got)
	}

	anchored := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if ToRGBA(anchored) != anchored {
		t.Fatal("expected anchored image to be returned as-is")
	}
}

func TestCloneRGBAIsDeep(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	clone := CloneRGBA(src)
	clone.Pix[0] = 9
	if src.Pix[0] != 0 {
		t.Fatal("clone shares pixel storage with source")
	}
	if CloneRGBA(nil) != nil {
		t.Fatal("expected nil clone of nil image")
	}
}
