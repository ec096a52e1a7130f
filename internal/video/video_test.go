package video

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
	"time"
)

func solid(w, h int, v byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

type sliceDecoder struct {
	frames []*Frame
	index  int
}

func (d *sliceDecoder) FrameCount() int   { return len(d.frames) }
func (d *sliceDecoder) CurrentIndex() int { return d.index }
func (d *sliceDecoder) Close() error      { return nil }

func (d *sliceDecoder) Next(context.Context) (*Frame, error) {
	if d.index >= len(d.frames) {
		return nil, io.EOF
	}
	f := d.frames[d.index]
	d.index++
	return f, nil
}

func TestSkipFallsBackToNext(t *testing.T) {
	dec := &sliceDecoder{frames: []*Frame{
		NewFrame(0, 0, solid(1, 1, 0)),
		NewFrame(1, 0, solid(1, 1, 1)),
	}}
	if err := Skip(context.Background(), dec, 1); err != nil {
		t.Fatalf("Skip returned error: %v", err)
	}
	if dec.CurrentIndex() != 1 {
		t.Fatalf("expected index 1, got %d", dec.CurrentIndex())
	}
	if err := Skip(context.Background(), dec, 0); err != nil {
		t.Fatalf("Skip(0) returned error: %v", err)
	}
	if err := Skip(context.Background(), dec, 2); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestOrderGuard(t *testing.T) {
	var guard OrderGuard
	if err := guard.Check(0); err != nil {
		t.Fatalf("Check(0) returned error: %v", err)
	}
	if err := guard.Check(0); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected repeat index to be rejected, got %v", err)
	}
	if err := guard.Check(2); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected gap to be rejected, got %v", err)
	}
	if err := guard.Check(1); err != nil {
		t.Fatalf("Check(1) returned error: %v", err)
	}
	if guard.Written() != 2 {
		t.Fatalf("expected 2 written, got %d", guard.Written())
	}
}

func TestFrameGrayIsCached(t *testing.T) {
	img := solid(3, 2, 0)
	img.Set(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	frame := NewFrame(4, 0, img)

	gray := frame.Gray()
	if gray.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("unexpected gray bounds %v", gray.Bounds())
	}
	if gray.GrayAt(1, 1).Y != 255 || gray.GrayAt(0, 0).Y != 0 {
		t.Fatalf("unexpected gray values %v", gray.Pix)
	}
	if frame.Gray() != gray {
		t.Fatal("expected cached gray image")
	}

	clone := frame.Clone()
	clone.Image.Pix[0] = 1
	if frame.Image.Pix[0] != 0 || clone.Index != 4 {
		t.Fatal("clone must copy pixels and keep index")
	}
}

func TestTimestampFor(t *testing.T) {
	if got := TimestampFor(50, 25); got != 2*time.Second {
		t.Fatalf("expected 2s, got %v", got)
	}
	if got := TimestampFor(5, 0); got != 0 {
		t.Fatalf("expected zero for unknown rate, got %v", got)
	}
}
