package video

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrOutOfOrder is returned by encoders when a frame index does not follow
// the previously written one.
var ErrOutOfOrder = errors.New("frame written out of order")

// StreamInfo describes the video stream of a source.
type StreamInfo struct {
	Path         string
	Width        int
	Height       int
	FrameRate    float64
	FrameCount   int
	Codec        string
	AudioStreams int
}

// Source opens independent decoders over the same video.
type Source interface {
	Info() StreamInfo
	Open(ctx context.Context) (Decoder, error)
}

// Decoder yields frames in presentation order. Next returns io.EOF once the
// stream is exhausted.
type Decoder interface {
	FrameCount() int
	CurrentIndex() int
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// Skipper is implemented by decoders that can discard frames without
// materialising them.
type Skipper interface {
	Skip(ctx context.Context, n int) error
}

// Sink opens encoders for a stream shape.
type Sink interface {
	Open(ctx context.Context, info StreamInfo) (Encoder, error)
}

// Encoder consumes frames in strictly increasing index order.
type Encoder interface {
	WriteFrame(ctx context.Context, frame *Frame) error
	Close() error
}

// Skip advances dec by n frames, using Skipper when the decoder offers it.
// Reaching the end of the stream early returns io.ErrUnexpectedEOF.
func Skip(ctx context.Context, dec Decoder, n int) error {
	if n <= 0 {
		return nil
	}
	if s, ok := dec.(Skipper); ok {
		return s.Skip(ctx, n)
	}
	for i := 0; i < n; i++ {
		if _, err := dec.Next(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("skip %d frames: %w", n, io.ErrUnexpectedEOF)
			}
			return err
		}
	}
	return nil
}

// OrderGuard tracks the next expected frame index for an encoder.
type OrderGuard struct {
	next int
}

// Check accepts index when it is the next expected one and advances.
func (g *OrderGuard) Check(index int) error {
	if index != g.next {
		return fmt.Errorf("%w: got frame %d, want %d", ErrOutOfOrder, index, g.next)
	}
	g.next++
	return nil
}

// Written reports how many frames passed the guard.
func (g *OrderGuard) Written() int {
	return g.next
}
