package testsupport

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"

	"veil/internal/imageutil"
	"veil/internal/video"
)

// Noise returns a w×h opaque image filled with a deterministic grey
// pattern derived from seed. Different seeds do not correlate.
func Noise(w, h int, seed uint32) *image.RGBA {
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

// Paste copies src into dst with its top-left corner at at.
func Paste(dst *image.RGBA, src image.Image, at image.Point) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(at.X+x, at.Y+y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
}

// SyntheticVideo builds count frames of w×h noise, each with its own seed.
// overlay, when non-nil, is pasted at at on every frame index for which show
// returns true.
func SyntheticVideo(count, w, h int, overlay image.Image, at image.Point, show func(int) bool) []*image.RGBA {
	frames := make([]*image.RGBA, count)
	for i := range frames {
		frames[i] = Noise(w, h, uint32(1000+i))
		if overlay != nil && show != nil && show(i) {
			Paste(frames[i], overlay, at)
		}
	}
	return frames
}

// MemorySource serves frames from memory. Each decoder hands out deep copies
// so cursors never share pixel buffers.
type MemorySource struct {
	Frames    []*image.RGBA
	FrameRate float64
	// ReportedFrames overrides the frame count decoders report. Zero
	// reports len(Frames).
	ReportedFrames int
	// OpenErr, when set, fails every Open call.
	OpenErr error

	mu      sync.Mutex
	opened  int
	decoded int
	closed  int
}

// Info implements video.Source.
func (s *MemorySource) Info() video.StreamInfo {
	info := video.StreamInfo{Path: "memory", FrameRate: s.rate(), FrameCount: s.frameCount()}
	if len(s.Frames) > 0 {
		size := s.Frames[0].Rect.Size()
		info.Width, info.Height = size.X, size.Y
	}
	return info
}

// Open implements video.Source.
func (s *MemorySource) Open(context.Context) (video.Decoder, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &memoryDecoder{source: s}, nil
}

// Opened returns how many decoders were opened.
func (s *MemorySource) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Decoded returns how many frames were materialised across all decoders.
func (s *MemorySource) Decoded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decoded
}

// Closed returns how many decoders were closed.
func (s *MemorySource) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *MemorySource) rate() float64 {
	if s.FrameRate > 0 {
		return s.FrameRate
	}
	return 25
}

func (s *MemorySource) frameCount() int {
	if s.ReportedFrames > 0 {
		return s.ReportedFrames
	}
	return len(s.Frames)
}

type memoryDecoder struct {
	source *MemorySource
	index  int
	closed bool
}

func (d *memoryDecoder) FrameCount() int   { return d.source.frameCount() }
func (d *memoryDecoder) CurrentIndex() int { return d.index }

func (d *memoryDecoder) Next(ctx context.Context) (*video.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.closed {
		return nil, errors.New("memory decoder closed")
	}
	if d.index >= len(d.source.Frames) {
		return nil, io.EOF
	}
	img := imageutil.CloneRGBA(d.source.Frames[d.index])
	frame := video.NewFrame(d.index, video.TimestampFor(d.index, d.source.rate()), img)
	d.index++
	d.source.mu.Lock()
	d.source.decoded++
	d.source.mu.Unlock()
	return frame, nil
}

// Skip implements video.Skipper without copying pixels.
func (d *memoryDecoder) Skip(_ context.Context, n int) error {
	if d.index+n > len(d.source.Frames) {
		d.index = len(d.source.Frames)
		return io.ErrUnexpectedEOF
	}
	d.index += n
	return nil
}

func (d *memoryDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.source.mu.Lock()
	d.source.closed++
	d.source.mu.Unlock()
	return nil
}

// MemorySink records every frame written to the encoders it opens.
type MemorySink struct {
	// WriteErr, when set, fails WriteFrame once FailAt frames were written.
	WriteErr error
	FailAt   int

	mu     sync.Mutex
	info   video.StreamInfo
	frames []*video.Frame
	closed bool
}

// Open implements video.Sink.
func (s *MemorySink) Open(_ context.Context, info video.StreamInfo) (video.Encoder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
	return &memoryEncoder{sink: s}, nil
}

// Frames returns the frames written so far, in write order.
func (s *MemorySink) Frames() []*video.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*video.Frame(nil), s.frames...)
}

// Info returns the stream shape the encoder was opened with.
func (s *MemorySink) Info() video.StreamInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Closed reports whether the encoder was closed.
func (s *MemorySink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type memoryEncoder struct {
	sink  *MemorySink
	order video.OrderGuard
}

func (e *memoryEncoder) WriteFrame(_ context.Context, frame *video.Frame) error {
	e.sink.mu.Lock()
	defer e.sink.mu.Unlock()
	if e.sink.WriteErr != nil && len(e.sink.frames) >= e.sink.FailAt {
		return e.sink.WriteErr
	}
	if err := e.order.Check(frame.Index); err != nil {
		return err
	}
	e.sink.frames = append(e.sink.frames, frame.Clone())
	return nil
}

func (e *memoryEncoder) Close() error {
	e.sink.mu.Lock()
	defer e.sink.mu.Unlock()
	e.sink.closed = true
	return nil
}
