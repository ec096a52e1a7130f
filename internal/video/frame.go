package video

import (
	"image"
	"time"

	"veil/internal/imageutil"
)

// Frame is one decoded picture together with its position in the stream.
//
// A frame is owned by one stage at a time. Gray caches the grayscale form of
// the pixels as they were on the first call; callers that mutate Image after
// that must not rely on the cache.
type Frame struct {
	Index     int
	Timestamp time.Duration
	Image     *image.RGBA

	gray *image.Gray
}

// NewFrame wraps img as the frame at index.
func NewFrame(index int, timestamp time.Duration, img *image.RGBA) *Frame {
	return &Frame{Index: index, Timestamp: timestamp, Image: img}
}

// Bounds returns the pixel bounds of the frame.
func (f *Frame) Bounds() image.Rectangle {
	if f == nil || f.Image == nil {
		return image.Rectangle{}
	}
	return f.Image.Rect
}

// Gray returns the cached grayscale form of the frame.
func (f *Frame) Gray() *image.Gray {
	if f.gray == nil {
		f.gray = imageutil.Grayscale(f.Image)
	}
	return f.gray
}

// Clone returns a deep copy of the frame without the grayscale cache.
func (f *Frame) Clone() *Frame {
	return &Frame{Index: f.Index, Timestamp: f.Timestamp, Image: imageutil.CloneRGBA(f.Image)}
}

// TimestampFor converts a frame index into a presentation timestamp for a
// constant frame rate. A non-positive rate yields zero.
func TimestampFor(index int, frameRate float64) time.Duration {
	if frameRate <= 0 || index <= 0 {
		return 0
	}
	return time.Duration(float64(index) / frameRate * float64(time.Second))
}
