package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 1280, Height: 720, RFrameRate: "30000/1001", NBFrames: "240"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	video, ok := result.VideoStream()
	if !ok {
		t.Fatal("expected video stream")
	}
	if video.Width != 1280 || video.Height != 720 {
		t.Fatalf("unexpected dimensions %dx%d", video.Width, video.Height)
	}
	if got := video.FrameRate(); math.Abs(got-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate: %v", got)
	}
	if video.FrameCount() != 240 {
		t.Fatalf("unexpected frame count: %d", video.FrameCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestFrameRateFallsBackToAverage(t *testing.T) {
	stream := Stream{RFrameRate: "0/0", AvgFrameRate: "25/1"}
	if stream.FrameRate() != 25 {
		t.Fatalf("expected avg frame rate fallback, got %v", stream.FrameRate())
	}
	stream = Stream{RFrameRate: "bad"}
	if stream.FrameRate() != 0 {
		t.Fatalf("expected unknown frame rate, got %v", stream.FrameRate())
	}
}

func TestHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if (Stream{NBFrames: "N/A"}).FrameCount() != 0 {
		t.Fatal("expected frame count 0 for N/A")
	}
	if _, ok := (Result{}).VideoStream(); ok {
		t.Fatal("expected no video stream")
	}
}
