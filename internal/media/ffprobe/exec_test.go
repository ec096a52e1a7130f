package ffprobe

import (
	"context"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"
)

// fakeProbe routes ffprobe invocations to TestHelperProcess and returns the
// arguments of the last call.
func fakeProbe(t *testing.T, mode, payload string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string{name}, args...)
		helperArgs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], helperArgs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFPROBE_HELPER_MODE="+mode, "FFPROBE_HELPER_PAYLOAD="+payload)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestInspectParsesStreams(t *testing.T) {
	payload := `{"streams":[{"index":0,"codec_type":"video","width":640,"height":360,"r_frame_rate":"30000/1001","nb_frames":"300"},{"index":1,"codec_type":"audio"}],"format":{"duration":"10.01"}}`
	args := fakeProbe(t, "ok", payload)

	result, err := Inspect(context.Background(), "", " /media/clip.mp4 ")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	got := *args
	if got[0] != "ffprobe" {
		t.Fatalf("expected default binary ffprobe, got %q", got[0])
	}
	if !slices.Contains(got, "-show_streams") || got[len(got)-2] != "--" || got[len(got)-1] != "/media/clip.mp4" {
		t.Fatalf("unexpected ffprobe args %v", got)
	}
	video, ok := result.VideoStream()
	if !ok || video.Width != 640 || video.FrameCount() != 300 {
		t.Fatalf("unexpected video stream %+v", video)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected one audio stream, got %d", result.AudioStreamCount())
	}
	if string(result.RawJSON()) != payload {
		t.Fatalf("raw JSON not preserved: %s", result.RawJSON())
	}
}

func TestCountFrames(t *testing.T) {
	args := fakeProbe(t, "ok", `{"streams":[{"nb_read_frames":" 241 "}]}`)

	count, err := CountFrames(context.Background(), "/opt/bin/ffprobe", "clip.mkv")
	if err != nil {
		t.Fatalf("CountFrames returned error: %v", err)
	}
	if count != 241 {
		t.Fatalf("count = %d, want 241", count)
	}
	if (*args)[0] != "/opt/bin/ffprobe" || !slices.Contains(*args, "-count_frames") {
		t.Fatalf("unexpected ffprobe args %v", *args)
	}
}

func TestCountFramesErrors(t *testing.T) {
	fakeProbe(t, "ok", `{"streams":[]}`)
	if _, err := CountFrames(context.Background(), "", "clip.mkv"); err == nil || !strings.Contains(err.Error(), "no video stream") {
		t.Fatalf("expected missing stream error, got %v", err)
	}

	fakeProbe(t, "ok", `{"streams":[{"nb_read_frames":"N/A"}]}`)
	if _, err := CountFrames(context.Background(), "", "clip.mkv"); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestInspectReportsFailure(t *testing.T) {
	fakeProbe(t, "fail", "")
	_, err := Inspect(context.Background(), "", "broken.mp4")
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected ffprobe stderr in error, got %v", err)
	}

	if _, err := Inspect(context.Background(), "", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFPROBE_HELPER_MODE") {
	case "ok":
		_, _ = os.Stdout.WriteString(os.Getenv("FFPROBE_HELPER_PAYLOAD"))
		os.Exit(0)
	case "fail":
		_, _ = os.Stderr.WriteString("broken.mp4: Invalid data found when processing input\n")
		os.Exit(1)
	}
	os.Exit(3)
}
