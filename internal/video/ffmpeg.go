package video

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"veil/internal/media/ffprobe"
)

var commandContext = exec.CommandContext

// FileSource is a video file probed with ffprobe and decoded with ffmpeg.
type FileSource struct {
	ffmpeg string
	info   StreamInfo
}

// OpenFile probes path and returns a source that decodes it with ffmpeg.
// When the container does not report a frame count the stream is counted
// by decoding it once.
func OpenFile(ctx context.Context, ffmpegBinary, ffprobeBinary, path string) (*FileSource, error) {
	probe, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	stream, ok := probe.VideoStream()
	if !ok {
		return nil, fmt.Errorf("probe %s: no video stream", path)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, fmt.Errorf("probe %s: invalid dimensions %dx%d", path, stream.Width, stream.Height)
	}
	rate := stream.FrameRate()
	if rate <= 0 {
		return nil, fmt.Errorf("probe %s: unknown frame rate", path)
	}
	count := stream.FrameCount()
	if count == 0 {
		count, err = ffprobe.CountFrames(ctx, ffprobeBinary, path)
		if err != nil {
			return nil, fmt.Errorf("count frames %s: %w", path, err)
		}
	}
	return NewFileSource(ffmpegBinary, StreamInfo{
		Path:         path,
		Width:        stream.Width,
		Height:       stream.Height,
		FrameRate:    rate,
		FrameCount:   count,
		Codec:        stream.CodecName,
		AudioStreams: probe.AudioStreamCount(),
	}), nil
}

// NewFileSource builds a source from already known stream metadata.
func NewFileSource(ffmpegBinary string, info StreamInfo) *FileSource {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &FileSource{ffmpeg: ffmpegBinary, info: info}
}

// Info returns the probed stream metadata.
func (s *FileSource) Info() StreamInfo {
	return s.info
}

// Open starts a new ffmpeg decoder positioned at frame 0.
func (s *FileSource) Open(ctx context.Context) (Decoder, error) {
	args := []string{
		"-v", "error", "-nostdin",
		"-i", s.info.Path,
		"-map", "0:v:0",
		"-fps_mode", "passthrough",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"pipe:1",
	}
	cmd := commandContext(ctx, s.ffmpeg, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &tailBuffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg decoder: %w", err)
	}
	return &ffmpegDecoder{
		cmd:       cmd,
		reader:    bufio.NewReaderSize(stdout, 1<<20),
		stderr:    stderr,
		info:      s.info,
		frameSize: s.info.Width * s.info.Height * 4,
	}, nil
}

type ffmpegDecoder struct {
	cmd       *exec.Cmd
	reader    *bufio.Reader
	stderr    *tailBuffer
	info      StreamInfo
	frameSize int
	index     int
	discard   []byte
	waited    bool
	waitErr   error
}

func (d *ffmpegDecoder) FrameCount() int   { return d.info.FrameCount }
func (d *ffmpegDecoder) CurrentIndex() int { return d.index }

func (d *ffmpegDecoder) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, d.info.Width, d.info.Height))
	if err := d.read(img.Pix); err != nil {
		return nil, err
	}
	frame := NewFrame(d.index, TimestampFor(d.index, d.info.FrameRate), img)
	d.index++
	return frame, nil
}

// Skip reads n frames into a scratch buffer without allocating images.
func (d *ffmpegDecoder) Skip(ctx context.Context, n int) error {
	if d.discard == nil {
		d.discard = make([]byte, d.frameSize)
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.read(d.discard); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("skip %d frames: %w", n, io.ErrUnexpectedEOF)
			}
			return err
		}
		d.index++
	}
	return nil
}

func (d *ffmpegDecoder) read(buf []byte) error {
	_, err := io.ReadFull(d.reader, buf)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		if waitErr := d.wait(); waitErr != nil {
			return fmt.Errorf("ffmpeg decoder: %w: %s", waitErr, d.stderr.String())
		}
		return io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		_ = d.wait()
		return fmt.Errorf("ffmpeg decoder: partial frame %d: %w: %s", d.index, err, d.stderr.String())
	}
	return fmt.Errorf("ffmpeg decoder: read frame %d: %w", d.index, err)
}

func (d *ffmpegDecoder) wait() error {
	if !d.waited {
		d.waitErr = d.cmd.Wait()
		d.waited = true
	}
	return d.waitErr
}

func (d *ffmpegDecoder) Close() error {
	if d.waited {
		return nil
	}
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.wait()
	return nil
}

// EncodeSettings selects the output codec parameters.
type EncodeSettings struct {
	Codec       string
	Preset      string
	CRF         int
	PixelFormat string
	CopyAudio   bool
	ExtraArgs   []string
}

// FileSink writes frames to a container file through ffmpeg.
type FileSink struct {
	ffmpeg   string
	path     string
	settings EncodeSettings
}

// NewFileSink returns a sink writing to path.
func NewFileSink(ffmpegBinary, path string, settings EncodeSettings) *FileSink {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &FileSink{ffmpeg: ffmpegBinary, path: path, settings: settings}
}

// Args returns the ffmpeg argument list used for info.
func (s *FileSink) Args(info StreamInfo) []string {
	args := []string{
		"-y", "-v", "error", "-nostdin",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"-r", strconv.FormatFloat(info.FrameRate, 'f', -1, 64),
		"-i", "pipe:0",
	}
	withAudio := s.settings.CopyAudio && info.AudioStreams > 0 && info.Path != ""
	if withAudio {
		args = append(args, "-i", info.Path, "-map", "0:v:0", "-map", "1:a?", "-c:a", "copy")
	} else {
		args = append(args, "-map", "0:v:0")
	}
	if codec := strings.TrimSpace(s.settings.Codec); codec != "" {
		args = append(args, "-c:v", codec)
	}
	if preset := strings.TrimSpace(s.settings.Preset); preset != "" {
		args = append(args, "-preset", preset)
	}
	if s.settings.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(s.settings.CRF))
	}
	if pixFmt := strings.TrimSpace(s.settings.PixelFormat); pixFmt != "" {
		args = append(args, "-pix_fmt", pixFmt)
	}
	args = append(args, s.settings.ExtraArgs...)
	return append(args, s.path)
}

// Open starts the ffmpeg encoder for a stream of the given shape.
func (s *FileSink) Open(ctx context.Context, info StreamInfo) (Encoder, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("open encoder: invalid dimensions %dx%d", info.Width, info.Height)
	}
	if info.FrameRate <= 0 {
		return nil, errors.New("open encoder: frame rate required")
	}
	cmd := commandContext(ctx, s.ffmpeg, s.Args(info)...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stderr := &tailBuffer{}
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg encoder: %w", err)
	}
	return &ffmpegEncoder{
		cmd:    cmd,
		stdin:  stdin,
		writer: bufio.NewWriterSize(stdin, 1<<20),
		stderr: stderr,
		bounds: image.Rect(0, 0, info.Width, info.Height),
	}, nil
}

type ffmpegEncoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *bufio.Writer
	stderr *tailBuffer
	bounds image.Rectangle
	order  OrderGuard
	closed bool
}

func (e *ffmpegEncoder) WriteFrame(ctx context.Context, frame *Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.closed {
		return errors.New("ffmpeg encoder: write after close")
	}
	if frame.Bounds().Size() != e.bounds.Size() {
		return fmt.Errorf("ffmpeg encoder: frame %d is %v, want %v", frame.Index, frame.Bounds().Size(), e.bounds.Size())
	}
	if err := e.order.Check(frame.Index); err != nil {
		return err
	}
	img := frame.Image
	rowBytes := img.Rect.Dx() * 4
	for y := 0; y < img.Rect.Dy(); y++ {
		start := y * img.Stride
		if _, err := e.writer.Write(img.Pix[start : start+rowBytes]); err != nil {
			return fmt.Errorf("ffmpeg encoder: write frame %d: %w: %s", frame.Index, err, e.stderr.String())
		}
	}
	return nil
}

func (e *ffmpegEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	flushErr := e.writer.Flush()
	closeErr := e.stdin.Close()
	waitErr := e.cmd.Wait()
	if waitErr != nil {
		return fmt.Errorf("ffmpeg encoder: %w: %s", waitErr, e.stderr.String())
	}
	if flushErr != nil {
		return fmt.Errorf("ffmpeg encoder: flush: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("ffmpeg encoder: close stdin: %w", closeErr)
	}
	return nil
}

const tailLimit = 4096

// tailBuffer keeps the last few kilobytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if len(b.buf) > tailLimit {
		b.buf = append([]byte(nil), b.buf[len(b.buf)-tailLimit:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}
