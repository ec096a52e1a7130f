package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"veil/internal/logging"
	"veil/internal/match"
	"veil/internal/overlay"
	"veil/internal/redact"
	"veil/internal/video"
	"veil/internal/window"
)

var (
	// ErrInvalidWindow is returned for window sizes below 1.
	ErrInvalidWindow = errors.New("invalid window size")
	// ErrTruncatedStream is returned when a cursor reaches the end of the
	// stream inside a window.
	ErrTruncatedStream = errors.New("stream ended inside a window")
	// ErrCursorDesync is returned when the sequential and read-ahead cursors
	// disagree on the next window start.
	ErrCursorDesync = errors.New("frame cursors out of sync")
	// ErrFrameCountMismatch is returned when the stream still has frames
	// after the reported frame count has been processed.
	ErrFrameCountMismatch = errors.New("stream longer than reported frame count")
)

// Options configures a Driver.
type Options struct {
	WindowSize int
	RunID      string
	Logger     *slog.Logger
	// ProgressStep is the percentage between info-level progress lines.
	ProgressStep float64
}

// Driver runs the window scheduler over a source and writes redacted frames
// to a sink in decode order.
type Driver struct {
	source    video.Source
	sink      video.Sink
	extractor match.Extractor
	templates []*overlay.Template
	opts      Options
	logger    *slog.Logger
}

// NewDriver validates the run parameters.
func NewDriver(source video.Source, sink video.Sink, extractor match.Extractor, templates []*overlay.Template, opts Options) (*Driver, error) {
	if opts.WindowSize < 1 {
		return nil, fmt.Errorf("%w: %d (must be at least 1)", ErrInvalidWindow, opts.WindowSize)
	}
	if len(templates) == 0 {
		return nil, overlay.ErrNoTemplates
	}
	seen := make(map[string]struct{}, len(templates))
	for _, tpl := range templates {
		if _, dup := seen[tpl.Name]; dup {
			return nil, fmt.Errorf("duplicate template name %q", tpl.Name)
		}
		seen[tpl.Name] = struct{}{}
	}
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")
	if opts.RunID != "" {
		logger = logger.With(logging.String(logging.FieldRunID, opts.RunID))
	}
	return &Driver{
		source:    source,
		sink:      sink,
		extractor: extractor,
		templates: templates,
		opts:      opts,
		logger:    logger,
	}, nil
}

// run holds the mutable state of one Run call.
type run struct {
	*Driver
	seq     video.Decoder
	ahead   video.Decoder
	enc     video.Encoder
	result  Result
	stats   map[string]*TemplateStats
	sampler *logging.ProgressSampler
}

// Run processes the whole source. Every template is checked against the
// stream dimensions before the first frame is decoded. Decoders and the
// encoder are closed on every exit path; a failed run leaves whatever the
// encoder already wrote.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	started := time.Now()
	info := d.source.Info()
	frameSize := image.Pt(info.Width, info.Height)
	for _, tpl := range d.templates {
		if err := match.Fits(frameSize, tpl); err != nil {
			return Result{}, err
		}
	}

	r := &run{
		Driver:  d,
		stats:   make(map[string]*TemplateStats, len(d.templates)),
		sampler: logging.NewProgressSampler(d.opts.ProgressStep),
		result:  Result{RunID: d.opts.RunID, WindowSize: d.opts.WindowSize},
	}
	for _, tpl := range d.templates {
		r.stats[tpl.Name] = &TemplateStats{Name: tpl.Name}
	}

	err := r.execute(ctx, info)
	for _, tpl := range d.templates {
		r.result.Templates = append(r.result.Templates, *r.stats[tpl.Name])
	}
	r.result.Duration = time.Since(started)
	if err != nil {
		d.logger.Error("redaction run failed",
			logging.Int("frames_emitted", r.result.FramesEmitted),
			logging.Error(err),
		)
		return r.result, err
	}
	d.logger.Info("redaction run complete",
		logging.Int("frames", r.result.FramesEmitted),
		logging.Int("redacted", r.result.FramesRedacted),
		logging.Int("windows", r.result.Windows),
		logging.Int("extract_calls", r.result.ExtractCalls()),
		logging.Duration("elapsed", r.result.Duration),
	)
	return r.result, nil
}

func (r *run) execute(ctx context.Context, info video.StreamInfo) (err error) {
	if r.seq, err = r.source.Open(ctx); err != nil {
		return fmt.Errorf("open sequential cursor: %w", err)
	}
	defer r.seq.Close()
	if r.ahead, err = r.source.Open(ctx); err != nil {
		return fmt.Errorf("open read-ahead cursor: %w", err)
	}
	defer r.ahead.Close()

	r.result.FrameCount = r.seq.FrameCount()
	sched, err := window.NewScheduler(r.result.FrameCount, r.opts.WindowSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWindow, err)
	}

	if r.enc, err = r.sink.Open(ctx, info); err != nil {
		return fmt.Errorf("open encoder: %w", err)
	}
	encClosed := false
	defer func() {
		if !encClosed {
			_ = r.enc.Close()
		}
	}()

	r.logger.Info("redaction run started",
		logging.String("input", info.Path),
		logging.Int("frames", r.result.FrameCount),
		logging.Int("window_size", r.opts.WindowSize),
		logging.Int("templates", len(r.templates)),
	)

	for {
		w, ok, err := sched.Open()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := r.processWindow(ctx, sched, w); err != nil {
			return fmt.Errorf("window %s: %w", w, err)
		}
		r.result.Windows = sched.Windows()
	}
	if err := r.expectEnd(ctx); err != nil {
		return err
	}

	encClosed = true
	if err := r.enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}
	return nil
}

// processWindow runs one ReadAheadMatched → IntermediateProcessing cycle. Frames
// are emitted only once the whole window has been processed.
func (r *run) processWindow(ctx context.Context, sched *window.Scheduler, w window.Window) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.seek(ctx, r.ahead, w.Boundary()); err != nil {
		return fmt.Errorf("read-ahead cursor: %w", err)
	}
	boundary, err := r.next(ctx, r.ahead, w.Boundary())
	if err != nil {
		return fmt.Errorf("read-ahead cursor: %w", err)
	}
	current, err := r.matchAll(boundary)
	if err != nil {
		return err
	}
	state, err := sched.Observe(current)
	if err != nil {
		return err
	}
	for _, name := range state.ActiveNames() {
		if stats, ok := r.stats[name]; ok {
			stats.ActiveWindows++
		}
	}
	for _, name := range state.ReusableNames() {
		if stats, ok := r.stats[name]; ok {
			stats.ReusableWindows++
		}
	}

	if _, err := sched.Intermediates(); err != nil {
		return err
	}
	frames := make([]*video.Frame, 0, w.Len())
	for index := w.Start; index < w.End; index++ {
		frame, err := r.next(ctx, r.seq, index)
		if err != nil {
			return fmt.Errorf("sequential cursor: %w", err)
		}
		if err := r.intermediate(frame, state); err != nil {
			return err
		}
		frames = append(frames, frame)
	}
	r.stamp(boundary, current)
	frames = append(frames, boundary)

	// The boundary frame was consumed by the read-ahead cursor; step the
	// sequential cursor over it so both sit on the next window start.
	if err := video.Skip(ctx, r.seq, 1); err != nil {
		return fmt.Errorf("sequential cursor: %w", truncated(err))
	}
	if r.seq.CurrentIndex() != r.ahead.CurrentIndex() {
		return fmt.Errorf("%w: sequential at %d, read-ahead at %d", ErrCursorDesync, r.seq.CurrentIndex(), r.ahead.CurrentIndex())
	}
	if err := sched.Finish(); err != nil {
		return err
	}

	for _, frame := range frames {
		if err := r.enc.WriteFrame(ctx, frame); err != nil {
			return fmt.Errorf("write frame %d: %w", frame.Index, err)
		}
		r.result.FramesEmitted++
	}

	r.logger.Debug("window processed",
		logging.Int(logging.FieldWindow, w.Index),
		logging.Int("start", w.Start),
		logging.Int("boundary", w.End),
		logging.Strings("active", state.ActiveNames()),
		logging.Strings("reusable", state.ReusableNames()),
		logging.Int("occurrences", current.Count()),
	)
	if r.result.FrameCount > 0 {
		percent := float64(r.result.FramesEmitted) / float64(r.result.FrameCount) * 100
		if r.sampler.ShouldLog(percent) {
			r.logger.Info("redaction progress",
				logging.Float64("percent", percent),
				logging.Int("frames", r.result.FramesEmitted),
				logging.Int("redacted", r.result.FramesRedacted),
			)
		}
	}
	return nil
}

// matchAll fully matches every template against a boundary frame.
func (r *run) matchAll(frame *video.Frame) (window.Matches, error) {
	current := make(window.Matches, len(r.templates))
	for _, tpl := range r.templates {
		rects, err := r.extract(frame, tpl)
		if err != nil {
			return nil, err
		}
		if len(rects) > 0 {
			current[tpl.Name] = rects
			r.stats[tpl.Name].BoundaryHits++
		}
	}
	return current, nil
}

// intermediate resolves every template on one intermediate frame, then
// stamps. Matching always sees the frame before any stamp is applied.
func (r *run) intermediate(frame *video.Frame, state *window.State) error {
	found := make(window.Matches)
	for _, tpl := range r.templates {
		stats := r.stats[tpl.Name]
		switch state.Decide(tpl.Name) {
		case window.Skip:
			stats.SkippedFrames++
		case window.Reuse:
			rects, _ := state.Reusable(tpl.Name)
			found[tpl.Name] = rects
			stats.ReusedFrames++
		case window.Extract:
			rects, err := r.extract(frame, tpl)
			if err != nil {
				return err
			}
			if len(rects) > 0 {
				found[tpl.Name] = rects
			}
		}
	}
	r.stamp(frame, found)
	return nil
}

func (r *run) extract(frame *video.Frame, tpl *overlay.Template) ([]image.Rectangle, error) {
	r.stats[tpl.Name].ExtractCalls++
	rects, err := r.extractor.Extract(frame, tpl)
	if err != nil {
		return nil, fmt.Errorf("extract %s from frame %d: %w", tpl.Name, frame.Index, err)
	}
	return rects, nil
}

func (r *run) stamp(frame *video.Frame, found window.Matches) {
	redacted := false
	for _, tpl := range r.templates {
		rects := found[tpl.Name]
		if len(rects) == 0 {
			continue
		}
		n := redact.Apply(frame.Image, tpl, rects)
		r.stats[tpl.Name].Occurrences += n
		redacted = redacted || n > 0
	}
	if redacted {
		r.result.FramesRedacted++
	}
}

// seek advances dec so the next frame it yields is index.
func (r *run) seek(ctx context.Context, dec video.Decoder, index int) error {
	gap := index - dec.CurrentIndex()
	if gap < 0 {
		return fmt.Errorf("%w: cursor at %d is past frame %d", ErrCursorDesync, dec.CurrentIndex(), index)
	}
	if err := video.Skip(ctx, dec, gap); err != nil {
		return truncated(err)
	}
	return nil
}

// next decodes one frame and checks it is the expected index.
func (r *run) next(ctx context.Context, dec video.Decoder, index int) (*video.Frame, error) {
	frame, err := dec.Next(ctx)
	if err != nil {
		return nil, truncated(err)
	}
	if frame == nil {
		return nil, fmt.Errorf("%w: nil frame at %d", ErrTruncatedStream, index)
	}
	if frame.Index != index {
		return nil, fmt.Errorf("%w: got frame %d, want %d", ErrCursorDesync, frame.Index, index)
	}
	return frame, nil
}

// expectEnd checks that the sequential cursor is exhausted once every
// planned window has been emitted.
func (r *run) expectEnd(ctx context.Context) error {
	frame, err := r.seq.Next(ctx)
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return fmt.Errorf("sequential cursor: %w", err)
	}
	return fmt.Errorf("%w: frame %d follows %d reported frames", ErrFrameCountMismatch, frame.Index, r.result.FrameCount)
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncatedStream, err)
	}
	return err
}
