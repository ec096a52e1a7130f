package transcode

import (
	"fmt"
	"log/slog"

	draptolib "github.com/five82/drapto"

	"veil/internal/logging"
)

// logReporter forwards drapto events to a structured logger. Encoding
// progress is sampled so a long encode logs a line per ten percent.
type logReporter struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

func newLogReporter(logger *slog.Logger) *logReporter {
	return &logReporter{logger: logger, sampler: logging.NewProgressSampler(10)}
}

func (r *logReporter) Hardware(s draptolib.HardwareSummary) {
	r.logger.Debug("drapto hardware", slog.Any("host", s.Hostname))
}

func (r *logReporter) Initialization(s draptolib.InitializationSummary) {
	r.logger.Info("drapto input",
		slog.Any("input", s.InputFile),
		slog.Any("resolution", s.Resolution),
		slog.Any("dynamic_range", s.DynamicRange),
		slog.Any("audio", s.AudioDescription),
	)
}

func (r *logReporter) StageProgress(s draptolib.StageProgress) {
	r.logger.Debug("drapto stage",
		slog.Any("stage", s.Stage),
		logging.Float64("percent", float64(s.Percent)),
		slog.Any("message", s.Message),
	)
}

func (r *logReporter) CropResult(s draptolib.CropSummary) {
	r.logger.Info("drapto crop",
		slog.Any("crop", s.Crop),
		slog.Any("required", s.Required),
		slog.Any("disabled", s.Disabled),
	)
}

func (r *logReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.logger.Info("drapto encoding config",
		slog.Any("encoder", s.Encoder),
		slog.Any("preset", s.Preset),
		slog.Any("quality", s.Quality),
		slog.Any("pixel_format", s.PixelFormat),
	)
}

func (r *logReporter) EncodingStarted(totalFrames uint64) {
	r.sampler.Reset()
	r.logger.Info("drapto encoding started", slog.Uint64("total_frames", totalFrames))
}

func (r *logReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	percent := float64(s.Percent)
	if !r.sampler.ShouldLog(percent) {
		return
	}
	r.logger.Info("drapto encoding progress",
		logging.Float64("percent", percent),
		logging.Float64("fps", float64(s.FPS)),
		logging.Float64("speed", float64(s.Speed)),
		logging.Duration("eta", s.ETA),
	)
}

func (r *logReporter) ValidationComplete(s draptolib.ValidationSummary) {
	attrs := []logging.Attr{logging.Bool("passed", s.Passed)}
	for _, step := range s.Steps {
		if !step.Passed {
			attrs = append(attrs, logging.String("failed_step", fmt.Sprintf("%v: %v", step.Name, step.Details)))
		}
	}
	if s.Passed {
		r.logger.Info("drapto validation", logging.Args(attrs...)...)
		return
	}
	r.logger.Warn("drapto validation", logging.Args(attrs...)...)
}

func (r *logReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.logger.Info("drapto encoding complete",
		slog.Any("output", s.OutputFile),
		slog.Uint64("original_bytes", uint64(s.OriginalSize)),
		slog.Uint64("encoded_bytes", uint64(s.EncodedSize)),
		slog.Any("elapsed", s.TotalTime),
	)
}

func (r *logReporter) Warning(message string) {
	r.logger.Warn("drapto warning", logging.String("message", message))
}

func (r *logReporter) Error(e draptolib.ReporterError) {
	r.logger.Error("drapto error",
		slog.Any("title", e.Title),
		slog.Any("message", e.Message),
		slog.Any("suggestion", e.Suggestion),
	)
}

func (r *logReporter) OperationComplete(message string) {
	r.logger.Debug("drapto operation complete", logging.String("message", message))
}

func (r *logReporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.logger.Debug("drapto batch started", slog.Any("files", s.TotalFiles))
}

func (r *logReporter) FileProgress(s draptolib.FileProgressContext) {
	r.logger.Debug("drapto file", slog.Any("current", s.CurrentFile), slog.Any("total", s.TotalFiles))
}

func (r *logReporter) BatchComplete(s draptolib.BatchSummary) {
	r.logger.Debug("drapto batch complete", slog.Any("succeeded", s.SuccessfulCount), slog.Any("total", s.TotalFiles))
}

var _ draptolib.Reporter = (*logReporter)(nil)
