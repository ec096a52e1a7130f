package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	draptolib "github.com/five82/drapto"

	"veil/internal/logging"
)

// encode runs one drapto encode. Tests replace it to avoid the real encoder.
var encode = func(ctx context.Context, inputPath, outputDir string, rep draptolib.Reporter) error {
	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return err
	}
	_, err = encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep)
	return err
}

// Transcoder re-encodes finished outputs to AV1 through the drapto library.
type Transcoder struct {
	outputDir string
	logger    *slog.Logger
}

// New constructs a Transcoder writing into outputDir.
func New(outputDir string, logger *slog.Logger) *Transcoder {
	return &Transcoder{
		outputDir: strings.TrimSpace(outputDir),
		logger:    logging.NewComponentLogger(logger, "transcode"),
	}
}

// Transcode encodes inputPath and returns the path of the AV1 file.
func (t *Transcoder) Transcode(ctx context.Context, inputPath string) (string, error) {
	if inputPath == "" {
		return "", errors.New("input path required")
	}
	if t.outputDir == "" {
		return "", errors.New("output directory required")
	}

	started := time.Now()
	t.logger.Info("av1 transcode started",
		logging.String("input", inputPath),
		logging.String("output_dir", t.outputDir),
	)
	if err := encode(ctx, inputPath, t.outputDir, newLogReporter(t.logger)); err != nil {
		return "", fmt.Errorf("drapto encode %s: %w", filepath.Base(inputPath), err)
	}

	output := OutputPath(inputPath, t.outputDir)
	t.logger.Info("av1 transcode complete",
		logging.String("output", output),
		logging.Duration("elapsed", time.Since(started)),
	)
	return output, nil
}

// OutputPath returns where drapto writes the encode of inputPath.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}
