package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"veil/internal/config"
	"veil/internal/history"
	"veil/internal/logging"
	"veil/internal/match"
	"veil/internal/overlay"
	"veil/internal/pipeline"
	"veil/internal/transcode"
	"veil/internal/video"
)

// ErrOutputLocked is returned when another run is writing the same output.
var ErrOutputLocked = errors.New("output is locked by another run")

// redactionRun wires one invocation of the pipeline to the run ledger, the
// output lock and the optional AV1 pass.
type redactionRun struct {
	cfg       *config.Config
	logger    *slog.Logger
	input     string
	output    string
	window    int
	backend   string
	history   bool
	transcode bool
	templates []*overlay.Template
	source    video.Source
	sink      video.Sink
	extractor match.Extractor
}

type runOutcome struct {
	Result     pipeline.Result
	Transcoded string
}

func (r *redactionRun) execute(ctx context.Context) (runOutcome, error) {
	var outcome runOutcome
	runID := history.NewRunID()
	logger := logging.NewComponentLogger(r.logger, "run").With(logging.String(logging.FieldRunID, runID))

	unlock, err := lockOutput(r.cfg, r.output)
	if err != nil {
		return outcome, err
	}
	defer unlock()

	var store *history.Store
	if r.history {
		if store, err = history.Open(r.cfg); err != nil {
			return outcome, fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		if err := store.Begin(ctx, r.record(runID)); err != nil {
			return outcome, fmt.Errorf("record run: %w", err)
		}
	}

	driver, err := pipeline.NewDriver(r.source, r.sink, r.extractor, r.templates, pipeline.Options{
		WindowSize:   r.window,
		RunID:        runID,
		Logger:       r.logger,
		ProgressStep: 10,
	})
	if err == nil {
		outcome.Result, err = driver.Run(ctx)
	}
	outcome.Result.RunID = runID
	if err != nil {
		if store != nil {
			if ferr := store.Fail(context.WithoutCancel(ctx), runID, outcome.Result, err); ferr != nil {
				logger.Warn("failed to record run failure", logging.Error(ferr))
			}
		}
		return outcome, err
	}
	if store != nil {
		if err := store.Complete(ctx, runID, outcome.Result); err != nil {
			logger.Warn("failed to record run completion", logging.Error(err))
		}
	}

	if r.transcode {
		path, err := transcode.New(r.cfg.Transcode.OutputDir, r.logger).Transcode(ctx, r.output)
		if err != nil {
			return outcome, fmt.Errorf("transcode: %w", err)
		}
		outcome.Transcoded = path
	}
	return outcome, nil
}

func (r *redactionRun) record(id string) history.Run {
	run := history.Run{
		ID:         id,
		InputPath:  r.input,
		OutputPath: r.output,
		WindowSize: r.window,
		Backend:    r.backend,
		FrameCount: r.source.Info().FrameCount,
	}
	for _, tpl := range r.templates {
		run.Templates = append(run.Templates, history.Template{
			Name:      tpl.Name,
			Path:      tpl.Path,
			Threshold: tpl.Threshold,
		})
	}
	return run
}

// lockOutput takes an exclusive lock keyed on the absolute output path.
func lockOutput(cfg *config.Config, output string) (func(), error) {
	abs, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(cfg.LockDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String() + ".lock"
	lock := flock.New(filepath.Join(cfg.LockDir(), name))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, abs)
	}
	return func() { _ = lock.Unlock() }, nil
}
