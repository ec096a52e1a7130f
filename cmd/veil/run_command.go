package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"veil/internal/config"
	"veil/internal/history"
	"veil/internal/match"
	"veil/internal/pipeline"
	"veil/internal/preflight"
	"veil/internal/video"
)

const defaultOutput = "output.mp4"

type runFlags struct {
	output     string
	threshold  float64
	window     int
	backend    string
	noHistory  bool
	transcode  bool
	skipChecks bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run INPUT TEMPLATE...",
		Short: "Redact template overlays from a video",
		Long: "Redact every occurrence of the given template images from INPUT.\n\n" +
			"Each TEMPLATE is an image path, optionally suffixed with @THRESHOLD, or a\n" +
			"directory whose images are all loaded. Templates from [[templates]] in the\n" +
			"configuration file are always included.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			input := args[0]
			output := flags.output
			if output == "" {
				output = defaultOutput
			}
			if same, err := samePath(input, output); err != nil {
				return err
			} else if same {
				return fmt.Errorf("output %s would overwrite the input", output)
			}

			window := cfg.Matching.WindowSize
			if cmd.Flags().Changed("window") {
				window = flags.window
			}
			if window < 1 {
				return fmt.Errorf("%w: %d (must be at least 1)", pipeline.ErrInvalidWindow, window)
			}
			backend := cfg.Matching.Backend
			if flags.backend != "" {
				backend = flags.backend
			}
			transcodeEnabled := cfg.Transcode.Enabled || flags.transcode
			if transcodeEnabled && cfg.Transcode.OutputDir == "" {
				return fmt.Errorf("transcode requires transcode.output_dir in the configuration")
			}

			templates, err := loadTemplates(cfg, args[1:], flags.threshold)
			if err != nil {
				return err
			}
			correlator, err := match.NewCorrelator(backend)
			if err != nil {
				return err
			}

			if !flags.skipChecks {
				if err := preflight.Err(preflight.RunAll(cmd.Context(), cfg, output)); err != nil {
					return err
				}
			}

			source, err := video.OpenFile(cmd.Context(), cfg.Encode.FFmpegBinary, cfg.Encode.FFprobeBinary, input)
			if err != nil {
				return err
			}
			run := &redactionRun{
				cfg:       cfg,
				logger:    logger,
				input:     input,
				output:    output,
				window:    window,
				backend:   backend,
				history:   cfg.History.Enabled && !flags.noHistory,
				transcode: transcodeEnabled,
				templates: templates,
				source:    source,
				sink:      video.NewFileSink(cfg.Encode.FFmpegBinary, output, encodeSettings(cfg)),
				extractor: match.NewMatcher(correlator),
			}
			outcome, err := run.execute(cmd.Context())
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), output, outcome)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output video path (default ./"+defaultOutput+")")
	cmd.Flags().Float64VarP(&flags.threshold, "threshold", "t", 0, "Default match threshold in (0, 1] (overrides matching.threshold)")
	cmd.Flags().IntVarP(&flags.window, "window", "w", 0, "Read-ahead window size in frames (overrides matching.window_size)")
	cmd.Flags().StringVar(&flags.backend, "backend", "", "Correlation backend: native or opencv")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolVar(&flags.transcode, "transcode", false, "Re-encode the output to AV1 with drapto")
	cmd.Flags().BoolVar(&flags.skipChecks, "skip-checks", false, "Skip preflight checks")
	return cmd
}

func encodeSettings(cfg *config.Config) video.EncodeSettings {
	return video.EncodeSettings{
		Codec:       cfg.Encode.Codec,
		Preset:      cfg.Encode.Preset,
		CRF:         cfg.Encode.CRF,
		PixelFormat: cfg.Encode.PixelFormat,
		CopyAudio:   cfg.Encode.CopyAudio,
		ExtraArgs:   cfg.Encode.ExtraArgs,
	}
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, fmt.Errorf("resolve path %s: %w", a, err)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, fmt.Errorf("resolve path %s: %w", b, err)
	}
	return absA == absB, nil
}

func printRunSummary(out io.Writer, output string, outcome runOutcome) {
	result := outcome.Result
	fmt.Fprintf(out, "Run %s wrote %d frames to %s (%d redacted) in %d ms\n",
		history.ShortID(result.RunID), result.FramesEmitted, output, result.FramesRedacted, result.Duration.Milliseconds())
	if outcome.Transcoded != "" {
		fmt.Fprintf(out, "AV1 encode: %s\n", outcome.Transcoded)
	}
	fmt.Fprintln(out, templateStatsTable(result.Templates))
}

func templateStatsTable(stats []pipeline.TemplateStats) string {
	t := newReport(label("Template"), count("Stamped"), count("Extracts"), count("Reused"),
		count("Skipped"), count("Reusable/Active"))
	var stamped, extracts, reused, skipped int
	for _, s := range stats {
		t.add(s.Name, s.Occurrences, s.ExtractCalls, s.ReusedFrames, s.SkippedFrames,
			fmt.Sprintf("%d/%d", s.ReusableWindows, s.ActiveWindows))
		stamped += s.Occurrences
		extracts += s.ExtractCalls
		reused += s.ReusedFrames
		skipped += s.SkippedFrames
	}
	if len(stats) > 1 {
		t.totals("Total", stamped, extracts, reused, skipped)
	}
	return t.String()
}
