package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"veil/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded redaction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, historyTable(runs))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run and its per-template counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRun(cmd.OutOrStdout(), run)
				return nil
			})
		},
	}
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func historyTable(runs []*history.Run) string {
	t := newReport(label("ID"), label("Started"), label("Status"), label("Input"),
		count("Frames"), count("Redacted"), count("Window"), count("Elapsed"))
	for _, run := range runs {
		t.add(history.ShortID(run.ID), formatTime(run.CreatedAt), run.Status, run.InputPath,
			run.FramesEmitted, run.FramesRedacted, run.WindowSize, run.Duration.Round(time.Millisecond))
	}
	return t.String()
}

func printRun(out io.Writer, run *history.Run) {
	fmt.Fprintf(out, "Run:       %s\n", run.ID)
	fmt.Fprintf(out, "Status:    %s\n", run.Status)
	fmt.Fprintf(out, "Input:     %s\n", run.InputPath)
	fmt.Fprintf(out, "Output:    %s\n", run.OutputPath)
	fmt.Fprintf(out, "Backend:   %s\n", run.Backend)
	fmt.Fprintf(out, "Window:    %d frames\n", run.WindowSize)
	fmt.Fprintf(out, "Frames:    %d of %d emitted, %d redacted, %d windows\n",
		run.FramesEmitted, run.FrameCount, run.FramesRedacted, run.Windows)
	fmt.Fprintf(out, "Started:   %s\n", formatTime(run.CreatedAt))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Finished:  %s (%s)\n", formatTime(run.FinishedAt), run.Duration.Round(time.Millisecond))
	}
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", run.ErrorMessage)
	}
	if len(run.Templates) == 0 {
		return
	}
	t := newReport(label("Template"), count("Threshold"), count("Stamped"), count("Boundary Hits"),
		count("Extracts"), count("Reused"), count("Skipped"), count("Reusable/Active"))
	for _, tpl := range run.Templates {
		t.add(tpl.Name, tpl.Threshold, tpl.Occurrences, tpl.BoundaryHits, tpl.ExtractCalls,
			tpl.ReusedFrames, tpl.SkippedFrames, fmt.Sprintf("%d/%d", tpl.ReusableWindows, tpl.ActiveWindows))
	}
	fmt.Fprintln(out, t)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
