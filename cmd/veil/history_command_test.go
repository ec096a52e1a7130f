package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"veil/internal/history"
	"veil/internal/pipeline"
	"veil/internal/testsupport"
)

func TestHistoryCommandListsRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, "No runs recorded")

	store := testsupport.MustOpenHistory(t, env.cfg)
	run := testsupport.BeginRun(t, store, history.Run{
		InputPath:  "/videos/match.mkv",
		OutputPath: "/videos/clean.mp4",
		WindowSize: 24,
		Backend:    "native",
		Templates:  []history.Template{{Name: "bug", Threshold: 0.9}},
	})
	result := pipeline.Result{
		FrameCount:     48,
		FramesEmitted:  48,
		FramesRedacted: 12,
		Windows:        2,
		Templates:      []pipeline.TemplateStats{{Name: "bug", Occurrences: 12, BoundaryHits: 1, ExtractCalls: 24}},
	}
	if err := store.Complete(context.Background(), run.ID, result); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	stdout, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, history.ShortID(run.ID))
	requireContains(t, stdout, "completed")
	requireContains(t, stdout, "/videos/match.mkv")

	stdout, _, err = runCLI(t, []string{"history", "show", history.ShortID(run.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, stdout, "Run:       "+run.ID)
	requireContains(t, stdout, "48 of 48 emitted, 12 redacted, 2 windows")
	requireContains(t, stdout, "bug")
	if strings.Contains(stdout, "Error:") {
		t.Fatalf("completed run should not print an error line:\n%s", stdout)
	}
}

func TestHistoryShowUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"history", "show", "deadbeef"}, env.configPath)
	if !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
