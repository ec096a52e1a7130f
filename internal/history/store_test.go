package history_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"veil/internal/history"
	"veil/internal/pipeline"
	"veil/internal/testsupport"
)

func sampleRun() history.Run {
	return history.Run{
		InputPath:  "/videos/in.mkv",
		OutputPath: "/videos/out.mkv",
		WindowSize: 30,
		Backend:    "native",
		FrameCount: 300,
		Templates: []history.Template{
			{Name: "logo", Path: "/templates/logo.png", Threshold: 0.9},
			{Name: "ticker", Threshold: 0.85},
		},
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	if store.Path() != cfg.HistoryPath() {
		t.Fatalf("Path = %q, want %q", store.Path(), cfg.HistoryPath())
	}
	if _, err := os.Stat(cfg.HistoryPath()); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	// Reopening an existing database must accept the recorded version.
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestBeginThenComplete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	run := testsupport.BeginRun(t, store, sampleRun())

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != history.StatusRunning {
		t.Fatalf("status = %q, want running", got.Status)
	}
	if !got.FinishedAt.IsZero() {
		t.Fatalf("running entry should not have a finish time, got %v", got.FinishedAt)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be recorded")
	}

	result := pipeline.Result{
		RunID:          run.ID,
		FrameCount:     300,
		FramesEmitted:  300,
		FramesRedacted: 42,
		Windows:        10,
		WindowSize:     30,
		Duration:       1500 * time.Millisecond,
		Templates: []pipeline.TemplateStats{
			{Name: "logo", ExtractCalls: 70, BoundaryHits: 3, ReusedFrames: 58, SkippedFrames: 232, Occurrences: 42, ActiveWindows: 3, ReusableWindows: 2},
			{Name: "ticker", ExtractCalls: 10, SkippedFrames: 290},
		},
	}
	if err := store.Complete(ctx, run.ID, result); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err = store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != history.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.FramesRedacted != 42 || got.Windows != 10 || got.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected run stats: %+v", got)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("expected finish time")
	}
	want := []history.Template{
		{Name: "logo", Path: "/templates/logo.png", Threshold: 0.9, ExtractCalls: 70, BoundaryHits: 3, ReusedFrames: 58, SkippedFrames: 232, Occurrences: 42, ActiveWindows: 3, ReusableWindows: 2},
		{Name: "ticker", Threshold: 0.85, ExtractCalls: 10, SkippedFrames: 290},
	}
	if diff := cmp.Diff(want, got.Templates); diff != "" {
		t.Fatalf("templates mismatch (-want +got):\n%s", diff)
	}
}

func TestFailRecordsError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	run := testsupport.BeginRun(t, store, sampleRun())
	cause := errors.New("stream ended inside a window")
	if err := store.Fail(ctx, run.ID, pipeline.Result{FramesEmitted: 90}, cause); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != history.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.ErrorMessage != cause.Error() {
		t.Fatalf("error message = %q, want %q", got.ErrorMessage, cause.Error())
	}
	if got.FramesEmitted != 90 {
		t.Fatalf("frames emitted = %d, want 90", got.FramesEmitted)
	}
}

func TestCompleteUnknownRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	err := store.Complete(context.Background(), "missing", pipeline.Result{})
	if !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBeginRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	if err := store.Begin(context.Background(), history.Run{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestGetByPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	first := sampleRun()
	first.ID = "abc12345-0000"
	second := sampleRun()
	second.ID = "abc99999-0000"
	third := sampleRun()
	third.ID = "abc1"
	testsupport.BeginRun(t, store, first)
	testsupport.BeginRun(t, store, second)
	testsupport.BeginRun(t, store, third)

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr error
	}{
		{name: "unique prefix", id: "abc9", want: "abc99999-0000"},
		{name: "exact wins over prefix", id: "abc1", want: "abc1"},
		{name: "ambiguous", id: "abc", wantErr: history.ErrAmbiguous},
		{name: "missing", id: "zzz", wantErr: history.ErrNotFound},
		{name: "empty", id: " ", wantErr: history.ErrNotFound},
		{name: "like wildcard is literal", id: "abc_", wantErr: history.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Get(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.ID != tt.want {
				t.Fatalf("got %q, want %q", got.ID, tt.want)
			}
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	var ids []string
	for range 3 {
		run := testsupport.BeginRun(t, store, sampleRun())
		ids = append(ids, run.ID)
	}

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []string
	for _, run := range runs {
		got = append(got, run.ID)
	}
	want := []string{ids[2], ids[1], ids[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(limited))
	}
	if limited[0].Templates != nil {
		t.Fatal("List should not load template rows")
	}
}

func TestSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	store.Close()

	db, err := sql.Open("sqlite", filepath.Clean(cfg.HistoryPath()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	_, err = history.Open(cfg)
	if !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
