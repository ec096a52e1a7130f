package testsupport

import (
	"context"
	"testing"

	"veil/internal/config"
	"veil/internal/history"
)

// MustOpenHistory opens a history.Store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginRun records a running entry for tests using the provided store.
func BeginRun(t testing.TB, store *history.Store, run history.Run) history.Run {
	t.Helper()

	if run.ID == "" {
		run.ID = history.NewRunID()
	}
	if err := store.Begin(context.Background(), run); err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	return run
}
