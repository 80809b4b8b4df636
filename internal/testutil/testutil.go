// Package testutil provides shared test helpers for document stores,
// state stores and loggers.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/sislog/internal/docstore"
	"github.com/starford/sislog/internal/settings"
	"github.com/starford/sislog/internal/state"
)

// TestDocStore opens a document store in a temporary directory that is
// closed and removed when the test ends.
func TestDocStore(t *testing.T, opts ...docstore.Option) *docstore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sislog-test.db")
	store, err := docstore.Open(path, append([]docstore.Option{docstore.WithLogger(Logger())}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestStateStore starts a state store backed by a temporary settings
// file.
func TestStateStore(t *testing.T) *state.Store {
	t.Helper()
	prefs, err := settings.NewFile(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	store := state.NewStore(prefs, state.WithLogger(Logger()))
	t.Cleanup(store.Close)
	return store
}

// Logger returns a JSON logger that only reports errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}
