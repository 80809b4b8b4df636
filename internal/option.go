package internal

import (
	"io"
	"log/slog"

	"github.com/starford/sislog/internal/clock"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	clock     clock.Clock
	logOutput io.Writer
	logger    *slog.Logger
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithClock replaces the wall clock used by the clock engine, the document
// store and the gateway.
func WithClock(c clock.Clock) Option {
	return func(a *application) {
		a.clock = c
	}
}

// WithLogOutput sets where the JSON log is written. Defaults to stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithLogger sets the logger directly, overriding WithLogOutput.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}
