// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/sislog/internal/api"
	"github.com/starford/sislog/internal/clock"
	"github.com/starford/sislog/internal/clockengine"
	"github.com/starford/sislog/internal/docstore"
	"github.com/starford/sislog/internal/gateway"
	"github.com/starford/sislog/internal/mcpserver"
	"github.com/starford/sislog/internal/remotesync"
	"github.com/starford/sislog/internal/seed"
	"github.com/starford/sislog/internal/settings"
	"github.com/starford/sislog/internal/sse"
	"github.com/starford/sislog/internal/state"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{
		clock:     clock.Real(),
		logOutput: os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	return app, nil
}

// components is the running sync engine: the state store fed by the
// document store, the clock engine and the write gateway.
type components struct {
	state   *state.Store
	docs    *docstore.Store
	sync    *remotesync.Adapter
	engine  *clockengine.Engine
	gateway *gateway.Service
}

func (a *application) open(ctx context.Context) (*components, error) {
	cfg := a.config
	logger := a.logger

	loc, err := cfg.Clock.Location()
	if err != nil {
		return nil, fmt.Errorf("clock timezone: %w", err)
	}

	prefs, err := settings.NewFile(cfg.Settings.Path)
	if err != nil {
		return nil, fmt.Errorf("init settings: %w", err)
	}

	c := &components{}
	c.state = state.NewStore(prefs, state.WithLogger(logger))

	c.docs, err = docstore.Open(cfg.Store.Path,
		docstore.WithClock(a.clock),
		docstore.WithLogger(logger),
		docstore.WithWatchDebounce(cfg.Store.WatchDebounce),
	)
	if err != nil {
		c.state.Close()
		return nil, fmt.Errorf("init docstore: %w", err)
	}

	user := cfg.User.User()
	if err := c.state.Dispatch(state.SetUser{User: user}); err != nil {
		c.close()
		return nil, fmt.Errorf("set user: %w", err)
	}

	c.sync = remotesync.New(c.docs, c.state, remotesync.WithLogger(logger))
	if err := c.sync.Start(); err != nil {
		c.close()
		return nil, fmt.Errorf("start sync: %w", err)
	}

	c.engine = clockengine.New(c.state,
		clockengine.WithClock(a.clock),
		clockengine.WithInterval(cfg.Clock.TickInterval),
		clockengine.WithLocation(loc),
		clockengine.WithLogger(logger),
	)
	c.engine.Start(ctx)

	c.gateway = gateway.NewService(c.docs,
		gateway.WithClock(a.clock),
		gateway.WithLogger(logger),
		gateway.WithCreatedBy(user.ID),
	)
	return c, nil
}

// close stops producers before the stores they write to.
func (c *components) close() {
	if c.engine != nil {
		c.engine.Stop()
	}
	if c.sync != nil {
		c.sync.Stop()
	}
	if c.docs != nil {
		_ = c.docs.Close()
	}
	c.state.Close()
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("settings_path", cfg.Settings.Path),
		slog.String("user", cfg.User.ID),
		slog.String("log_level", cfg.App.LogLevel.String()))

	g, gCtx := errgroup.WithContext(ctx)

	c, err := app.open(gCtx)
	if err != nil {
		return err
	}
	defer c.close()

	// SSE broker.
	broker := sse.NewBroker(cfg.SSE.TimecodeThrottle, sse.WithClock(app.clock))
	defer broker.Close()

	apiRouter := api.NewRouter(api.Deps{
		State:   c.state,
		Gateway: c.gateway,
		Clock:   c.engine,
		User:    cfg.User.User(),
		Events:  broker,
		Now:     app.clock.Now,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if c.state.Snapshot().User == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"starting"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g.Go(func() error {
		broker.Forward(gCtx, c.state)
		return nil
	})

	if cfg.Store.Watch {
		g.Go(func() error {
			if err := c.docs.Watch(gCtx); err != nil {
				return fmt.Errorf("docstore watcher: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// SSE streams only end when the broker closes.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once shutdown has begun so the Forward and
// watcher goroutines return.
var errShutdown = errors.New("shutdown")

// RunSeed writes the built-in sample reference data to the
// configured store. Re-running it overwrites the same documents.
func RunSeed(ctx context.Context, opts ...Option) (int, error) {
	app, err := newApplication(opts)
	if err != nil {
		return 0, err
	}

	data, err := seed.Sample()
	if err != nil {
		return 0, err
	}

	docs, err := docstore.Open(app.config.Store.Path,
		docstore.WithClock(app.clock),
		docstore.WithLogger(app.logger),
	)
	if err != nil {
		return 0, fmt.Errorf("init docstore: %w", err)
	}
	defer docs.Close()

	n, err := seed.Apply(ctx, docs, data, app.logger)
	if err != nil {
		return n, err
	}
	app.logger.Info("seed: done", slog.Int("documents", n), slog.String("store_path", app.config.Store.Path))
	return n, nil
}

// RunMCP serves the MCP tools over in and out against the configured
// store until ctx is cancelled or in reaches EOF. Logs must not go to out.
func RunMCP(ctx context.Context, in io.Reader, out io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	c, err := app.open(gCtx)
	if err != nil {
		return err
	}
	defer c.close()

	if app.config.Store.Watch {
		g.Go(func() error {
			return c.docs.Watch(gCtx)
		})
	}

	srv := mcpserver.New(c.state, c.gateway, c.engine)
	g.Go(func() error {
		app.logger.Info("mcp: serving on stdio")
		if err := srv.Serve(gCtx, in, out); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server: %w", err)
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		return err
	}
	return nil
}
