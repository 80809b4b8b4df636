// Package clockengine produces the running production timecode.
//
// The engine ticks on a fixed period and writes the current timecode into
// the state store on every tick. In AUTO mode the timecode is the wall
// clock time of day. In MANUAL mode it is a base timecode advanced by the
// time elapsed since an anchor instant, recomputed from the absolute
// offset on each tick so it never drifts.
package clockengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/sislog/internal/apperr"
	"github.com/starford/sislog/internal/clock"
	"github.com/starford/sislog/internal/observability"
	"github.com/starford/sislog/internal/state"
	"github.com/starford/sislog/internal/timecode"
)

// DefaultInterval is the tick period, about one frame at 30 fps.
const DefaultInterval = 33 * time.Millisecond

// Dispatcher receives the engine's actions. *state.Store satisfies it.
type Dispatcher interface {
	Dispatch(a state.Action) error
}

// Engine is the clock engine. Create with New, then Start.
type Engine struct {
	dispatcher Dispatcher
	clock      clock.Clock
	interval   time.Duration
	location   *time.Location
	logger     *slog.Logger

	// mu serialises mode changes with ticks so a tick computed in the old
	// mode is never dispatched after the new mode.
	mu      sync.Mutex
	mode    state.ClockMode
	anchor  time.Time
	base    timecode.Timecode
	current string

	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithLocation sets the time zone used for the AUTO wall-clock timecode.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New returns an engine in AUTO mode. It does not tick until Start.
func New(dispatcher Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		dispatcher: dispatcher,
		clock:      clock.Real(),
		interval:   DefaultInterval,
		location:   time.Local,
		logger:     slog.Default(),
		mode:       state.ModeAuto,
		current:    timecode.Zero,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start computes the timecode once and then ticks until ctx is cancelled
// or Stop is called. Calling Start on a running engine is a no-op; an
// engine whose previous context was cancelled starts afresh.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.done != nil {
		if e.runCtx.Err() == nil {
			e.mu.Unlock()
			return
		}
		old, oldCancel := e.done, e.cancel
		e.runCtx, e.cancel, e.done = nil, nil, nil
		e.mu.Unlock()
		oldCancel()
		<-old

		e.mu.Lock()
		if e.done != nil {
			e.mu.Unlock()
			return
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	e.runCtx = ctx
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	ticker := e.clock.NewTicker(e.interval)
	e.tick()

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.tick()
			}
		}
	}()
	e.logger.Info("clock: started",
		slog.String("mode", string(e.Mode())),
		slog.Duration("interval", e.interval))
}

// Stop halts ticking and waits for the tick loop to exit. The engine can
// be started again afterwards.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.runCtx, e.cancel, e.done = nil, nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	e.logger.Info("clock: stopped")
}

// SetManual switches to MANUAL mode: from anchor onwards the timecode runs
// from base. Both are required; a zero anchor or a base that is not a
// valid HH:MM:SS:FF timecode is rejected with apperr.ErrInvalidTimecode
// and the mode is left unchanged.
func (e *Engine) SetManual(base string, anchor time.Time) error {
	if anchor.IsZero() {
		return fmt.Errorf("clockengine: manual mode needs an anchor: %w", apperr.ErrInvalidTimecode)
	}
	tc, err := timecode.Parse(base)
	if err != nil {
		return fmt.Errorf("clockengine: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = state.ModeManual
	e.anchor = anchor
	e.base = tc
	e.dispatch(state.SetManualTimecode{IsManual: true, StartEpoch: anchor, BaseTimecode: tc.String()})
	e.refreshLocked()
	observability.RecordClockMode(true)
	e.logger.Info("clock: mode changed",
		slog.String("mode", string(state.ModeManual)),
		slog.String("base", tc.String()),
		slog.Time("anchor", anchor))
	return nil
}

// SetAuto switches back to the wall clock and forgets the manual anchor
// and base.
func (e *Engine) SetAuto() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = state.ModeAuto
	e.anchor = time.Time{}
	e.base = timecode.Timecode{}
	e.dispatch(state.SetManualTimecode{IsManual: false})
	e.refreshLocked()
	observability.RecordClockMode(false)
	e.logger.Info("clock: mode changed", slog.String("mode", string(state.ModeAuto)))
}

// Mode returns the current mode.
func (e *Engine) Mode() state.ClockMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Current returns the most recently computed timecode.
func (e *Engine) Current() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) tick() {
	observability.RecordTick()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
}

func (e *Engine) refreshLocked() {
	e.current = e.computeLocked(e.clock.Now())
	e.dispatch(state.SetTimecode{Timecode: e.current})
}

func (e *Engine) computeLocked(now time.Time) string {
	if e.mode == state.ModeManual {
		elapsed := now.Sub(e.anchor)
		if elapsed < 0 {
			elapsed = 0
		}
		return timecode.Elapsed(e.base, elapsed)
	}
	return timecode.FromWallClock(now.In(e.location))
}

func (e *Engine) dispatch(a state.Action) {
	err := e.dispatcher.Dispatch(a)
	if err == nil {
		return
	}
	if errors.Is(err, apperr.ErrClosed) {
		e.logger.Debug("clock: store closed, action dropped", slog.String("kind", a.Kind()))
		return
	}
	e.logger.Warn("clock: dispatch failed",
		slog.String("kind", a.Kind()),
		slog.String("error", err.Error()))
}
