package state

import (
	"log/slog"
	"sync/atomic"

	"github.com/starford/sislog/internal/apperr"
	"github.com/starford/sislog/internal/observability"
)

// Settings is the durable key-value capability behind the dark mode slice.
type Settings interface {
	DarkMode() (bool, error)
	SetDarkMode(on bool) error
}

// Change is delivered to subscribers after an action has been applied.
type Change struct {
	Kind  string
	State AppState
}

type dispatchReq struct {
	action Action
	result AppState
	done   chan struct{}
}

// Store owns the AppState.
//
// A single internal goroutine applies actions and serves reads; public
// methods talk to it over channels. Dispatch is safe from any goroutine
// and returns once the action has been applied, so all producers share
// one ordered queue.
type Store struct {
	settings Settings
	logger   *slog.Logger

	dispatchCh    chan *dispatchReq
	snapshotCh    chan chan AppState
	subscribeCh   chan *subscriber
	unsubscribeCh chan chan Change

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore starts a Store. The dark mode slice is seeded from settings;
// a read failure is logged and the flag starts off.
func NewStore(settings Settings, opts ...StoreOption) *Store {
	s := &Store{
		settings:      settings,
		logger:        slog.Default(),
		dispatchCh:    make(chan *dispatchReq, 64),
		snapshotCh:    make(chan chan AppState),
		subscribeCh:   make(chan *subscriber),
		unsubscribeCh: make(chan chan Change),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	darkMode := false
	if settings != nil {
		on, err := settings.DarkMode()
		if err != nil {
			s.logger.Warn("state: read dark mode failed", slog.String("error", err.Error()))
		} else {
			darkMode = on
		}
	}

	go s.run(Initial(darkMode))
	return s
}

func (s *Store) run(current AppState) {
	defer close(s.stopped)

	subscribers := make(map[chan Change]*subscriber)

	for {
		select {
		case <-s.stopCh:
			for _, sub := range subscribers {
				sub.stop()
			}
			return

		case req := <-s.dispatchCh:
			current = s.apply(current, req.action)
			change := Change{Kind: req.action.Kind(), State: current}
			for _, sub := range subscribers {
				sub.offer(change)
			}
			req.result = current
			close(req.done)

		case resp := <-s.snapshotCh:
			resp <- current

		case sub := <-s.subscribeCh:
			subscribers[sub.ch] = sub

		case ch := <-s.unsubscribeCh:
			if sub, ok := subscribers[ch]; ok {
				delete(subscribers, ch)
				sub.stop()
			}
		}
	}
}

// apply runs the reducer and then the one side effect: persisting the
// dark mode flag after a toggle.
func (s *Store) apply(current AppState, a Action) AppState {
	next := Reduce(current, a)
	observability.RecordAction(a.Kind())

	if _, ok := a.(ToggleDarkMode); ok && s.settings != nil {
		if err := s.settings.SetDarkMode(next.DarkMode); err != nil {
			s.logger.Error("state: persist dark mode failed", slog.String("error", err.Error()))
		}
	}
	return next
}

// Dispatch queues a and waits until it has been applied. After Close it
// returns apperr.ErrClosed and the action is discarded.
func (s *Store) Dispatch(a Action) error {
	_, err := s.DispatchState(a)
	return err
}

// DispatchState is Dispatch, returning the state produced by a itself
// rather than whatever a later Snapshot would see.
func (s *Store) DispatchState(a Action) (AppState, error) {
	if s.closed.Load() {
		return AppState{}, apperr.ErrClosed
	}
	req := &dispatchReq{action: a, done: make(chan struct{})}
	select {
	case s.dispatchCh <- req:
	case <-s.stopped:
		return AppState{}, apperr.ErrClosed
	}
	select {
	case <-req.done:
		return req.result, nil
	case <-s.stopped:
		return AppState{}, apperr.ErrClosed
	}
}

// Snapshot returns the current state. Slices in the result are shared with
// the store and must not be modified.
func (s *Store) Snapshot() AppState {
	resp := make(chan AppState, 1)
	select {
	case s.snapshotCh <- resp:
	case <-s.stopped:
		return AppState{}
	}
	select {
	case st := <-resp:
		return st
	case <-s.stopped:
		return AppState{}
	}
}

// Subscribe returns a channel receiving applied changes in order. A reader
// that falls behind never loses a kind: pending changes of the same kind
// collapse into the newest one. The channel is closed by Unsubscribe or
// Close.
func (s *Store) Subscribe() chan Change {
	sub := newSubscriber()
	if s.closed.Load() {
		sub.stop()
		return sub.ch
	}
	select {
	case s.subscribeCh <- sub:
	case <-s.stopped:
		sub.stop()
	}
	return sub.ch
}

// Unsubscribe removes ch and closes it.
func (s *Store) Unsubscribe(ch chan Change) {
	if s.closed.Load() {
		return
	}
	select {
	case s.unsubscribeCh <- ch:
	case <-s.stopped:
	}
}

// Close stops the store loop and closes all subscriber channels.
func (s *Store) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	<-s.stopped
}
