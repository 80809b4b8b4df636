// Package remotesync mirrors the remote document collections into the
// state store.
//
// Each collection has one live subscription. Every notification carries
// the collection's full membership, which is decoded and dispatched as a
// full-replace action: the last snapshot wins and nothing is merged.
package remotesync

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/starford/sislog/internal/apperr"
	"github.com/starford/sislog/internal/docstore"
	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/observability"
	"github.com/starford/sislog/internal/state"
)

// Subscriber is the part of the document store the adapter needs.
type Subscriber interface {
	Subscribe(collection string, fn func(docstore.Snapshot)) (func(), error)
}

// Dispatcher receives the decoded collections. *state.Store satisfies it.
type Dispatcher interface {
	Dispatch(a state.Action) error
}

// Adapter bridges the five collections into state actions.
type Adapter struct {
	docs       Subscriber
	dispatcher Dispatcher
	logger     *slog.Logger

	mu      sync.Mutex
	unsubs  []func()
	stopped atomic.Bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// New returns an adapter. Nothing is subscribed until Start.
func New(docs Subscriber, dispatcher Dispatcher, opts ...Option) *Adapter {
	a := &Adapter{
		docs:       docs,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start subscribes to every collection. If any subscription fails the
// ones already made are cancelled and the error is returned.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.unsubs) > 0 {
		return nil
	}
	for _, collection := range models.Collections {
		unsub, err := a.docs.Subscribe(collection, a.handler(collection))
		if err != nil {
			for _, u := range a.unsubs {
				u()
			}
			a.unsubs = nil
			return fmt.Errorf("remotesync: subscribe %s: %w", collection, err)
		}
		a.unsubs = append(a.unsubs, unsub)
	}
	a.logger.Info("sync: subscribed", slog.Int("collections", len(a.unsubs)))
	return nil
}

// Stop cancels every subscription. Snapshots that arrive afterwards are
// discarded.
func (a *Adapter) Stop() {
	a.stopped.Store(true)
	a.mu.Lock()
	unsubs := a.unsubs
	a.unsubs = nil
	a.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
	if len(unsubs) > 0 {
		a.logger.Info("sync: unsubscribed")
	}
}

func (a *Adapter) handler(collection string) func(docstore.Snapshot) {
	return func(snap docstore.Snapshot) {
		if a.stopped.Load() {
			return
		}
		action := a.decode(collection, snap)
		if action == nil {
			return
		}
		observability.RecordSnapshot(collection, len(snap.Documents))
		if err := a.dispatcher.Dispatch(action); err != nil {
			if errors.Is(err, apperr.ErrClosed) {
				a.logger.Debug("sync: store closed, snapshot dropped", slog.String("collection", collection))
				return
			}
			a.logger.Warn("sync: dispatch failed",
				slog.String("collection", collection),
				slog.String("error", err.Error()))
			return
		}
		a.logger.Debug("sync: snapshot applied",
			slog.String("collection", collection),
			slog.Int("documents", len(snap.Documents)))
	}
}

func (a *Adapter) decode(collection string, snap docstore.Snapshot) state.Action {
	switch collection {
	case models.CollectionParticipants:
		return state.SetParticipants{Participants: decodeAll[models.Participant](a.logger, snap)}
	case models.CollectionLocations:
		return state.SetLocations{Locations: decodeAll[models.Location](a.logger, snap)}
	case models.CollectionActionCategories:
		return state.SetActionCategories{ActionCategories: decodeAll[models.ActionCategory](a.logger, snap)}
	case models.CollectionTags:
		return state.SetTags{Tags: decodeAll[models.Tag](a.logger, snap)}
	case models.CollectionLogEntries:
		return state.SetLogEntries{LogEntries: decodeAll[models.LogEntry](a.logger, snap)}
	default:
		return nil
	}
}

// decodeAll decodes every document in snap. Documents that do not decode
// are logged and left out.
func decodeAll[T any](logger *slog.Logger, snap docstore.Snapshot) []T {
	out := make([]T, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		var v T
		if err := doc.Decode(&v); err != nil {
			observability.RecordDecodeFailure(snap.Collection)
			logger.Warn("sync: skipping undecodable document",
				slog.String("collection", snap.Collection),
				slog.String("id", doc.ID),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, v)
	}
	return out
}
