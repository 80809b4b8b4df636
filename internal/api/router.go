package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sislog/internal/gateway"
	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/state"
)

// StateStore is the state store surface used by the handlers.
type StateStore interface {
	Snapshot() state.AppState
	Dispatch(a state.Action) error
	DispatchState(a state.Action) (state.AppState, error)
}

// Gateway performs log entry writes. *gateway.Service satisfies it.
type Gateway interface {
	AddLogEntry(ctx context.Context, e gateway.NewLogEntry) (string, error)
	UpdateLogEntry(ctx context.Context, id string, patch gateway.LogEntryPatch) error
	DeleteLogEntry(ctx context.Context, id string) error
	DeleteAllLogEntries(ctx context.Context) (int, error)
	DeleteLogEntries(ctx context.Context, ids []string) (int, error)
}

// ClockControl switches the clock engine mode. *clockengine.Engine
// satisfies it.
type ClockControl interface {
	SetManual(base string, anchor time.Time) error
	SetAuto()
	Mode() state.ClockMode
	Current() string
}

// Deps bundles what the router needs.
type Deps struct {
	State   StateStore
	Gateway Gateway
	Clock   ClockControl
	// User is the operator this process acts as. Writes are refused when
	// the role cannot edit.
	User *models.User
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d)

	r := chi.NewRouter()

	r.Get("/state", h.GetState)
	r.Get("/entries", h.ListEntries)
	r.Get("/clock", h.GetClock)

	r.Group(func(r chi.Router) {
		r.Use(RequireEditor(d.User))

		r.Post("/entries", h.CreateEntry)
		r.Patch("/entries/{id}", h.UpdateEntry)
		r.Delete("/entries/{id}", h.DeleteEntry)
		r.Delete("/entries", h.DeleteAllEntries)
		r.Post("/entries/delete", h.DeleteEntries)
	})

	// Per-operator controls; viewers may use them too.
	r.Put("/clock", h.SetClock)
	r.Post("/settings/dark-mode/toggle", h.ToggleDarkMode)
	r.Put("/selection", h.SetSelection)
	r.Put("/recording", h.SetRecording)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
