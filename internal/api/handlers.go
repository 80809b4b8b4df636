package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sislog/internal/feed"
	"github.com/starford/sislog/internal/gateway"
)

// Handler holds API route handlers.
type Handler struct {
	d Deps
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{d: d}
}

// GetState handles GET /api/state.
//
//	@Summary		Get the full application state
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	state.AppState
//	@Router			/state [get]
func (h *Handler) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.d.State.Snapshot())
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List log entries, newest first
//	@Tags			entries
//	@Produce		json
//	@Param			q			query		string	false	"Search notes and participant names"
//	@Param			participant	query		string	false	"Participant id"
//	@Param			location	query		string	false	"Location id"
//	@Param			from		query		string	false	"RFC 3339 lower bound"
//	@Param			to			query		string	false	"RFC 3339 upper bound"
//	@Param			resolve		query		bool	false	"Replace ids with names"
//	@Success		200			{object}	EntryListResponse
//	@Failure		400			{object}	errResponse
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := feed.Filter{
		Search:      q.Get("q"),
		Participant: q.Get("participant"),
		Location:    q.Get("location"),
	}
	for name, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("'"+name+"' must be an RFC 3339 time"))
			return
		}
		*dst = t
	}

	s := h.d.State.Snapshot()
	entries := feed.Query(s, f)
	resp := EntryListResponse{Total: len(entries)}
	if resolve, _ := strconv.ParseBool(q.Get("resolve")); resolve {
		resp.Rows = make([]feed.Row, 0, len(entries))
		for _, e := range entries {
			resp.Rows = append(resp.Rows, feed.Resolve(s, e))
		}
	} else {
		resp.Entries = entries
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateEntry handles POST /api/entries. The entry appears in GET
// /api/state once the store has synchronised it.
//
//	@Summary		Add a log entry
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateEntryRequest	true	"Entry to add"
//	@Success		202		{object}	CreatedResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Router			/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e := gateway.NewLogEntry{
		Timecode:       req.Timecode,
		Participants:   req.Participants,
		Location:       req.Location,
		ActionCategory: req.ActionCategory,
		Tags:           req.Tags,
		Notes:          req.Notes,
	}
	if req.Timestamp != nil {
		e.Timestamp = *req.Timestamp
	} else {
		e.Timestamp = h.d.Now()
	}
	if e.Timecode == "" && h.d.Clock != nil {
		e.Timecode = h.d.Clock.Current()
	}

	id, err := h.d.Gateway.AddLogEntry(r.Context(), e)
	if err != nil {
		writeError(w, "add entry", err)
		return
	}
	writeJSON(w, http.StatusAccepted, CreatedResponse{ID: id})
}

// UpdateEntry handles PATCH /api/entries/{id}.
//
//	@Summary		Change fields of a log entry
//	@Tags			entries
//	@Accept			json
//	@Param			id		path	string				true	"Entry id"
//	@Param			body	body	UpdateEntryRequest	true	"Fields to change"
//	@Success		204		"Entry updated"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/entries/{id} [patch]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch := gateway.LogEntryPatch{
		Timecode:       req.Timecode,
		Location:       req.Location,
		ActionCategory: req.ActionCategory,
		Notes:          req.Notes,
	}
	if req.Participants != nil {
		patch.Participants = nonNil(*req.Participants)
	}
	if req.Tags != nil {
		patch.Tags = nonNil(*req.Tags)
	}
	if err := h.d.Gateway.UpdateLogEntry(r.Context(), id, patch); err != nil {
		writeError(w, "update entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry handles DELETE /api/entries/{id}. Deleting an entry that
// does not exist succeeds.
//
//	@Summary		Delete a log entry
//	@Tags			entries
//	@Param			id	path	string	true	"Entry id"
//	@Success		204	"Entry deleted"
//	@Router			/entries/{id} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.d.Gateway.DeleteLogEntry(r.Context(), id); err != nil {
		writeError(w, "delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllEntries handles DELETE /api/entries.
//
//	@Summary		Delete every log entry
//	@Description	Not transactional: on failure the response carries the number deleted before the error.
//	@Tags			entries
//	@Produce		json
//	@Success		200	{object}	DeleteResponse
//	@Failure		500	{object}	DeleteResponse
//	@Router			/entries [delete]
func (h *Handler) DeleteAllEntries(w http.ResponseWriter, r *http.Request) {
	n, err := h.d.Gateway.DeleteAllLogEntries(r.Context())
	h.writeDeleteResult(w, n, err)
}

// DeleteEntries handles POST /api/entries/delete.
//
//	@Summary		Delete selected log entries
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DeleteEntriesRequest	true	"Entry ids"
//	@Success		200		{object}	DeleteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	DeleteResponse
//	@Router			/entries/delete [post]
func (h *Handler) DeleteEntries(w http.ResponseWriter, r *http.Request) {
	var req DeleteEntriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.d.Gateway.DeleteLogEntries(r.Context(), req.IDs)
	h.writeDeleteResult(w, n, err)
}

func (h *Handler) writeDeleteResult(w http.ResponseWriter, n int, err error) {
	if err != nil {
		slog.Error("api: bulk delete failed", slog.Int("deleted", n), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, DeleteResponse{Deleted: n, Error: "delete stopped after an error"})
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
