package api

import (
	"net/http"

	"github.com/starford/sislog/internal/state"
)

// GetClock handles GET /api/clock.
//
//	@Summary		Get the clock engine mode and timecode
//	@Tags			clock
//	@Produce		json
//	@Success		200	{object}	ClockResponse
//	@Router			/clock [get]
func (h *Handler) GetClock(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.clockResponse())
}

// SetClock handles PUT /api/clock.
//
//	@Summary		Switch between wall-clock and manual timecode
//	@Tags			clock
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ClockRequest	true	"Mode"
//	@Success		200		{object}	ClockResponse
//	@Failure		400		{object}	errResponse
//	@Router			/clock [put]
func (h *Handler) SetClock(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Mode == string(state.ModeAuto) {
		h.d.Clock.SetAuto()
		writeJSON(w, http.StatusOK, h.clockResponse())
		return
	}
	anchor := h.d.Now()
	if req.AnchorEpoch != nil {
		anchor = *req.AnchorEpoch
	}
	if err := h.d.Clock.SetManual(req.BaseTimecode, anchor); err != nil {
		writeError(w, "set clock", err)
		return
	}
	writeJSON(w, http.StatusOK, h.clockResponse())
}

func (h *Handler) clockResponse() ClockResponse {
	return ClockResponse{
		Mode:     h.d.Clock.Mode(),
		Timecode: h.d.Clock.Current(),
		Clock:    h.d.State.Snapshot().Clock,
	}
}

// ToggleDarkMode handles POST /api/settings/dark-mode/toggle.
//
//	@Summary		Flip the persisted dark mode flag
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	map[string]bool
//	@Router			/settings/dark-mode/toggle [post]
func (h *Handler) ToggleDarkMode(w http.ResponseWriter, _ *http.Request) {
	st, err := h.d.State.DispatchState(state.ToggleDarkMode{})
	if err != nil {
		writeError(w, "toggle dark mode", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"darkMode": st.DarkMode})
}

// SetSelection handles PUT /api/selection.
//
//	@Summary		Replace parts of the quick-log selection
//	@Tags			selection
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectionRequest	true	"Selection"
//	@Success		200		{object}	state.Selection
//	@Router			/selection [put]
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var actions []state.Action
	if req.Participants != nil {
		actions = append(actions, state.SetSelectedParticipants{Participants: *req.Participants})
	}
	if req.Location != nil {
		actions = append(actions, state.SetSelectedLocation{Location: *req.Location})
	}
	if req.Action != nil {
		actions = append(actions, state.SetSelectedAction{Action: *req.Action})
	}
	if req.Tags != nil {
		actions = append(actions, state.SetSelectedTags{Tags: *req.Tags})
	}
	for _, a := range actions {
		if err := h.d.State.Dispatch(a); err != nil {
			writeError(w, "set selection", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.d.State.Snapshot().Selection)
}

// SetRecording handles PUT /api/recording.
//
//	@Summary		Set the recording flag
//	@Tags			recording
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RecordingRequest	true	"Recording flag"
//	@Success		200		{object}	map[string]bool
//	@Router			/recording [put]
func (h *Handler) SetRecording(w http.ResponseWriter, r *http.Request) {
	var req RecordingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.d.State.Dispatch(state.SetRecording{Recording: req.Recording}); err != nil {
		writeError(w, "set recording", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isRecording": h.d.State.Snapshot().IsRecording})
}
