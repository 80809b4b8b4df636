package api

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sislog/internal/feed"
	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/state"
	"github.com/starford/sislog/internal/timecode"
)

// validTimecode accepts an empty value or a well-formed HH:MM:SS:FF.
var validTimecode = validation.By(func(value any) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if err := timecode.Validate(s); err != nil {
		return errors.New("must be HH:MM:SS:FF")
	}
	return nil
})

// CreateEntryRequest is the request body for adding a log entry. An empty
// timecode is filled with the running clock; a missing timestamp with the
// current time.
type CreateEntryRequest struct {
	Timestamp      *time.Time `json:"timestamp,omitempty"`
	Timecode       string     `json:"timecode" example:"01:02:03:04"`
	Participants   []string   `json:"participants" example:"p1,p2"`
	Location       string     `json:"location" example:"l1"`
	ActionCategory string     `json:"actionCategory" example:"a2"`
	Tags           []string   `json:"tags" example:"t1"`
	Notes          string     `json:"notes" example:"Argument in the kitchen" validate:"required"`
}

// Validate trims notes and checks the request.
func (r *CreateEntryRequest) Validate() error {
	r.Notes = strings.TrimSpace(r.Notes)
	return validation.ValidateStruct(r,
		validation.Field(&r.Notes, validation.Required.Error("notes cannot be empty")),
		validation.Field(&r.Timecode, validTimecode),
	)
}

// UpdateEntryRequest is the request body for changing a log entry. Only
// the fields present are changed.
type UpdateEntryRequest struct {
	Timecode       *string   `json:"timecode,omitempty"`
	Participants   *[]string `json:"participants,omitempty"`
	Location       *string   `json:"location,omitempty"`
	ActionCategory *string   `json:"actionCategory,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
}

// Validate trims notes and checks the request.
func (r *UpdateEntryRequest) Validate() error {
	if r.Notes != nil {
		trimmed := strings.TrimSpace(*r.Notes)
		r.Notes = &trimmed
	}
	if r.Timecode == nil && r.Participants == nil && r.Location == nil &&
		r.ActionCategory == nil && r.Tags == nil && r.Notes == nil {
		return errors.New("no fields to update")
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Notes, validation.NilOrNotEmpty.Error("notes cannot be empty")),
		validation.Field(&r.Timecode, validation.NilOrNotEmpty, validTimecode),
	)
}

// DeleteEntriesRequest is the request body for a bulk delete.
type DeleteEntriesRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

// Validate checks the request.
func (r *DeleteEntriesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.Required, validation.Each(validation.Required)),
	)
}

// DeleteResponse reports how many entries a bulk delete removed.
type DeleteResponse struct {
	Deleted int    `json:"deleted" example:"5"`
	Error   string `json:"error,omitempty"`
}

// ClockRequest is the request body for switching the clock mode. In
// MANUAL mode the timecode runs from baseTimecode starting at
// anchorEpoch, which defaults to the time of the request.
type ClockRequest struct {
	Mode         string     `json:"mode" example:"MANUAL" validate:"required"`
	BaseTimecode string     `json:"baseTimecode,omitempty" example:"01:00:00:00"`
	AnchorEpoch  *time.Time `json:"anchorEpoch,omitempty"`
}

// Validate checks the request.
func (r *ClockRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Mode, validation.Required, validation.In(string(state.ModeAuto), string(state.ModeManual))),
		validation.Field(&r.BaseTimecode,
			validation.When(r.Mode == string(state.ModeManual), validation.Required),
			validTimecode),
	)
}

// ClockResponse describes the clock engine.
type ClockResponse struct {
	Mode     state.ClockMode  `json:"mode" example:"AUTO"`
	Timecode string           `json:"timecode" example:"14:30:15:15"`
	Clock    state.ClockState `json:"clock"`
}

// SelectionRequest replaces the parts of the selection that are present.
type SelectionRequest struct {
	Participants *[]string `json:"participants,omitempty"`
	Location     *string   `json:"location,omitempty"`
	Action       *string   `json:"action,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
}

// Validate implements validation.Validatable.
func (r *SelectionRequest) Validate() error {
	return nil
}

// RecordingRequest is the request body for the recording flag.
type RecordingRequest struct {
	Recording bool `json:"recording"`
}

// Validate implements validation.Validatable.
func (r *RecordingRequest) Validate() error {
	return nil
}

// EntryListResponse wraps feed results. Rows is set instead of Entries
// when names were requested.
type EntryListResponse struct {
	Entries []models.LogEntry `json:"entries,omitempty"`
	Rows    []feed.Row        `json:"rows,omitempty"`
	Total   int               `json:"total" example:"42"`
}

// CreatedResponse carries the id of a new entry.
type CreatedResponse struct {
	ID string `json:"id" example:"0190a5e4-7c1b-7d2e-9f3a-4b5c6d7e8f90"`
}
