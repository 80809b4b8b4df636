// Package state holds the in-process view of the production log.
//
// AppState is changed only by applying an Action through Reduce. Every
// action replaces exactly one slice in full. The Store runs Reduce on a
// single goroutine so that clock ticks, remote snapshots and UI actions
// are applied one at a time in arrival order.
package state

import (
	"time"

	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/timecode"
)

// ClockMode selects how the clock engine derives the timecode.
type ClockMode string

const (
	// ModeAuto follows the wall-clock time of day.
	ModeAuto ClockMode = "AUTO"
	// ModeManual runs forward from a base timecode captured at an anchor instant.
	ModeManual ClockMode = "MANUAL"
)

// ClockState is the clock slice. CurrentTimecode is derived and never
// authoritative. AnchorEpoch and BaseTimecode are set only in ModeManual.
type ClockState struct {
	Mode            ClockMode  `json:"mode"`
	CurrentTimecode string     `json:"currentTimecode"`
	AnchorEpoch     *time.Time `json:"anchorEpoch,omitempty"`
	BaseTimecode    string     `json:"baseTimecode,omitempty"`
}

// Selection is scratch space for composing a log entry. It is never
// persisted.
type Selection struct {
	Participants []string `json:"participants"`
	Location     string   `json:"location"`
	Action       string   `json:"action"`
	Tags         []string `json:"tags"`
}

// AppState aggregates every slice.
type AppState struct {
	CurrentUser      *models.User            `json:"currentUser"`
	Participants     []models.Participant    `json:"participants"`
	Locations        []models.Location       `json:"locations"`
	ActionCategories []models.ActionCategory `json:"actionCategories"`
	Tags             []models.Tag            `json:"tags"`
	LogEntries       []models.LogEntry       `json:"logEntries"`
	Clock            ClockState              `json:"clock"`
	Selection        Selection               `json:"selection"`
	DarkMode         bool                    `json:"darkMode"`
	IsRecording      bool                    `json:"isRecording"`
}

// Initial returns the state a Store starts from.
func Initial(darkMode bool) AppState {
	return AppState{
		Participants:     []models.Participant{},
		Locations:        []models.Location{},
		ActionCategories: []models.ActionCategory{},
		Tags:             []models.Tag{},
		LogEntries:       []models.LogEntry{},
		Clock: ClockState{
			Mode:            ModeAuto,
			CurrentTimecode: timecode.Zero,
		},
		Selection: Selection{
			Participants: []string{},
			Tags:         []string{},
		},
		DarkMode: darkMode,
	}
}
