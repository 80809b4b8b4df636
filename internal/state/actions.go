package state

import (
	"time"

	"github.com/starford/sislog/internal/models"
)

// Action kinds.
const (
	KindSetUser                 = "SET_USER"
	KindSetParticipants         = "SET_PARTICIPANTS"
	KindSetLocations            = "SET_LOCATIONS"
	KindSetActionCategories     = "SET_ACTION_CATEGORIES"
	KindSetTags                 = "SET_TAGS"
	KindSetLogEntries           = "SET_LOG_ENTRIES"
	KindSetTimecode             = "SET_TIMECODE"
	KindSetManualTimecode       = "SET_MANUAL_TIMECODE"
	KindSetSelectedParticipants = "SET_SELECTED_PARTICIPANTS"
	KindSetSelectedLocation     = "SET_SELECTED_LOCATION"
	KindSetSelectedAction       = "SET_SELECTED_ACTION"
	KindSetSelectedTags         = "SET_SELECTED_TAGS"
	KindToggleDarkMode          = "TOGGLE_DARK_MODE"
	KindSetRecording            = "SET_RECORDING"
)

// Action is a request to replace one slice of AppState. Reduce ignores
// action types it does not know.
type Action interface {
	Kind() string
}

// SetUser replaces the current user. A nil User clears it.
type SetUser struct{ User *models.User }

// SetParticipants replaces the participant collection.
type SetParticipants struct{ Participants []models.Participant }

// SetLocations replaces the location collection.
type SetLocations struct{ Locations []models.Location }

// SetActionCategories replaces the action category collection.
type SetActionCategories struct{ ActionCategories []models.ActionCategory }

// SetTags replaces the tag collection.
type SetTags struct{ Tags []models.Tag }

// SetLogEntries replaces the log entry collection.
type SetLogEntries struct{ LogEntries []models.LogEntry }

// SetTimecode replaces the displayed timecode.
type SetTimecode struct{ Timecode string }

// SetManualTimecode switches the clock mode. Entering manual mode needs
// both a StartEpoch and a valid BaseTimecode; leaving it clears both.
type SetManualTimecode struct {
	IsManual     bool
	StartEpoch   time.Time
	BaseTimecode string
}

// SetSelectedParticipants replaces the selected participant ids.
type SetSelectedParticipants struct{ Participants []string }

// SetSelectedLocation replaces the selected location id.
type SetSelectedLocation struct{ Location string }

// SetSelectedAction replaces the selected action category id.
type SetSelectedAction struct{ Action string }

// SetSelectedTags replaces the selected tag ids.
type SetSelectedTags struct{ Tags []string }

// ToggleDarkMode flips the dark mode flag. The Store persists the new value
// through its Settings before Dispatch returns.
type ToggleDarkMode struct{}

// SetRecording replaces the recording flag.
type SetRecording struct{ Recording bool }

func (SetUser) Kind() string                 { return KindSetUser }
func (SetParticipants) Kind() string         { return KindSetParticipants }
func (SetLocations) Kind() string            { return KindSetLocations }
func (SetActionCategories) Kind() string     { return KindSetActionCategories }
func (SetTags) Kind() string                 { return KindSetTags }
func (SetLogEntries) Kind() string           { return KindSetLogEntries }
func (SetTimecode) Kind() string             { return KindSetTimecode }
func (SetManualTimecode) Kind() string       { return KindSetManualTimecode }
func (SetSelectedParticipants) Kind() string { return KindSetSelectedParticipants }
func (SetSelectedLocation) Kind() string     { return KindSetSelectedLocation }
func (SetSelectedAction) Kind() string       { return KindSetSelectedAction }
func (SetSelectedTags) Kind() string         { return KindSetSelectedTags }
func (ToggleDarkMode) Kind() string          { return KindToggleDarkMode }
func (SetRecording) Kind() string            { return KindSetRecording }
