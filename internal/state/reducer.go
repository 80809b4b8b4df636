package state

import (
	"slices"

	"github.com/starford/sislog/internal/timecode"
)

// Reduce returns the state after applying a. It never fails: unknown
// actions, and manual-mode requests missing an anchor or carrying a
// malformed base timecode, return s unchanged.
//
// Collections are copied, so later changes to the caller's slices do not
// leak into the state.
func Reduce(s AppState, a Action) AppState {
	switch a := a.(type) {
	case SetUser:
		if a.User == nil {
			s.CurrentUser = nil
		} else {
			u := *a.User
			s.CurrentUser = &u
		}
	case SetParticipants:
		s.Participants = cloneOrEmpty(a.Participants)
	case SetLocations:
		s.Locations = cloneOrEmpty(a.Locations)
	case SetActionCategories:
		s.ActionCategories = cloneOrEmpty(a.ActionCategories)
	case SetTags:
		s.Tags = cloneOrEmpty(a.Tags)
	case SetLogEntries:
		s.LogEntries = cloneOrEmpty(a.LogEntries)
	case SetTimecode:
		s.Clock.CurrentTimecode = a.Timecode
	case SetManualTimecode:
		s.Clock = reduceClockMode(s.Clock, a)
	case SetSelectedParticipants:
		s.Selection.Participants = cloneOrEmpty(a.Participants)
	case SetSelectedLocation:
		s.Selection.Location = a.Location
	case SetSelectedAction:
		s.Selection.Action = a.Action
	case SetSelectedTags:
		s.Selection.Tags = cloneOrEmpty(a.Tags)
	case ToggleDarkMode:
		s.DarkMode = !s.DarkMode
	case SetRecording:
		s.IsRecording = a.Recording
	}
	return s
}

func reduceClockMode(c ClockState, a SetManualTimecode) ClockState {
	if !a.IsManual {
		return ClockState{Mode: ModeAuto, CurrentTimecode: c.CurrentTimecode}
	}
	if a.StartEpoch.IsZero() || timecode.Validate(a.BaseTimecode) != nil {
		return c
	}
	anchor := a.StartEpoch
	return ClockState{
		Mode:            ModeManual,
		CurrentTimecode: c.CurrentTimecode,
		AnchorEpoch:     &anchor,
		BaseTimecode:    a.BaseTimecode,
	}
}

func cloneOrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}
