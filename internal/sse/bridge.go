package sse

import (
	"context"

	"github.com/starford/sislog/internal/state"
)

// ChangeSource is the state store's change feed.
type ChangeSource interface {
	Subscribe() chan state.Change
	Unsubscribe(ch chan state.Change)
}

// Forward publishes every state change from src until ctx is cancelled or
// src closes its feed. Timecode ticks go through the timecode throttle;
// every other change is sent as the slice it replaced.
func (b *Broker) Forward(ctx context.Context, src ChangeSource) {
	ch := src.Subscribe()
	defer src.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			b.publishChange(change)
		}
	}
}

func (b *Broker) publishChange(c state.Change) {
	s := c.State
	switch c.Kind {
	case state.KindSetTimecode:
		b.PublishTimecode(s.Clock.CurrentTimecode, string(s.Clock.Mode))
		return
	case state.KindSetManualTimecode:
		b.PublishSlice(c.Kind, s.Clock)
		b.PublishTimecode(s.Clock.CurrentTimecode, string(s.Clock.Mode))
		return
	}
	if data, ok := SliceOf(s, c.Kind); ok {
		b.PublishSlice(c.Kind, data)
	}
}

// SliceOf returns the part of s replaced by actions of kind.
func SliceOf(s state.AppState, kind string) (any, bool) {
	switch kind {
	case state.KindSetUser:
		return s.CurrentUser, true
	case state.KindSetParticipants:
		return s.Participants, true
	case state.KindSetLocations:
		return s.Locations, true
	case state.KindSetActionCategories:
		return s.ActionCategories, true
	case state.KindSetTags:
		return s.Tags, true
	case state.KindSetLogEntries:
		return s.LogEntries, true
	case state.KindSetTimecode, state.KindSetManualTimecode:
		return s.Clock, true
	case state.KindSetSelectedParticipants, state.KindSetSelectedLocation,
		state.KindSetSelectedAction, state.KindSetSelectedTags:
		return s.Selection, true
	case state.KindToggleDarkMode:
		return s.DarkMode, true
	case state.KindSetRecording:
		return s.IsRecording, true
	}
	return nil, false
}
