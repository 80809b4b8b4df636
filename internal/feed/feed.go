// Package feed answers activity feed queries over a state snapshot.
package feed

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/state"
)

// Placeholders used by Resolve.
const (
	Unknown = "Unknown"
	None    = "None"
)

// Filter selects log entries. Zero fields match everything.
type Filter struct {
	// Search matches notes or any participant name, case-insensitively.
	Search      string
	Participant string
	Location    string
	From        time.Time
	To          time.Time
}

// Query returns the entries of s that match f, newest first by timestamp.
func Query(s state.AppState, f Filter) []models.LogEntry {
	names := make(map[string]string, len(s.Participants))
	for _, p := range s.Participants {
		names[p.ID] = strings.ToLower(p.Name)
	}
	search := strings.ToLower(f.Search)

	out := make([]models.LogEntry, 0, len(s.LogEntries))
	for _, e := range s.LogEntries {
		if search != "" && !matchesSearch(e, search, names) {
			continue
		}
		if f.Participant != "" && !slices.Contains(e.Participants, f.Participant) {
			continue
		}
		if f.Location != "" && e.Location != f.Location {
			continue
		}
		if !f.From.IsZero() && e.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Timestamp.After(f.To) {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b models.LogEntry) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})
	return out
}

func matchesSearch(e models.LogEntry, search string, names map[string]string) bool {
	if strings.Contains(strings.ToLower(e.Notes), search) {
		return true
	}
	for _, id := range e.Participants {
		if name, ok := names[id]; ok && strings.Contains(name, search) {
			return true
		}
	}
	return false
}

// Row is a log entry with its references replaced by display names.
type Row struct {
	ID             string           `json:"id"`
	Timestamp      models.Timestamp `json:"timestamp"`
	Timecode       string           `json:"timecode"`
	Participants   string           `json:"participants"`
	Location       string           `json:"location"`
	ActionCategory string           `json:"actionCategory"`
	Tags           string           `json:"tags"`
	Notes          string           `json:"notes"`
	CreatedBy      string           `json:"createdBy"`
}

// Resolve turns the ids in e into names from s. A single reference that
// does not resolve reads Unknown; unresolved members of a set are dropped
// and an empty set reads None.
func Resolve(s state.AppState, e models.LogEntry) Row {
	return Row{
		ID:             e.ID,
		Timestamp:      e.Timestamp,
		Timecode:       e.Timecode,
		Participants:   joinNames(e.Participants, s.Participants, func(p models.Participant) (string, string) { return p.ID, p.Name }),
		Location:       lookup(e.Location, s.Locations, func(l models.Location) (string, string) { return l.ID, l.Name }),
		ActionCategory: lookup(e.ActionCategory, s.ActionCategories, func(a models.ActionCategory) (string, string) { return a.ID, a.Name }),
		Tags:           joinNames(e.Tags, s.Tags, func(t models.Tag) (string, string) { return t.ID, t.Name }),
		Notes:          e.Notes,
		CreatedBy:      e.CreatedBy,
	}
}

func lookup[T any](id string, items []T, key func(T) (string, string)) string {
	for _, it := range items {
		if itemID, name := key(it); itemID == id {
			return name
		}
	}
	return Unknown
}

func joinNames[T any](ids []string, items []T, key func(T) (string, string)) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name := lookup(id, items, key); name != Unknown {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return None
	}
	return strings.Join(names, ", ")
}
