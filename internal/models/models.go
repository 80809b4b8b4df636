// Package models defines the records mirrored from the remote document store.
package models

// Collection names in the remote document store.
const (
	CollectionParticipants     = "participants"
	CollectionLocations        = "locations"
	CollectionActionCategories = "actionCategories"
	CollectionTags             = "tags"
	CollectionLogEntries       = "logEntries"
)

// Collections lists every synchronized collection.
var Collections = []string{
	CollectionParticipants,
	CollectionLocations,
	CollectionActionCategories,
	CollectionTags,
	CollectionLogEntries,
}

// Participant is a person being followed by the production crew.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	IsActive  bool      `json:"isActive"`
	Color     string    `json:"color,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Location is a place on set.
type Location struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// ActionCategory classifies what happened in a log entry.
type ActionCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// Tag is a free label attached to log entries.
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// LogEntry is one timestamped production event.
//
// Participant, location, action category and tag ids are not checked
// against the reference collections; readers resolve dangling ids as unknown.
type LogEntry struct {
	ID             string    `json:"id"`
	Timestamp      Timestamp `json:"timestamp"`
	Timecode       string    `json:"timecode"`
	Participants   []string  `json:"participants"`
	Location       string    `json:"location"`
	ActionCategory string    `json:"actionCategory"`
	Tags           []string  `json:"tags"`
	Notes          string    `json:"notes"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      Timestamp `json:"createdAt"`
}

// User is the operator the process logs as.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// User roles.
const (
	RoleAdmin  = "admin"
	RoleLogger = "logger"
	RoleViewer = "viewer"
)

// CanEdit reports whether the user may modify log entries.
func (u *User) CanEdit() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleLogger)
}
