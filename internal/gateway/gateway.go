// Package gateway is the write path for log entries.
//
// Writes go straight to the remote document store and are not applied to
// the local state: a new or changed entry becomes visible once the sync
// adapter delivers the next snapshot.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/sislog/internal/clock"
	"github.com/starford/sislog/internal/docstore"
	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/observability"
)

// NewLogEntry is a log entry as submitted by an operator. The id, creation
// time and author are assigned by the gateway and the store.
type NewLogEntry struct {
	Timestamp      time.Time
	Timecode       string
	Participants   []string
	Location       string
	ActionCategory string
	Tags           []string
	Notes          string
}

// LogEntryPatch holds the fields to change on an existing entry. Nil
// fields are left as they are.
type LogEntryPatch struct {
	Timecode       *string
	Participants   []string
	Location       *string
	ActionCategory *string
	Tags           []string
	Notes          *string
}

func (p LogEntryPatch) fields() map[string]any {
	out := map[string]any{}
	if p.Timecode != nil {
		out["timecode"] = *p.Timecode
	}
	if p.Participants != nil {
		out["participants"] = p.Participants
	}
	if p.Location != nil {
		out["location"] = *p.Location
	}
	if p.ActionCategory != nil {
		out["actionCategory"] = *p.ActionCategory
	}
	if p.Tags != nil {
		out["tags"] = p.Tags
	}
	if p.Notes != nil {
		out["notes"] = *p.Notes
	}
	return out
}

// Service performs log entry mutations against the document store.
type Service struct {
	docs      docstore.Documents
	clock     clock.Clock
	logger    *slog.Logger
	createdBy string
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for default entry timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithCreatedBy sets the author recorded on new entries.
func WithCreatedBy(userID string) Option {
	return func(s *Service) {
		s.createdBy = userID
	}
}

// NewService creates a gateway over docs.
func NewService(docs docstore.Documents, opts ...Option) *Service {
	s := &Service{
		docs:   docs,
		clock:  clock.Real(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddLogEntry stores a new entry and returns its id. A zero Timestamp is
// replaced with the current time; createdAt is assigned by the store.
func (s *Service) AddLogEntry(ctx context.Context, e NewLogEntry) (string, error) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = s.clock.Now()
	}
	id, err := s.docs.Add(ctx, models.CollectionLogEntries, map[string]any{
		"timestamp":      ts.UTC().Format(time.RFC3339Nano),
		"timecode":       e.Timecode,
		"participants":   nonNil(e.Participants),
		"location":       e.Location,
		"actionCategory": e.ActionCategory,
		"tags":           nonNil(e.Tags),
		"notes":          e.Notes,
		"createdBy":      s.createdBy,
		"createdAt":      docstore.ServerTimestamp,
	})
	observability.RecordGatewayOp("add", err)
	if err != nil {
		return "", fmt.Errorf("gateway: add log entry: %w", err)
	}
	s.logger.Info("gateway: log entry added", slog.String("id", id), slog.String("timecode", e.Timecode))
	return id, nil
}

// UpdateLogEntry merges patch into entry id. It returns apperr.ErrNotFound
// if the entry does not exist. Validating the patch is up to the caller.
func (s *Service) UpdateLogEntry(ctx context.Context, id string, patch LogEntryPatch) error {
	err := s.docs.Update(ctx, models.CollectionLogEntries, id, patch.fields())
	observability.RecordGatewayOp("update", err)
	if err != nil {
		return fmt.Errorf("gateway: update log entry: %w", err)
	}
	s.logger.Info("gateway: log entry updated", slog.String("id", id))
	return nil
}

// DeleteLogEntry removes entry id. Deleting an entry that does not exist
// succeeds.
func (s *Service) DeleteLogEntry(ctx context.Context, id string) error {
	err := s.docs.Delete(ctx, models.CollectionLogEntries, id)
	observability.RecordGatewayOp("delete", err)
	if err != nil {
		return fmt.Errorf("gateway: delete log entry: %w", err)
	}
	s.logger.Info("gateway: log entry deleted", slog.String("id", id))
	return nil
}

// DeleteAllLogEntries deletes every log entry one at a time and returns
// how many were deleted. It is not transactional: on error the entries
// deleted so far stay deleted and the count reflects them.
func (s *Service) DeleteAllLogEntries(ctx context.Context) (int, error) {
	docs, err := s.docs.List(ctx, models.CollectionLogEntries)
	if err != nil {
		observability.RecordGatewayOp("delete_all", err)
		return 0, fmt.Errorf("gateway: list log entries: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	n, err := s.deleteEach(ctx, ids)
	observability.RecordGatewayOp("delete_all", err)
	if err != nil {
		return n, err
	}
	s.logger.Info("gateway: all log entries deleted", slog.Int("count", n))
	return n, nil
}

// DeleteLogEntries deletes the given entries with the same partial
// failure behaviour as DeleteAllLogEntries.
func (s *Service) DeleteLogEntries(ctx context.Context, ids []string) (int, error) {
	n, err := s.deleteEach(ctx, ids)
	observability.RecordGatewayOp("delete_many", err)
	if err != nil {
		return n, err
	}
	s.logger.Info("gateway: log entries deleted", slog.Int("count", n))
	return n, nil
}

func (s *Service) deleteEach(ctx context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return n, fmt.Errorf("gateway: delete log entries: %w", err)
		}
		if err := s.docs.Delete(ctx, models.CollectionLogEntries, id); err != nil {
			s.logger.Warn("gateway: bulk delete stopped",
				slog.String("id", id),
				slog.Int("deleted", n),
				slog.String("error", err.Error()))
			return n, fmt.Errorf("gateway: delete log entry %s: %w", id, err)
		}
		n++
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
