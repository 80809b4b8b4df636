package docstore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/sislog/internal/clock"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT    NOT NULL,
	id         TEXT    NOT NULL,
	data       TEXT    NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, created_at);
`

// Store is a SQLite-backed document store with live collection subscriptions.
type Store struct {
	conn     *sql.DB
	path     string
	clock    clock.Clock
	logger   *slog.Logger
	newID    func() string
	debounce time.Duration

	subscribeCh   chan *subscription
	unsubscribeCh chan *subscription
	changedCh     chan string

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for document timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithIDGenerator replaces the UUIDv7 document id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithWatchDebounce sets how long Watch waits for database file activity
// to settle before rescanning.
func WithWatchDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.debounce = d
	}
}

// Open opens (or creates) the database at path, applies the schema and
// starts the subscription loop.
func Open(path string, opts ...Option) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("docstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: apply schema: %w", err)
	}

	s := &Store{
		conn:          conn,
		path:          path,
		clock:         clock.Real(),
		logger:        slog.Default(),
		newID:         func() string { return uuid.Must(uuid.NewV7()).String() },
		debounce:      100 * time.Millisecond,
		subscribeCh:   make(chan *subscription),
		unsubscribeCh: make(chan *subscription),
		changedCh:     make(chan string, 256),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.run()
	return s, nil
}

// Close stops every subscription and closes the database.
func (s *Store) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	<-s.stopped
	return s.conn.Close()
}
