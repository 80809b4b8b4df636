package remotesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sislog/internal/docstore"
	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/state"
	"github.com/starford/sislog/internal/testutil"
)

// fakeSubscriber records handlers so tests can push snapshots by hand.
type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]func(docstore.Snapshot)
	failOn   string
	cancels  int
}

func (f *fakeSubscriber) Subscribe(collection string, fn func(docstore.Snapshot)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if collection == f.failOn {
		return nil, errors.New("boom")
	}
	if f.handlers == nil {
		f.handlers = map[string]func(docstore.Snapshot){}
	}
	f.handlers[collection] = fn
	return func() {
		f.mu.Lock()
		f.cancels++
		f.mu.Unlock()
	}, nil
}

func (f *fakeSubscriber) push(collection string, docs ...docstore.Document) {
	f.mu.Lock()
	fn := f.handlers[collection]
	f.mu.Unlock()
	fn(docstore.Snapshot{Collection: collection, Documents: docs})
}

func TestSnapshotsReplaceSlices(t *testing.T) {
	ctx := context.Background()
	docs := testutil.TestDocStore(t)
	store := testutil.TestStateStore(t)

	require.NoError(t, docs.Set(ctx, models.CollectionParticipants, "p1", map[string]any{"name": "Alex", "isActive": true}))
	require.NoError(t, docs.Set(ctx, models.CollectionTags, "t1", map[string]any{"name": "Conflict"}))

	a := New(docs, store, WithLogger(testutil.Logger()))
	require.NoError(t, a.Start())
	defer a.Stop()

	testutil.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		s := store.Snapshot()
		return len(s.Participants) == 1 && len(s.Tags) == 1
	}, "initial snapshots not applied")
	s := store.Snapshot()
	assert.Equal(t, "Alex", s.Participants[0].Name)
	assert.True(t, s.Participants[0].IsActive)
	assert.False(t, s.Participants[0].CreatedAt.IsZero())

	require.NoError(t, docs.Delete(ctx, models.CollectionParticipants, "p1"))
	require.NoError(t, docs.Set(ctx, models.CollectionParticipants, "p2", map[string]any{"name": "Jordan"}))

	testutil.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		ps := store.Snapshot().Participants
		return len(ps) == 1 && ps[0].ID == "p2"
	}, "participant snapshot not replaced")
}

func TestLogEntryDecoding(t *testing.T) {
	ctx := context.Background()
	docs := testutil.TestDocStore(t)
	store := testutil.TestStateStore(t)

	_, err := docs.Add(ctx, models.CollectionLogEntries, map[string]any{
		"timestamp":    map[string]any{"seconds": 1714564800, "nanoseconds": 0},
		"timecode":     "01:00:00:00",
		"participants": []string{"p1", "p2"},
		"location":     "l1",
		"notes":        "argument in the kitchen",
		"createdAt":    docstore.ServerTimestamp,
	})
	require.NoError(t, err)

	a := New(docs, store, WithLogger(testutil.Logger()))
	require.NoError(t, a.Start())
	defer a.Stop()

	testutil.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return len(store.Snapshot().LogEntries) == 1
	}, "log entries not applied")
	e := store.Snapshot().LogEntries[0]
	assert.Equal(t, []string{"p1", "p2"}, e.Participants)
	assert.Equal(t, "01:00:00:00", e.Timecode)
	assert.Equal(t, time.Unix(1714564800, 0).UTC(), e.Timestamp.UTC())
}

func TestUndecodableDocumentsSkipped(t *testing.T) {
	fs := &fakeSubscriber{}
	store := testutil.TestStateStore(t)
	a := New(fs, store, WithLogger(testutil.Logger()))
	require.NoError(t, a.Start())

	fs.push(models.CollectionTags,
		docstore.Document{ID: "t1", Data: map[string]any{"name": "ok"}},
		docstore.Document{ID: "t2", Data: map[string]any{"name": 42}},
	)

	tags := store.Snapshot().Tags
	require.Len(t, tags, 1)
	assert.Equal(t, "t1", tags[0].ID)
}

func TestEmptySnapshotClears(t *testing.T) {
	fs := &fakeSubscriber{}
	store := testutil.TestStateStore(t)
	a := New(fs, store, WithLogger(testutil.Logger()))
	require.NoError(t, a.Start())

	fs.push(models.CollectionLocations, docstore.Document{ID: "l1", Data: map[string]any{"name": "Kitchen"}})
	require.Len(t, store.Snapshot().Locations, 1)

	fs.push(models.CollectionLocations)
	assert.Empty(t, store.Snapshot().Locations)
}

func TestStopDiscardsLateSnapshots(t *testing.T) {
	fs := &fakeSubscriber{}
	store := testutil.TestStateStore(t)
	a := New(fs, store, WithLogger(testutil.Logger()))
	require.NoError(t, a.Start())

	a.Stop()
	assert.Equal(t, len(models.Collections), fs.cancels)

	fs.push(models.CollectionTags, docstore.Document{ID: "t1", Data: map[string]any{"name": "late"}})
	assert.Empty(t, store.Snapshot().Tags)
}

func TestClosedStoreDropsSnapshot(t *testing.T) {
	fs := &fakeSubscriber{}
	store := state.NewStore(nil, state.WithLogger(testutil.Logger()))
	a := New(fs, store, WithLogger(testutil.Logger()))
	require.NoError(t, a.Start())
	store.Close()

	fs.push(models.CollectionTags, docstore.Document{ID: "t1", Data: map[string]any{"name": "late"}})
	assert.Empty(t, store.Snapshot().Tags)
}

func TestStartFailureRollsBack(t *testing.T) {
	fs := &fakeSubscriber{failOn: models.CollectionTags}
	store := testutil.TestStateStore(t)
	a := New(fs, store, WithLogger(testutil.Logger()))

	err := a.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tags")
	assert.Equal(t, 3, fs.cancels)
}
