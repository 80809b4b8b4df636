package docstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/sislog/internal/apperr"
	"github.com/starford/sislog/internal/checksum"
)

// subscription hands snapshots to fn on its own goroutine. It holds at
// most one undelivered snapshot: a newer one replaces it, so a slow
// consumer skips straight to the latest membership.
type subscription struct {
	collection string
	fn         func(Snapshot)

	mu      sync.Mutex
	pending *Snapshot
	signal  chan struct{}

	done     chan struct{}
	stopOnce sync.Once

	// sum is the digest of the last snapshot offered. Owned by Store.run.
	sum string
}

func newSubscription(collection string, fn func(Snapshot)) *subscription {
	return &subscription{
		collection: collection,
		fn:         fn,
		signal:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (sub *subscription) offer(snap Snapshot) {
	sub.mu.Lock()
	sub.pending = &snap
	sub.mu.Unlock()
	select {
	case sub.signal <- struct{}{}:
	default:
	}
}

func (sub *subscription) run() {
	for {
		select {
		case <-sub.done:
			return
		case <-sub.signal:
			sub.mu.Lock()
			snap := sub.pending
			sub.pending = nil
			sub.mu.Unlock()
			if snap == nil {
				continue
			}
			select {
			case <-sub.done:
				return
			default:
			}
			sub.fn(*snap)
		}
	}
}

func (sub *subscription) stop() {
	sub.stopOnce.Do(func() { close(sub.done) })
}

// Subscribe registers fn for collection. fn is called with the current
// snapshot and then with a fresh full snapshot after every change. Calls
// for one subscription never overlap. The returned function cancels the
// subscription; it is safe to call more than once.
func (s *Store) Subscribe(collection string, fn func(Snapshot)) (func(), error) {
	if s.closed.Load() {
		return nil, apperr.ErrClosed
	}
	sub := newSubscription(collection, fn)
	go sub.run()

	select {
	case s.subscribeCh <- sub:
	case <-s.stopped:
		sub.stop()
		return nil, apperr.ErrClosed
	}

	unsubscribe := func() {
		sub.stop()
		if s.closed.Load() {
			return
		}
		select {
		case s.unsubscribeCh <- sub:
		case <-s.stopped:
		}
	}
	return unsubscribe, nil
}

// notify schedules delivery of collection to its subscribers. An empty
// name rescans every subscribed collection.
func (s *Store) notify(collection string) {
	if s.closed.Load() {
		return
	}
	select {
	case s.changedCh <- collection:
	case <-s.stopped:
	}
}

// run is the subscription loop. It alone owns the subscriber registry and
// each subscription's digest of the last snapshot it was offered.
func (s *Store) run() {
	defer close(s.stopped)

	subs := make(map[string]map[*subscription]struct{})

	publish := func(collection string) {
		members := subs[collection]
		if len(members) == 0 {
			return
		}
		snap, sum, err := s.readSnapshot(collection)
		if err != nil {
			s.logger.Warn("docstore: snapshot failed",
				slog.String("collection", collection),
				slog.String("error", err.Error()))
			return
		}
		for sub := range members {
			if sub.sum == sum {
				continue
			}
			sub.sum = sum
			sub.offer(snap)
		}
	}

	for {
		select {
		case <-s.stopCh:
			for _, members := range subs {
				for sub := range members {
					sub.stop()
				}
			}
			return

		case sub := <-s.subscribeCh:
			if subs[sub.collection] == nil {
				subs[sub.collection] = make(map[*subscription]struct{})
			}
			subs[sub.collection][sub] = struct{}{}
			snap, sum, err := s.readSnapshot(sub.collection)
			if err != nil {
				s.logger.Warn("docstore: initial snapshot failed",
					slog.String("collection", sub.collection),
					slog.String("error", err.Error()))
				continue
			}
			sub.sum = sum
			sub.offer(snap)

		case sub := <-s.unsubscribeCh:
			if members, ok := subs[sub.collection]; ok {
				delete(members, sub)
				if len(members) == 0 {
					delete(subs, sub.collection)
				}
			}

		case collection := <-s.changedCh:
			if collection != "" {
				publish(collection)
				continue
			}
			for c := range subs {
				publish(c)
			}
		}
	}
}

func (s *Store) readSnapshot(collection string) (Snapshot, string, error) {
	docs, err := s.list(context.Background(), collection)
	if err != nil {
		return Snapshot{}, "", err
	}
	sum, err := checksum.SumJSON(docs)
	if err != nil {
		return Snapshot{}, "", err
	}
	return Snapshot{
		Collection: collection,
		Documents:  docs,
		ReadTime:   s.clock.Now(),
	}, sum, nil
}
