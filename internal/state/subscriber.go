package state

import "sync"

// subscriber feeds one Subscribe channel from its own goroutine. Pending
// changes are coalesced by kind: a newer change of a kind already waiting
// replaces it, so a lagging reader still sees the latest state of every
// kind that changed, however many ticks arrived in between.
type subscriber struct {
	ch chan Change

	mu      sync.Mutex
	pending []Change
	signal  chan struct{}

	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

func newSubscriber() *subscriber {
	sub := &subscriber{
		ch:     make(chan Change, 64),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go sub.run()
	return sub
}

func (sub *subscriber) offer(c Change) {
	sub.mu.Lock()
	for i, p := range sub.pending {
		if p.Kind == c.Kind {
			sub.pending = append(sub.pending[:i], sub.pending[i+1:]...)
			break
		}
	}
	sub.pending = append(sub.pending, c)
	sub.mu.Unlock()

	select {
	case sub.signal <- struct{}{}:
	default:
	}
}

// next removes the oldest pending change.
func (sub *subscriber) next() (Change, bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.pending) == 0 {
		return Change{}, false
	}
	c := sub.pending[0]
	sub.pending = sub.pending[1:]
	return c, true
}

func (sub *subscriber) run() {
	defer close(sub.exited)
	defer close(sub.ch)

	for {
		select {
		case <-sub.done:
			return
		case <-sub.signal:
		}
		for {
			c, ok := sub.next()
			if !ok {
				break
			}
			select {
			case sub.ch <- c:
			case <-sub.done:
				return
			}
		}
	}
}

// stop ends delivery and waits until ch is closed.
func (sub *subscriber) stop() {
	sub.once.Do(func() { close(sub.done) })
	<-sub.exited
}
