// Package sse implements a Server-Sent Events broker that pushes state
// changes to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/sislog/internal/clock"
)

// Event types.
const (
	TypeStateChanged = "state.changed"
	TypeTimecode     = "clock.timecode"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SliceChange is the payload of a state.changed event.
type SliceChange struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// TimecodeUpdate is the payload of a clock.timecode event.
type TimecodeUpdate struct {
	Timecode string `json:"timecode"`
	Mode     string `json:"mode"`
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the clients and the timecode throttle
// state. Public methods communicate with it through channels.
type Broker struct {
	timecodeMin time.Duration
	heartbeat   time.Duration
	clock       clock.Clock

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	timecodeCh    chan TimecodeUpdate
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// Option configures a Broker.
type Option func(*Broker)

// WithClock sets the clock used for timecode throttling.
func WithClock(c clock.Clock) Option {
	return func(b *Broker) {
		b.clock = c
	}
}

// WithHeartbeat sets how often an idle stream receives a comment line.
// Zero disables heartbeats.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) {
		b.heartbeat = d
	}
}

// NewBroker creates a broker that forwards at most one timecode event per
// timecodeThrottle.
func NewBroker(timecodeThrottle time.Duration, opts ...Option) *Broker {
	if timecodeThrottle <= 0 {
		timecodeThrottle = 250 * time.Millisecond
	}

	b := &Broker{
		timecodeMin:   timecodeThrottle,
		heartbeat:     15 * time.Second,
		clock:         clock.Real(),
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		timecodeCh:    make(chan TimecodeUpdate, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var seq uint64
	var lastTimecode time.Time
	var lastSent TimecodeUpdate

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case tc := <-b.timecodeCh:
			if len(clients) == 0 {
				continue
			}
			now := b.clock.Now()
			modeChanged := tc.Mode != lastSent.Mode
			if !modeChanged && (tc == lastSent || now.Sub(lastTimecode) < b.timecodeMin) {
				continue
			}
			lastTimecode = now
			lastSent = tc
			broadcast(Event{Type: TypeTimecode, Data: tc})

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishSlice announces that the state slice changed by action kind now
// holds data.
func (b *Broker) PublishSlice(kind string, data any) {
	b.Publish(Event{Type: TypeStateChanged, Data: SliceChange{Kind: kind, Data: data}})
}

// PublishTimecode offers the current timecode. It is forwarded when the
// throttle interval has passed and the value differs from the last one
// sent, or immediately when the mode changed.
func (b *Broker) PublishTimecode(timecode, mode string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.timecodeCh <- TimecodeUpdate{Timecode: timecode, Mode: mode}:
	case <-b.stopped:
	default:
		// Queue full; a later tick carries a newer value.
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var heartbeat <-chan time.Time
	if b.heartbeat > 0 {
		ticker := b.clock.NewTicker(b.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
