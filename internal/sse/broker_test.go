package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/sislog/internal/clock"
	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/state"
)

func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func countType(msgs []string, typ string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m, "\nevent: "+typ+"\n") {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishSliceDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishSlice(state.KindSetTags, []models.Tag{{ID: "t1", Name: "Drama"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: state.changed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"kind":"SET_TAGS"`) || !strings.Contains(s, `"name":"Drama"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishTimecode_Throttle(t *testing.T) {
	fc := clock.Fake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	b := NewBroker(250*time.Millisecond, WithClock(fc))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First value goes out, the next ones inside the window do not.
	b.PublishTimecode("12:00:00:00", "AUTO")
	b.PublishTimecode("12:00:00:01", "AUTO")
	b.PublishTimecode("12:00:00:02", "AUTO")
	if n := countType(drain(ch), TypeTimecode); n != 1 {
		t.Fatalf("timecode events = %d, want 1", n)
	}

	fc.Advance(300 * time.Millisecond)
	b.PublishTimecode("12:00:00:09", "AUTO")
	if n := countType(drain(ch), TypeTimecode); n != 1 {
		t.Fatalf("timecode events after window = %d, want 1", n)
	}

	// A mode switch bypasses the throttle.
	b.PublishTimecode("01:00:00:00", "MANUAL")
	msgs := drain(ch)
	if countType(msgs, TypeTimecode) != 1 || !strings.Contains(msgs[0], `"mode":"MANUAL"`) {
		t.Fatalf("mode change not forwarded: %q", msgs)
	}
}

func TestPublishTimecode_NoClients(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	// Offered while nobody listens; must not consume the throttle window.
	b.PublishTimecode("12:00:00:00", "AUTO")
	time.Sleep(20 * time.Millisecond)

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	b.PublishTimecode("12:00:00:01", "AUTO")
	if n := countType(drain(ch), TypeTimecode); n != 1 {
		t.Fatalf("timecode events = %d, want 1", n)
	}
}

func TestForward(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	store := state.NewStore(nil)
	defer store.Close()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Forward(ctx, store)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)

	_ = store.Dispatch(state.SetParticipants{Participants: []models.Participant{{ID: "p1", Name: "Alex"}}})
	_ = store.Dispatch(state.SetTimecode{Timecode: "10:00:00:00"})
	_ = store.Dispatch(state.SetTimecode{Timecode: "10:00:00:01"})
	_ = store.Dispatch(state.ToggleDarkMode{})

	msgs := drain(ch)
	if n := countType(msgs, TypeStateChanged); n != 2 {
		t.Errorf("state.changed events = %d, want 2: %q", n, msgs)
	}
	if n := countType(msgs, TypeTimecode); n != 1 {
		t.Errorf("timecode events = %d, want 1: %q", n, msgs)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Forward did not return after cancel")
	}
}

func TestSliceOf(t *testing.T) {
	s := state.Initial(true)
	s.IsRecording = true
	if v, ok := SliceOf(s, state.KindToggleDarkMode); !ok || v != true {
		t.Errorf("dark mode slice = %v, %v", v, ok)
	}
	if v, ok := SliceOf(s, state.KindSetRecording); !ok || v != true {
		t.Errorf("recording slice = %v, %v", v, ok)
	}
	if _, ok := SliceOf(s, "NOPE"); ok {
		t.Error("unknown kind should have no slice")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishSlice(state.KindSetRecording, true)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: state.changed") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestEventIDsIncrease(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishSlice(state.KindSetTags, nil)
	b.PublishSlice(state.KindSetLocations, nil)

	msgs := drain(ch)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if !strings.HasPrefix(msgs[0], "id: 1\n") || !strings.HasPrefix(msgs[1], "id: 2\n") {
		t.Errorf("unexpected ids: %q", msgs)
	}
}

// syncRecorder guards the body so the test can read it while the handler
// is still writing.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func TestSSEHandler_Heartbeat(t *testing.T) {
	fc := clock.Fake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	b := NewBroker(time.Second, WithClock(fc), WithHeartbeat(10*time.Second))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	fc.WaitForTickers(1)
	fc.Advance(10 * time.Second)

	deadline := time.Now().Add(time.Second)
	for !strings.Contains(w.body(), ": ping\n\n") {
		if time.Now().After(deadline) {
			t.Fatalf("no heartbeat in %q", w.body())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
	if fc.ActiveTickers() != 0 {
		t.Error("heartbeat ticker not stopped after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.PublishSlice(state.KindSetTags, nil)
	b.PublishTimecode("00:00:00:00", "AUTO")
}
