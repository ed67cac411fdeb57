package http

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/samirrijal/parkfinder/internal/core/domain"
)

type fakeSource struct {
	mu        sync.Mutex
	handlers  map[string]func(ev *domain.ParkEvent, raw []byte)
	cancelled []string
	err       error
}

func newFakeSource() *fakeSource {
	return &fakeSource{handlers: make(map[string]func(ev *domain.ParkEvent, raw []byte))}
}

func (f *fakeSource) SubscribeParkEvents(subject string, handler func(ev *domain.ParkEvent, raw []byte)) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[subject] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, subject)
		f.cancelled = append(f.cancelled, subject)
	}, nil
}

func (f *fakeSource) emit(subject string, raw string) {
	f.mu.Lock()
	h := f.handlers[subject]
	f.mu.Unlock()
	if h != nil {
		h(&domain.ParkEvent{}, []byte(raw))
	}
}

type recorder struct {
	mu     sync.Mutex
	frames []string
}

func (r *recorder) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, string(data))
	return nil
}

func (r *recorder) last() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var m map[string]string
	_ = json.Unmarshal([]byte(r.frames[len(r.frames)-1]), &m)
	return m
}

func TestWSSession_SubscribeFiltered(t *testing.T) {
	src := newFakeSource()
	rec := &recorder{}
	s := newWSSession(src, rec.writeJSON)

	if err := s.handle([]byte(`{"action":"subscribe","event":"created","cell":"9w2m"}`)); err != nil {
		t.Fatal(err)
	}
	if got := rec.last(); got["status"] != "subscribed" || got["subject"] != "parks.created.9w2m" {
		t.Fatalf("unexpected reply: %v", got)
	}

	src.emit("parks.created.9w2m", `{"type":"created","park_code":"grand-canyon-az"}`)
	if got := rec.last(); got["park_code"] != "grand-canyon-az" {
		t.Errorf("event not relayed: %v", got)
	}

	_ = s.handle([]byte(`{"action":"subscribe","event":"created","cell":"9w2m"}`))
	if got := rec.last(); got["status"] != "already subscribed" {
		t.Errorf("expected duplicate notice, got %v", got)
	}
}

func TestWSSession_Unsubscribe(t *testing.T) {
	src := newFakeSource()
	rec := &recorder{}
	s := newWSSession(src, rec.writeJSON)

	_ = s.handle([]byte(`{"action":"subscribe"}`))
	_ = s.handle([]byte(`{"action":"unsubscribe"}`))
	if got := rec.last(); got["status"] != "unsubscribed" || got["subject"] != "parks.>" {
		t.Fatalf("unexpected reply: %v", got)
	}
	if len(src.cancelled) != 1 {
		t.Errorf("expected subscription to be cancelled")
	}

	_ = s.handle([]byte(`{"action":"unsubscribe"}`))
	if got := rec.last(); got["error"] == "" {
		t.Errorf("expected error for unknown subscription, got %v", got)
	}
}

func TestWSSession_BadFrames(t *testing.T) {
	src := newFakeSource()
	rec := &recorder{}
	s := newWSSession(src, rec.writeJSON)

	for _, frame := range []string{
		`not json`,
		`{"action":"subscribe","event":"moved"}`,
		`{"action":"dance"}`,
	} {
		if err := s.handle([]byte(frame)); err != nil {
			t.Fatal(err)
		}
		if got := rec.last(); got["error"] == "" {
			t.Errorf("%s: expected error reply, got %v", frame, got)
		}
	}
}

func TestWSSession_SubscribeFailure(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("nats down")
	rec := &recorder{}
	s := newWSSession(src, rec.writeJSON)

	_ = s.handle([]byte(`{"action":"subscribe"}`))
	if got := rec.last(); got["error"] == "" {
		t.Errorf("expected error reply, got %v", got)
	}
}

func TestWSSession_CloseCancelsAll(t *testing.T) {
	src := newFakeSource()
	rec := &recorder{}
	s := newWSSession(src, rec.writeJSON)

	_ = s.handle([]byte(`{"action":"subscribe","event":"created"}`))
	_ = s.handle([]byte(`{"action":"subscribe","event":"deleted"}`))
	s.close()

	if len(src.cancelled) != 2 {
		t.Errorf("expected 2 cancelled subscriptions, got %d", len(src.cancelled))
	}
}
