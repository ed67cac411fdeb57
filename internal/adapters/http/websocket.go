package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	natsadapter "github.com/samirrijal/parkfinder/internal/adapters/nats"
	"github.com/samirrijal/parkfinder/internal/core/domain"
	"github.com/samirrijal/parkfinder/internal/pkg/metrics"
)

// EventSource delivers park events for a subject until cancelled.
type EventSource interface {
	SubscribeParkEvents(subject string, handler func(ev *domain.ParkEvent, raw []byte)) (func(), error)
}

// wsMessage is sent from client to subscribe/unsubscribe.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Event  string `json:"event"`  // created | updated | deleted, "" = all
	Cell   string `json:"cell"`   // geohash cell, "" = everywhere
}

// wsSession tracks one client's subscriptions.
type wsSession struct {
	source    EventSource
	writeJSON func(v interface{}) error

	mu   sync.Mutex
	subs map[string]func() // subject -> cancel
}

func newWSSession(source EventSource, writeJSON func(v interface{}) error) *wsSession {
	return &wsSession{source: source, writeJSON: writeJSON, subs: make(map[string]func())}
}

func (s *wsSession) subscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subs[subject]; exists {
		return s.writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
	}
	cancel, err := s.source.SubscribeParkEvents(subject, func(_ *domain.ParkEvent, raw []byte) {
		_ = s.writeJSON(json.RawMessage(raw))
	})
	if err != nil {
		return s.writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
	}
	s.subs[subject] = cancel
	return s.writeJSON(map[string]string{"status": "subscribed", "subject": subject})
}

func (s *wsSession) unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, exists := s.subs[subject]
	if !exists {
		return s.writeJSON(map[string]string{"error": "not subscribed to " + subject})
	}
	cancel()
	delete(s.subs, subject)
	return s.writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
}

// handle processes one client frame.
func (s *wsSession) handle(frame []byte) error {
	var m wsMessage
	if err := json.Unmarshal(frame, &m); err != nil {
		return s.writeJSON(map[string]string{"error": "invalid JSON"})
	}
	if m.Event != "" && !natsadapter.ValidEventType(m.Event) {
		return s.writeJSON(map[string]string{"error": "unknown event: " + m.Event})
	}

	subject := natsadapter.SubjectFilter(m.Event, m.Cell)
	switch m.Action {
	case "subscribe":
		return s.subscribe(subject)
	case "unsubscribe":
		return s.unsubscribe(subject)
	default:
		return s.writeJSON(map[string]string{"error": "unknown action: " + m.Action})
	}
}

func (s *wsSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for subject, cancel := range s.subs {
		cancel()
		delete(s.subs, subject)
	}
}

// WebSocketHandler relays park events to connected clients. Every client is
// subscribed to all events on connect and may narrow or widen the feed with
// {"action":"subscribe","event":"created","cell":"9w2m"}.
func WebSocketHandler(source EventSource) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var writeMu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		session := newWSSession(source, writeJSON)
		defer session.close()

		if err := session.subscribe(natsadapter.AllParkEvents); err != nil {
			slog.Warn("ws default subscribe failed", "remote", remoteAddr, "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					writeMu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					writeMu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, frame, err := c.ReadMessage()
			if err != nil {
				break
			}
			if err := session.handle(frame); err != nil {
				break
			}
		}

		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
