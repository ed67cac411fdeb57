package natsadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/parkfinder/internal/core/domain"
)

// Subscriber delivers park events from core NATS subscriptions. Messages
// published to JetStream are also seen by plain subscribers, so live relays
// need no consumer state.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber wraps an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribeParkEvents calls handler for every event on subject until the
// returned cancel func is called. Undecodable messages are skipped.
func (s *Subscriber) SubscribeParkEvents(subject string, handler func(ev *domain.ParkEvent, raw []byte)) (func(), error) {
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		var ev domain.ParkEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("dropping malformed park event", "subject", msg.Subject, "error", err)
			return
		}
		handler(&ev, msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
