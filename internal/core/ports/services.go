package ports

import (
	"context"

	"github.com/samirrijal/parkfinder/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishParkEvent(ctx context.Context, event *domain.ParkEvent) error
}
