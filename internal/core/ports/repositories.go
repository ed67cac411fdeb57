package ports

import (
	"context"

	"github.com/samirrijal/parkfinder/internal/core/domain"
)

// ParkRepository is the storage contract shared by every park backend.
//
// Operations other than List address parks by park code, never by the
// backend-specific ID. Errors wrap the domain sentinels (ErrNotFound,
// ErrConflict, ErrUnimplemented, ErrTransient).
type ParkRepository interface {
	// List returns every park with its activities, in a stable per-backend order.
	List(ctx context.Context) ([]domain.Park, error)

	// GetByCode returns the park for parkCode or ErrNotFound.
	GetByCode(ctx context.Context, parkCode string) (*domain.Park, error)

	// Create derives the park code, persists the park and all of its
	// activities atomically and returns the stored record.
	Create(ctx context.Context, park *domain.Park) (*domain.Park, error)

	// Update replaces the mutable fields and the whole activity set of the
	// park identified by parkCode. The park code itself never changes.
	Update(ctx context.Context, parkCode string, park *domain.Park) (*domain.Park, error)

	// Delete removes the park and its activities.
	Delete(ctx context.Context, parkCode string) error

	// SearchNearby returns parks within q.RadiusKm of q.Point that have at
	// least one activity matching q.Activity, nearest first.
	SearchNearby(ctx context.Context, q domain.GeoQuery) ([]domain.Park, error)
}
