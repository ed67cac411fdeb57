package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/parkfinder/internal/core/domain"
	"github.com/samirrijal/parkfinder/internal/core/usecases"
	"github.com/samirrijal/parkfinder/internal/pkg/metrics"
)

// Application error types understood by ImportParkWorkflow.
const (
	ErrTypeConflict   = "Conflict"
	ErrTypeValidation = "Validation"
	ErrTypeNotFound   = "NotFound"
)

// ImportActivities holds the activity implementations for the import workflow.
type ImportActivities struct {
	Parks *usecases.ParkService
}

// CreatePark stores a new park.
func (a *ImportActivities) CreatePark(ctx context.Context, park domain.Park) (*domain.Park, error) {
	activity.GetLogger(ctx).Info("creating park", "name", park.Name, "state_code", park.StateCode)
	created, err := a.Parks.Create(ctx, &park)
	if err != nil {
		return nil, toApplicationError(err)
	}
	return created, nil
}

// UpdatePark replaces an existing park.
func (a *ImportActivities) UpdatePark(ctx context.Context, parkCode string, park domain.Park) (*domain.Park, error) {
	activity.GetLogger(ctx).Info("updating park", "park_code", parkCode)
	updated, err := a.Parks.Update(ctx, parkCode, &park)
	if err != nil {
		return nil, toApplicationError(err)
	}
	return updated, nil
}

// RecordImport counts one import outcome.
func (a *ImportActivities) RecordImport(ctx context.Context, outcome string) error {
	metrics.ParksImported.WithLabelValues(outcome).Inc()
	return nil
}

// toApplicationError marks errors that retrying cannot fix as non-retryable.
func toApplicationError(err error) error {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeConflict, err)
	case errors.Is(err, domain.ErrValidation):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, err)
	case errors.Is(err, domain.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err)
	case errors.Is(err, domain.ErrUnimplemented):
		return temporal.NewNonRetryableApplicationError(err.Error(), "Unimplemented", err)
	default:
		return err
	}
}
