package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/parkfinder/internal/core/domain"
	"github.com/samirrijal/parkfinder/internal/core/ports"
	"github.com/samirrijal/parkfinder/internal/pkg/geospatial"
	"github.com/samirrijal/parkfinder/internal/pkg/metrics"
	"github.com/samirrijal/parkfinder/internal/pkg/telemetry"
)

// MaxSearchRadiusKm bounds geo searches to roughly half the Earth's circumference.
const MaxSearchRadiusKm = 20000.0

// ParkService is the caller layer in front of a ParkRepository. It validates
// input, routes activity-less searches to List and publishes change events.
type ParkService struct {
	parks  ports.ParkRepository
	events ports.EventPublisher
	now    func() time.Time
}

// NewParkService creates a new ParkService. events may be nil.
func NewParkService(parks ports.ParkRepository, events ports.EventPublisher) *ParkService {
	return &ParkService{parks: parks, events: events, now: time.Now}
}

// List returns every park.
func (s *ParkService) List(ctx context.Context) (parks []domain.Park, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ParkService.List")
	defer func() { telemetry.End(span, err) }()
	start := time.Now()
	defer func() { metrics.ObserveRepo("list", start, err) }()

	parks, err = s.parks.List(ctx)
	span.SetAttributes(attribute.Int("park.count", len(parks)))
	return parks, err
}

// Get returns a single park by code.
func (s *ParkService) Get(ctx context.Context, parkCode string) (park *domain.Park, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ParkService.Get")
	span.SetAttributes(attribute.String("park.code", parkCode))
	defer func() { telemetry.End(span, err) }()
	start := time.Now()
	defer func() { metrics.ObserveRepo("get", start, err) }()

	if strings.TrimSpace(parkCode) == "" {
		return nil, fmt.Errorf("%w: park code is required", domain.ErrValidation)
	}
	return s.parks.GetByCode(ctx, parkCode)
}

// Create validates and stores a new park.
func (s *ParkService) Create(ctx context.Context, park *domain.Park) (created *domain.Park, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ParkService.Create")
	defer func() { telemetry.End(span, err) }()
	start := time.Now()
	defer func() { metrics.ObserveRepo("create", start, err) }()

	if err := validatePark(park); err != nil {
		return nil, err
	}
	if code := domain.DeriveParkCode(park.Name, park.StateCode); domain.IsDegenerateParkCode(code) {
		return nil, fmt.Errorf("%w: name and state code yield an unusable park code %q", domain.ErrValidation, code)
	}

	created, err = s.parks.Create(ctx, park)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("park.code", created.ParkCode))
	s.publish(ctx, domain.ParkCreated, created)
	return created, nil
}

// Update replaces a park's fields and activities. The park code is kept.
func (s *ParkService) Update(ctx context.Context, parkCode string, park *domain.Park) (updated *domain.Park, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ParkService.Update")
	span.SetAttributes(attribute.String("park.code", parkCode))
	defer func() { telemetry.End(span, err) }()
	start := time.Now()
	defer func() { metrics.ObserveRepo("update", start, err) }()

	if strings.TrimSpace(parkCode) == "" {
		return nil, fmt.Errorf("%w: park code is required", domain.ErrValidation)
	}
	if err := validatePark(park); err != nil {
		return nil, err
	}

	updated, err = s.parks.Update(ctx, parkCode, park)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.ParkUpdated, updated)
	return updated, nil
}

// Delete removes a park. When events are enabled the park is read first so
// the event can carry its location.
func (s *ParkService) Delete(ctx context.Context, parkCode string) (err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ParkService.Delete")
	span.SetAttributes(attribute.String("park.code", parkCode))
	defer func() { telemetry.End(span, err) }()
	start := time.Now()
	defer func() { metrics.ObserveRepo("delete", start, err) }()

	if strings.TrimSpace(parkCode) == "" {
		return fmt.Errorf("%w: park code is required", domain.ErrValidation)
	}

	var existing *domain.Park
	if s.events != nil {
		existing, err = s.parks.GetByCode(ctx, parkCode)
		if err != nil {
			return err
		}
	}

	if err = s.parks.Delete(ctx, parkCode); err != nil {
		return err
	}
	if existing != nil {
		s.publish(ctx, domain.ParkDeleted, existing)
	}
	return nil
}

// Search returns parks near (lat, lon) offering activity, nearest first.
// An empty activity returns every park via List. radiusKm <= 0 uses
// domain.DefaultSearchRadiusKm.
func (s *ParkService) Search(ctx context.Context, lat, lon float64, activity string, radiusKm float64) (parks []domain.Park, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ParkService.Search")
	defer func() { telemetry.End(span, err) }()

	activity = strings.TrimSpace(activity)
	if activity == "" {
		return s.List(ctx)
	}

	start := time.Now()
	defer func() { metrics.ObserveRepo("search", start, err) }()

	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return nil, fmt.Errorf("%w: radius must be a finite number of km", domain.ErrValidation)
	}
	if radiusKm <= 0 {
		radiusKm = domain.DefaultSearchRadiusKm
	}
	span.SetAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lon", lon),
		attribute.Float64("geo.radius_km", radiusKm),
		attribute.String("activity", activity),
	)

	if !geospatial.ValidCoordinate(lat, lon) {
		return nil, fmt.Errorf("%w: invalid coordinate (%v, %v)", domain.ErrValidation, lat, lon)
	}
	if radiusKm > MaxSearchRadiusKm {
		return nil, fmt.Errorf("%w: radius must not exceed %v km", domain.ErrValidation, MaxSearchRadiusKm)
	}

	parks, err = s.parks.SearchNearby(ctx, domain.GeoQuery{
		Point:    domain.GeoPoint{Lat: lat, Lon: lon},
		Activity: activity,
		RadiusKm: radiusKm,
	})
	if err != nil {
		return nil, err
	}
	metrics.SearchResults.Observe(float64(len(parks)))
	return parks, nil
}

// publish hands the event to the broker. Failures are logged and swallowed:
// the write has already been committed.
func (s *ParkService) publish(ctx context.Context, typ domain.ParkEventType, park *domain.Park) {
	if s.events == nil {
		return
	}
	event := &domain.ParkEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		ParkCode:   park.ParkCode,
		Park:       park.Clone(),
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishParkEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish park event failed",
			"type", typ, "park_code", park.ParkCode, "error", err)
	}
}

func validatePark(park *domain.Park) error {
	if park == nil {
		return fmt.Errorf("%w: park is required", domain.ErrValidation)
	}
	var problems []string
	if strings.TrimSpace(park.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(park.StateCode) == "" {
		problems = append(problems, "state code is required")
	}
	if !geospatial.ValidCoordinate(park.Latitude, park.Longitude) {
		problems = append(problems, fmt.Sprintf("invalid coordinate (%v, %v)", park.Latitude, park.Longitude))
	}
	for i, a := range park.Activities {
		if strings.TrimSpace(a.Name) == "" {
			problems = append(problems, fmt.Sprintf("activity %d: name is required", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
