package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/parkfinder/internal/core/domain"
	"github.com/samirrijal/parkfinder/internal/core/usecases"
)

// --- Mock ParkRepository ---

type mockParkRepo struct {
	listFn         func(ctx context.Context) ([]domain.Park, error)
	getByCodeFn    func(ctx context.Context, parkCode string) (*domain.Park, error)
	createFn       func(ctx context.Context, park *domain.Park) (*domain.Park, error)
	updateFn       func(ctx context.Context, parkCode string, park *domain.Park) (*domain.Park, error)
	deleteFn       func(ctx context.Context, parkCode string) error
	searchNearbyFn func(ctx context.Context, q domain.GeoQuery) ([]domain.Park, error)
}

func (m *mockParkRepo) List(ctx context.Context) ([]domain.Park, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockParkRepo) GetByCode(ctx context.Context, parkCode string) (*domain.Park, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, parkCode)
	}
	return nil, domain.ErrNotFound
}

func (m *mockParkRepo) Create(ctx context.Context, park *domain.Park) (*domain.Park, error) {
	if m.createFn != nil {
		return m.createFn(ctx, park)
	}
	stored := park.Clone()
	stored.ParkCode = domain.DeriveParkCode(park.Name, park.StateCode)
	stored.ID = "1"
	return stored, nil
}

func (m *mockParkRepo) Update(ctx context.Context, parkCode string, park *domain.Park) (*domain.Park, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, parkCode, park)
	}
	stored := park.Clone()
	stored.ParkCode = parkCode
	return stored, nil
}

func (m *mockParkRepo) Delete(ctx context.Context, parkCode string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, parkCode)
	}
	return nil
}

func (m *mockParkRepo) SearchNearby(ctx context.Context, q domain.GeoQuery) ([]domain.Park, error) {
	if m.searchNearbyFn != nil {
		return m.searchNearbyFn(ctx, q)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []*domain.ParkEvent
	err    error
}

func (m *mockPublisher) PublishParkEvent(ctx context.Context, event *domain.ParkEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func grandCanyon() *domain.Park {
	return &domain.Park{
		Name:       "Grand Canyon",
		StateCode:  "AZ",
		Latitude:   36.1,
		Longitude:  -112.1,
		Activities: []domain.Activity{{Name: "Hiking", Description: "trails"}},
	}
}

// --- Tests ---

func TestParkService_Create(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewParkService(&mockParkRepo{}, pub)

	park, err := svc.Create(context.Background(), grandCanyon())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if park.ParkCode != "grand-canyon-az" {
		t.Errorf("expected grand-canyon-az, got %s", park.ParkCode)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != domain.ParkCreated || ev.ParkCode != "grand-canyon-az" || ev.ID == "" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.OccurredAt.IsZero() {
		t.Error("event must carry a timestamp")
	}
	if ev.Park == park {
		t.Error("event must not alias the returned park")
	}
}

func TestParkService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *domain.Park)
	}{
		{"missing name", func(p *domain.Park) { p.Name = "  " }},
		{"missing state", func(p *domain.Park) { p.StateCode = "" }},
		{"latitude out of range", func(p *domain.Park) { p.Latitude = 91 }},
		{"longitude out of range", func(p *domain.Park) { p.Longitude = -181 }},
		{"unnamed activity", func(p *domain.Park) { p.Activities = append(p.Activities, domain.Activity{}) }},
		{"degenerate code", func(p *domain.Park) { p.Name = "!!!" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			repo := &mockParkRepo{
				createFn: func(ctx context.Context, park *domain.Park) (*domain.Park, error) {
					called = true
					return park, nil
				},
			}
			pub := &mockPublisher{}
			svc := usecases.NewParkService(repo, pub)

			p := grandCanyon()
			tt.mutate(p)
			_, err := svc.Create(context.Background(), p)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if called {
				t.Error("repository must not be called on invalid input")
			}
			if len(pub.events) != 0 {
				t.Error("no event expected on validation failure")
			}
		})
	}
}

func TestParkService_Create_ConflictPublishesNothing(t *testing.T) {
	repo := &mockParkRepo{
		createFn: func(ctx context.Context, park *domain.Park) (*domain.Park, error) {
			return nil, domain.ErrConflict
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewParkService(repo, pub)

	if _, err := svc.Create(context.Background(), grandCanyon()); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no events, got %d", len(pub.events))
	}
}

func TestParkService_Create_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := usecases.NewParkService(&mockParkRepo{}, pub)

	if _, err := svc.Create(context.Background(), grandCanyon()); err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}
}

func TestParkService_Update(t *testing.T) {
	var gotCode string
	repo := &mockParkRepo{
		updateFn: func(ctx context.Context, parkCode string, park *domain.Park) (*domain.Park, error) {
			gotCode = parkCode
			stored := park.Clone()
			stored.ParkCode = parkCode
			return stored, nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewParkService(repo, pub)

	p := grandCanyon()
	p.Name = "Grand Canyon National Park"
	updated, err := svc.Update(context.Background(), "grand-canyon-az", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotCode != "grand-canyon-az" || updated.ParkCode != "grand-canyon-az" {
		t.Errorf("park code must be kept, got %q / %q", gotCode, updated.ParkCode)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.ParkUpdated {
		t.Errorf("expected one updated event, got %+v", pub.events)
	}

	if _, err := svc.Update(context.Background(), "", p); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty code: expected ErrValidation, got %v", err)
	}
}

func TestParkService_Delete(t *testing.T) {
	var deleted string
	repo := &mockParkRepo{
		getByCodeFn: func(ctx context.Context, parkCode string) (*domain.Park, error) {
			p := grandCanyon()
			p.ParkCode = parkCode
			return p, nil
		},
		deleteFn: func(ctx context.Context, parkCode string) error {
			deleted = parkCode
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewParkService(repo, pub)

	if err := svc.Delete(context.Background(), "grand-canyon-az"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "grand-canyon-az" {
		t.Errorf("expected delete of grand-canyon-az, got %q", deleted)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	if ev := pub.events[0]; ev.Type != domain.ParkDeleted || ev.Park == nil || ev.Park.Latitude != 36.1 {
		t.Errorf("deleted event must carry the removed park: %+v", ev)
	}
}

func TestParkService_Delete_NotFound(t *testing.T) {
	deleteCalled := false
	repo := &mockParkRepo{
		deleteFn: func(ctx context.Context, parkCode string) error {
			deleteCalled = true
			return domain.ErrNotFound
		},
	}

	// Without a publisher the repository reports the missing park itself.
	svc := usecases.NewParkService(repo, nil)
	if err := svc.Delete(context.Background(), "nope-xx"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !deleteCalled {
		t.Error("expected repository delete")
	}

	// With a publisher the lookup fails first.
	deleteCalled = false
	pub := &mockPublisher{}
	svc = usecases.NewParkService(repo, pub)
	if err := svc.Delete(context.Background(), "nope-xx"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if deleteCalled {
		t.Error("delete must not run when the park does not exist")
	}
	if len(pub.events) != 0 {
		t.Error("no event expected")
	}
}

func TestParkService_Search(t *testing.T) {
	var got domain.GeoQuery
	repo := &mockParkRepo{
		searchNearbyFn: func(ctx context.Context, q domain.GeoQuery) ([]domain.Park, error) {
			got = q
			return []domain.Park{*grandCanyon()}, nil
		},
	}
	svc := usecases.NewParkService(repo, nil)

	parks, err := svc.Search(context.Background(), 36.0, -112.0, " Hiking ", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parks) != 1 {
		t.Fatalf("expected 1 park, got %d", len(parks))
	}
	if got.RadiusKm != domain.DefaultSearchRadiusKm {
		t.Errorf("expected default radius %v, got %v", domain.DefaultSearchRadiusKm, got.RadiusKm)
	}
	if got.Activity != "Hiking" {
		t.Errorf("expected trimmed activity, got %q", got.Activity)
	}
	if got.Point.Lat != 36.0 || got.Point.Lon != -112.0 {
		t.Errorf("unexpected point: %+v", got.Point)
	}
}

func TestParkService_Search_EmptyActivityLists(t *testing.T) {
	listed := false
	repo := &mockParkRepo{
		listFn: func(ctx context.Context) ([]domain.Park, error) {
			listed = true
			return []domain.Park{*grandCanyon()}, nil
		},
		searchNearbyFn: func(ctx context.Context, q domain.GeoQuery) ([]domain.Park, error) {
			t.Fatal("search must not run for an empty activity")
			return nil, nil
		},
	}
	svc := usecases.NewParkService(repo, nil)

	parks, err := svc.Search(context.Background(), 0, 0, "   ", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !listed || len(parks) != 1 {
		t.Errorf("expected List to serve the request, got %d parks", len(parks))
	}
}

func TestParkService_Search_Validation(t *testing.T) {
	repo := &mockParkRepo{
		searchNearbyFn: func(ctx context.Context, q domain.GeoQuery) ([]domain.Park, error) {
			t.Errorf("invalid query reached the repository: %+v", q)
			return nil, nil
		},
	}
	svc := usecases.NewParkService(repo, nil)

	tests := []struct {
		name     string
		lat, lon float64
		radius   float64
	}{
		{"latitude", 95, 0, 10},
		{"longitude", 0, 200, 10},
		{"radius too large", 0, 0, usecases.MaxSearchRadiusKm + 1},
		{"radius NaN", 36, -112, math.NaN()},
		{"radius +Inf", 36, -112, math.Inf(1)},
		{"radius -Inf", 36, -112, math.Inf(-1)},
		{"latitude NaN", math.NaN(), -112, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.lat, tt.lon, "Hiking", tt.radius)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestParkService_Get(t *testing.T) {
	svc := usecases.NewParkService(&mockParkRepo{}, nil)

	if _, err := svc.Get(context.Background(), "missing-xx"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
