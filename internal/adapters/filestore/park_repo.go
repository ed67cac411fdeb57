// Package filestore serves parks from a static JSON dataset loaded once at start.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/samirrijal/parkfinder/internal/core/domain"
)

// record is one entry of the dataset file. Field matching is case-insensitive,
// so scraper output using "Name" for activities decodes as well.
type record struct {
	Name       string           `json:"name"`
	StateCode  string           `json:"stateCode"`
	ParkURL    *string          `json:"park_url,omitempty"`
	Latitude   float64          `json:"latitude"`
	Longitude  float64          `json:"longitude"`
	Activities []activityRecord `json:"activities"`
}

type activityRecord struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Decode reads a dataset and returns its parks in file order with ID and
// ParkCode set to the derived natural key.
func Decode(r io.Reader) ([]domain.Park, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	parks := make([]domain.Park, 0, len(records))
	for _, rec := range records {
		code := domain.DeriveParkCode(rec.Name, rec.StateCode)
		activities := make([]domain.Activity, 0, len(rec.Activities))
		for _, a := range rec.Activities {
			activities = append(activities, domain.Activity{Name: a.Name, Description: a.Description})
		}
		parks = append(parks, domain.Park{
			ID:         code,
			Name:       rec.Name,
			ParkCode:   code,
			ParkURL:    rec.ParkURL,
			StateCode:  rec.StateCode,
			Latitude:   rec.Latitude,
			Longitude:  rec.Longitude,
			Activities: activities,
		})
	}
	return parks, nil
}

// DecodeFile opens path and decodes it with Decode.
func DecodeFile(path string) ([]domain.Park, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// ParkRepo implements ports.ParkRepository over an immutable in-memory index.
// It is populated by the constructor and never written afterwards, so
// concurrent reads need no locking.
type ParkRepo struct {
	byCode map[string]*domain.Park
	order  []string
}

// New loads the dataset at path. A missing or malformed file yields an empty
// repository rather than an error.
func New(path string) *ParkRepo {
	parks, err := DecodeFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("park dataset not found, starting empty", "path", path)
		return newRepo(nil)
	case err != nil:
		slog.Error("park dataset unreadable, starting empty", "path", path, "error", err)
		return newRepo(nil)
	}

	r := newRepo(parks)
	slog.Info("park dataset loaded", "path", path, "parks", len(r.order))
	return r
}

// NewFromParks builds a repository from already decoded parks.
func NewFromParks(parks []domain.Park) *ParkRepo {
	return newRepo(parks)
}

func newRepo(parks []domain.Park) *ParkRepo {
	r := &ParkRepo{byCode: make(map[string]*domain.Park, len(parks))}
	for i := range parks {
		p := parks[i].Clone()
		if _, dup := r.byCode[p.ParkCode]; dup {
			slog.Warn("duplicate park in dataset, keeping first", "park_code", p.ParkCode)
			continue
		}
		r.byCode[p.ParkCode] = p
		r.order = append(r.order, p.ParkCode)
	}
	return r
}

// List returns all parks in dataset order.
func (r *ParkRepo) List(ctx context.Context) ([]domain.Park, error) {
	parks := make([]domain.Park, 0, len(r.order))
	for _, code := range r.order {
		parks = append(parks, *r.byCode[code].Clone())
	}
	return parks, nil
}

// GetByCode returns a copy of the park stored under parkCode.
func (r *ParkRepo) GetByCode(ctx context.Context, parkCode string) (*domain.Park, error) {
	p, ok := r.byCode[parkCode]
	if !ok {
		return nil, fmt.Errorf("filestore: park %q: %w", parkCode, domain.ErrNotFound)
	}
	return p.Clone(), nil
}

func (r *ParkRepo) Create(ctx context.Context, park *domain.Park) (*domain.Park, error) {
	return nil, fmt.Errorf("filestore: Create: %w", domain.ErrUnimplemented)
}

func (r *ParkRepo) Update(ctx context.Context, parkCode string, park *domain.Park) (*domain.Park, error) {
	return nil, fmt.Errorf("filestore: Update: %w", domain.ErrUnimplemented)
}

func (r *ParkRepo) Delete(ctx context.Context, parkCode string) error {
	return fmt.Errorf("filestore: Delete: %w", domain.ErrUnimplemented)
}

func (r *ParkRepo) SearchNearby(ctx context.Context, q domain.GeoQuery) ([]domain.Park, error) {
	return nil, fmt.Errorf("filestore: SearchNearby: %w", domain.ErrUnimplemented)
}
