package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/parkfinder/internal/core/domain"
	"github.com/samirrijal/parkfinder/internal/core/ports"
)

// parkColumns selects one park row with its activities folded into a JSON
// array in insertion order. Parks without activities get '[]', never NULL.
// Callers must LEFT JOIN activities a and GROUP BY parkGroupBy.
const parkColumns = `
		p.id, p.name, p.park_code, p.park_url, p.state_code, p.latitude, p.longitude,
		COALESCE(
			json_agg(
				json_build_object('name', a.name, 'description', a.description)
				ORDER BY a.id
			) FILTER (WHERE a.id IS NOT NULL),
			'[]'
		) AS activities`

const parkGroupBy = `p.id, p.name, p.park_code, p.park_url, p.state_code, p.latitude, p.longitude`

// ParkRepo implements ports.ParkRepository on PostgreSQL + PostGIS.
type ParkRepo struct {
	db *DB
}

var _ ports.ParkRepository = (*ParkRepo)(nil)

// NewParkRepo creates a new ParkRepo.
func NewParkRepo(db *DB) *ParkRepo {
	return &ParkRepo{db: db}
}

// List returns every park in primary-key order.
func (r *ParkRepo) List(ctx context.Context) ([]domain.Park, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+parkColumns+`
		FROM parks p
		LEFT JOIN activities a ON a.park_id = p.id
		GROUP BY `+parkGroupBy+`
		ORDER BY p.id
	`)
	if err != nil {
		return nil, mapError("List", err)
	}
	defer rows.Close()

	parks := []domain.Park{}
	for rows.Next() {
		p, err := scanPark(rows)
		if err != nil {
			return nil, mapError("List", err)
		}
		parks = append(parks, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("List", err)
	}
	return parks, nil
}

// GetByCode returns a park by its natural key.
func (r *ParkRepo) GetByCode(ctx context.Context, parkCode string) (*domain.Park, error) {
	return r.getByCode(ctx, r.db.Pool, parkCode)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *ParkRepo) getByCode(ctx context.Context, q querier, parkCode string) (*domain.Park, error) {
	row := q.QueryRow(ctx, `
		SELECT `+parkColumns+`
		FROM parks p
		LEFT JOIN activities a ON a.park_id = p.id
		WHERE p.park_code = $1
		GROUP BY `+parkGroupBy, parkCode)

	p, err := scanPark(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("GetByCode %q", parkCode), err)
	}
	return p, nil
}

// Create derives the park code and inserts the park with all of its
// activities in one transaction. An existing park code yields ErrConflict.
func (r *ParkRepo) Create(ctx context.Context, park *domain.Park) (*domain.Park, error) {
	parkCode := domain.DeriveParkCode(park.Name, park.StateCode)

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, mapError("Create: begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() //nolint:errcheck // rollback after commit is harmless

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO parks (name, park_code, park_url, state_code, latitude, longitude, location)
		VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($6::float8, $5::float8), 4326)::geography)
		ON CONFLICT (park_code) DO NOTHING
		RETURNING id
	`, park.Name, parkCode, park.ParkURL, park.StateCode, park.Latitude, park.Longitude).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres: Create %q: no id returned: %w", parkCode, domain.ErrConflict)
	}
	if err != nil {
		return nil, mapError(fmt.Sprintf("Create %q", parkCode), err)
	}

	if err := insertActivities(ctx, tx, id, park.Activities); err != nil {
		return nil, mapError(fmt.Sprintf("Create %q: activities", parkCode), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapError(fmt.Sprintf("Create %q: commit", parkCode), err)
	}

	stored := park.Clone()
	stored.ID = strconv.FormatInt(id, 10)
	stored.ParkCode = parkCode
	stored.DistanceKm = nil
	return stored, nil
}

// Update replaces the scalar fields and the whole activity set of a park.
// The park code is immutable, even if the name or state code change.
func (r *ParkRepo) Update(ctx context.Context, parkCode string, park *domain.Park) (*domain.Park, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, mapError("Update: begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() //nolint:errcheck // rollback after commit is harmless

	var id int64
	err = tx.QueryRow(ctx, `
		UPDATE parks
		SET name = $2, park_url = $3, state_code = $4, latitude = $5, longitude = $6,
		    location = ST_SetSRID(ST_MakePoint($6::float8, $5::float8), 4326)::geography,
		    updated_at = now()
		WHERE park_code = $1
		RETURNING id
	`, parkCode, park.Name, park.ParkURL, park.StateCode, park.Latitude, park.Longitude).Scan(&id)
	if err != nil {
		return nil, mapError(fmt.Sprintf("Update %q", parkCode), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM activities WHERE park_id = $1`, id); err != nil {
		return nil, mapError(fmt.Sprintf("Update %q: clear activities", parkCode), err)
	}
	if err := insertActivities(ctx, tx, id, park.Activities); err != nil {
		return nil, mapError(fmt.Sprintf("Update %q: activities", parkCode), err)
	}

	stored, err := r.getByCode(ctx, tx, parkCode)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapError(fmt.Sprintf("Update %q: commit", parkCode), err)
	}
	return stored, nil
}

// Delete removes a park; activities go with it through ON DELETE CASCADE.
func (r *ParkRepo) Delete(ctx context.Context, parkCode string) error {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `DELETE FROM parks WHERE park_code = $1 RETURNING id`, parkCode).Scan(&id)
	return mapError(fmt.Sprintf("Delete %q", parkCode), err)
}

// SearchNearby returns parks within q.RadiusKm of q.Point having at least one
// activity whose name matches q.Activity under English full-text search.
// Each result carries its full activity set and its distance in kilometres;
// results are ordered by distance, then by id.
func (r *ParkRepo) SearchNearby(ctx context.Context, q domain.GeoQuery) ([]domain.Park, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+parkColumns+`,
		       ST_Distance(p.location, ST_SetSRID(ST_MakePoint($2::float8, $1::float8), 4326)::geography) / 1000.0 AS distance_km
		FROM parks p
		LEFT JOIN activities a ON a.park_id = p.id
		WHERE ST_DWithin(p.location, ST_SetSRID(ST_MakePoint($2::float8, $1::float8), 4326)::geography, $3::float8 * 1000.0)
		  AND EXISTS (
		      SELECT 1 FROM activities m
		      WHERE m.park_id = p.id
		        AND m.name_vector @@ plainto_tsquery('english', $4)
		  )
		GROUP BY `+parkGroupBy+`
		ORDER BY distance_km, p.id
	`, q.Point.Lat, q.Point.Lon, q.RadiusKm, q.Activity)
	if err != nil {
		return nil, mapError("SearchNearby", err)
	}
	defer rows.Close()

	parks := []domain.Park{}
	for rows.Next() {
		var (
			p        domain.Park
			id       int64
			raw      []byte
			distance float64
		)
		if err := rows.Scan(&id, &p.Name, &p.ParkCode, &p.ParkURL, &p.StateCode,
			&p.Latitude, &p.Longitude, &raw, &distance); err != nil {
			return nil, mapError("SearchNearby", err)
		}
		if p.Activities, err = decodeActivities(raw); err != nil {
			return nil, fmt.Errorf("postgres: SearchNearby: %w", err)
		}
		p.ID = strconv.FormatInt(id, 10)
		p.DistanceKm = &distance
		parks = append(parks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("SearchNearby", err)
	}
	return parks, nil
}

// insertActivities queues one INSERT per activity in a single batch so they
// keep the caller's order.
func insertActivities(ctx context.Context, tx pgx.Tx, parkID int64, activities []domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, a := range activities {
		batch.Queue(`INSERT INTO activities (park_id, name, description) VALUES ($1, $2, $3)`,
			parkID, a.Name, a.Description)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range activities {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return br.Close()
}

func scanPark(row pgx.Row) (*domain.Park, error) {
	var (
		p   domain.Park
		id  int64
		raw []byte
	)
	if err := row.Scan(&id, &p.Name, &p.ParkCode, &p.ParkURL, &p.StateCode,
		&p.Latitude, &p.Longitude, &raw); err != nil {
		return nil, err
	}
	activities, err := decodeActivities(raw)
	if err != nil {
		return nil, err
	}
	p.ID = strconv.FormatInt(id, 10)
	p.Activities = activities
	return &p, nil
}

// decodeActivities parses the aggregated JSON array. It never returns nil.
func decodeActivities(raw []byte) ([]domain.Activity, error) {
	activities := []domain.Activity{}
	if len(raw) == 0 {
		return activities, nil
	}
	if err := json.Unmarshal(raw, &activities); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	if activities == nil {
		activities = []domain.Activity{}
	}
	return activities, nil
}
