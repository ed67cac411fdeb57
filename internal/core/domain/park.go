package domain

import "time"

// Activity is something to do at a park (e.g. Hiking). It has no identity of
// its own and lives and dies with its parent park.
type Activity struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Park is a point of interest with a location and an ordered set of activities.
//
// ID is backend specific: the surrogate key rendered as a string for the
// relational backend, the composite natural key for the file backend.
// ParkCode is always the natural key derived from Name and StateCode.
type Park struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ParkCode   string     `json:"park_code"`
	ParkURL    *string    `json:"park_url,omitempty"`
	StateCode  string     `json:"state_code"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Activities []Activity `json:"activities"`
	DistanceKm *float64   `json:"distance_km,omitempty"` // computed by geo search
}

// Location returns the park coordinates as a GeoPoint.
func (p *Park) Location() GeoPoint {
	return GeoPoint{Lat: p.Latitude, Lon: p.Longitude}
}

// Clone returns a deep copy so callers can never alias a backend's records.
func (p *Park) Clone() *Park {
	c := *p
	if p.ParkURL != nil {
		u := *p.ParkURL
		c.ParkURL = &u
	}
	if p.DistanceKm != nil {
		d := *p.DistanceKm
		c.DistanceKm = &d
	}
	c.Activities = make([]Activity, len(p.Activities))
	copy(c.Activities, p.Activities)
	return &c
}

// GeoPoint is a WGS 84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DefaultSearchRadiusKm is used when a geo search does not specify a radius.
const DefaultSearchRadiusKm = 50.0

// GeoQuery describes a radius search filtered by activity.
type GeoQuery struct {
	Point    GeoPoint
	Activity string
	RadiusKm float64
}

// ParkEventType names a park lifecycle transition.
type ParkEventType string

const (
	ParkCreated ParkEventType = "created"
	ParkUpdated ParkEventType = "updated"
	ParkDeleted ParkEventType = "deleted"
)

// ParkEvent is published after a park write has been committed.
type ParkEvent struct {
	ID         string        `json:"id"`
	Type       ParkEventType `json:"type"`
	ParkCode   string        `json:"park_code"`
	Park       *Park         `json:"park,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
