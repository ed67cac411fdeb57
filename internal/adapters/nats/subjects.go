package natsadapter

import (
	"strings"

	"github.com/samirrijal/parkfinder/internal/core/domain"
	"github.com/samirrijal/parkfinder/internal/pkg/geospatial"
)

const (
	// StreamName is the JetStream stream holding park lifecycle events.
	StreamName = "PARKS"
	// AllParkEvents matches every park event subject.
	AllParkEvents = "parks.>"

	noCell = "none"
)

// Subject returns parks.<type>.<geohash cell> for an event.
func Subject(ev *domain.ParkEvent) string {
	cell := ""
	if ev.Park != nil {
		loc := ev.Park.Location()
		cell = geospatial.Cell(loc.Lat, loc.Lon)
	}
	if cell == "" {
		cell = noCell
	}
	return "parks." + string(ev.Type) + "." + cell
}

// SubjectFilter builds a subscription subject. Empty parts match anything.
func SubjectFilter(eventType, cell string) string {
	eventType = strings.ToLower(strings.TrimSpace(eventType))
	cell = strings.ToLower(strings.TrimSpace(cell))
	if eventType == "" && cell == "" {
		return AllParkEvents
	}
	if eventType == "" {
		eventType = "*"
	}
	if cell == "" {
		cell = "*"
	}
	return "parks." + eventType + "." + cell
}

// ValidEventType reports whether t names a park lifecycle event.
func ValidEventType(t string) bool {
	switch domain.ParkEventType(t) {
	case domain.ParkCreated, domain.ParkUpdated, domain.ParkDeleted:
		return true
	}
	return false
}
