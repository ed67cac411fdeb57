package geospatial

import (
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0088

// CellPrecision is the geohash length used to partition park events (~39 km cells).
const CellPrecision = 4

// ValidCoordinate reports whether lat/lon is a finite WGS 84 position.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// DistanceKm returns the great-circle distance in kilometres between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKm
}

// Cell returns the geohash cell containing the point, or "" for invalid input.
func Cell(lat, lon float64) string {
	if !ValidCoordinate(lat, lon) {
		return ""
	}
	return geohash.EncodeWithPrecision(lat, lon, CellPrecision)
}
