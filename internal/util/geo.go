package util

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const earthRadiusMeters = 6371000.0

// GeodesicCircle approximates a circle of constant ground distance around a
// center point with a closed polygon ring of segments+1 vertices. The offsets
// use the equirectangular spherical approximation: a planar (dx, dy) step of
// radiusMeters at bearing theta is converted to degree deltas, with the
// longitude delta scaled by cos(lat). Vertices are in GeoJSON [lng, lat]
// order and the first vertex is repeated at the end to close the ring.
//
// Near the poles cos(lat) tends to zero and the longitude delta diverges;
// the generator does not special-case that, callers are expected to stay
// below |lat| ~ 80.
func GeodesicCircle(centerLat, centerLng, radiusMeters float64, segments int) orb.Ring {
	if segments < 3 {
		segments = 3
	}

	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i <= segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		dx := radiusMeters * math.Cos(theta)
		dy := radiusMeters * math.Sin(theta)

		dLat := (dy / earthRadiusMeters) * (180 / math.Pi)
		dLng := (dx / earthRadiusMeters) * (180 / math.Pi) / math.Cos(centerLat*math.Pi/180)

		ring = append(ring, orb.Point{centerLng + dLng, centerLat + dLat}) // [lon, lat]
	}
	return ring
}

// HaversineDistance returns the great-circle distance in meters between two
// coordinates given in degrees.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert coordinates from degrees to S2 points
	point1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lng1))
	point2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lng2))

	// Calculate angle between points
	angle := s1.Angle(s2.ChordAngleBetweenPoints(point1, point2).Angle())

	return angle.Radians() * earthRadiusMeters
}

// PointInPolygon reports whether point lies inside polygon (planar check on
// the lng/lat plane, adequate for city-scale zones).
func PointInPolygon(polygon orb.Polygon, point orb.Point) bool {
	return planar.PolygonContains(polygon, point)
}

// ValidCoordinate reports whether lat/lng are finite and inside the WGS84
// coordinate range.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
