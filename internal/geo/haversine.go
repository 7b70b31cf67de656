// Package geo holds great-circle helpers shared by discovery and scoring.
package geo

import (
	"math"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180.0

// Haversine returns the great-circle distance in kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Distance returns the distance between two points in kilometers.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Box is a latitude/longitude rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether p lies inside the box.
func (b Box) Contains(p domain.GeoPoint) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

// BoundingBox returns a rectangle enclosing every point within radiusKm of
// center. It over-approximates the circle and is meant as a cheap store-side
// pre-filter before an exact Haversine check. Near the poles or the
// antimeridian the longitude span collapses to the full range.
func BoundingBox(center domain.GeoPoint, radiusKm float64) Box {
	dLat := radiusKm / EarthRadiusKm / degToRad
	box := Box{
		MinLat: math.Max(-90, center.Latitude-dLat),
		MaxLat: math.Min(90, center.Latitude+dLat),
		MinLon: -180,
		MaxLon: 180,
	}

	cosLat := math.Cos(center.Latitude * degToRad)
	if cosLat <= 1e-9 || box.MinLat <= -90 || box.MaxLat >= 90 {
		return box
	}
	dLon := dLat / cosLat
	if center.Longitude-dLon < -180 || center.Longitude+dLon > 180 {
		return box
	}
	box.MinLon = center.Longitude - dLon
	box.MaxLon = center.Longitude + dLon
	return box
}
