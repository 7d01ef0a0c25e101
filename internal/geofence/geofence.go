// Package geofence decides whether a GPS reading falls inside any
// registered site's admission radius, using great-circle distance.
package geofence

import (
	"math"

	"example.com/timeclock/internal/domain"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Point is a WGS84 reading in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Decision is the outcome of an admission check. Nearest and DistanceMeters
// are populated whenever at least one site is registered, admitted or not,
// so callers can tell "no sites configured" from "too far away" and can
// surface how far outside the radius the reading was.
type Decision struct {
	Admitted       bool         `json:"admitted"`
	Nearest        *domain.Site `json:"nearest_site,omitempty"`
	DistanceMeters *float64     `json:"distance_meters,omitempty"`
}

// Admit checks point against every site and admits when the distance to at
// least one center is within that site's radius (inclusive). The nearest
// site is reported either way; with an empty registry the decision is a
// rejection with no nearest site.
func Admit(point Point, sites []domain.Site) Decision {
	var (
		nearest     *domain.Site // globally nearest, for diagnostics
		nearestDist float64
		inside      *domain.Site // nearest among admitting sites
		insideDist  float64
	)
	for i := range sites {
		d := Distance(point, Point{Latitude: sites[i].Latitude, Longitude: sites[i].Longitude})
		if nearest == nil || d < nearestDist {
			nearest = &sites[i]
			nearestDist = d
		}
		// Compare at full precision; round only the reported distance.
		if d <= sites[i].RadiusMeters && (inside == nil || d < insideDist) {
			inside = &sites[i]
			insideDist = d
		}
	}
	if nearest == nil {
		return Decision{Admitted: false}
	}
	site, dist := nearest, nearestDist
	if inside != nil {
		site, dist = inside, insideDist
	}
	rounded := math.Round(dist)
	return Decision{
		Admitted:       inside != nil,
		Nearest:        site,
		DistanceMeters: &rounded,
	}
}

// Distance returns the haversine great-circle distance between two points
// in meters.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
