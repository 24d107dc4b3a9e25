package model

import "math"

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Offset returns c shifted by the given deltas.
func (c Coordinate) Offset(dLat, dLng float64) Coordinate {
	return Coordinate{
		Latitude:  c.Latitude + dLat,
		Longitude: c.Longitude + dLng,
	}
}

// Near reports whether both axes of c and o differ by at most eps.
func (c Coordinate) Near(o Coordinate, eps float64) bool {
	return math.Abs(c.Latitude-o.Latitude) <= eps && math.Abs(c.Longitude-o.Longitude) <= eps
}

func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Polyline is an ordered path of coordinates.
type Polyline []Coordinate

// Center returns the centre of the polyline's bounding box, the point a map
// recentres on when the overlay is shown.
func (p Polyline) Center() Coordinate {
	if len(p) == 0 {
		return Coordinate{}
	}
	minLat, maxLat := p[0].Latitude, p[0].Latitude
	minLng, maxLng := p[0].Longitude, p[0].Longitude
	for _, c := range p[1:] {
		minLat = math.Min(minLat, c.Latitude)
		maxLat = math.Max(maxLat, c.Latitude)
		minLng = math.Min(minLng, c.Longitude)
		maxLng = math.Max(maxLng, c.Longitude)
	}
	return Coordinate{
		Latitude:  (minLat + maxLat) / 2,
		Longitude: (minLng + maxLng) / 2,
	}
}
