package routing

import (
	"context"
	"math"

	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/ports/driven"
)

const (
	earthRadiusMeters = 6371000.0
	// average urban two-wheeler speed, 30 km/h
	straightSpeedMps = 30.0 / 3.6
)

// Straight is an offline router that returns the great-circle chord between
// the two points, sampled into a fixed number of vertices.
type Straight struct {
	points int
}

var _ driven.IRouter = (*Straight)(nil)

func NewStraight(points int) *Straight {
	if points < 2 {
		points = 2
	}
	return &Straight{points: points}
}

func (s *Straight) Route(ctx context.Context, req model.RouteRequest) (model.Route, error) {
	if err := ctx.Err(); err != nil {
		return model.Route{}, err
	}

	from, to := req.Origin, req.Destination
	path := make(model.Polyline, s.points)
	last := float64(s.points - 1)
	for i := range path {
		f := float64(i) / last
		path[i] = model.Coordinate{
			Latitude:  from.Latitude + (to.Latitude-from.Latitude)*f,
			Longitude: from.Longitude + (to.Longitude-from.Longitude)*f,
		}
	}

	dist := haversine(from, to)
	return model.Route{
		Path:            path,
		Center:          path.Center(),
		DistanceMeters:  dist,
		DurationSeconds: dist / straightSpeedMps,
	}, nil
}

func haversine(a, b model.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
