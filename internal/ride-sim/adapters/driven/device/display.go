package device

import (
	"context"

	"ride-sim/internal/mylogger"
	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/ports/driven"
)

// LogDisplay renders to the log. Used when no map client is attached.
type LogDisplay struct {
	mylog mylogger.Logger
}

var _ driven.IDisplay = (*LogDisplay)(nil)

func NewLogDisplay(log mylogger.Logger) *LogDisplay {
	return &LogDisplay{mylog: log.WithGroup("display")}
}

func (d *LogDisplay) ShowRoute(_ context.Context, route model.Route) error {
	d.mylog.Action("show_route").Info("route shown",
		"points", len(route.Path),
		"center", route.Center,
		"distance_meters", route.DistanceMeters,
		"duration_seconds", route.DurationSeconds,
	)
	return nil
}

func (d *LogDisplay) PlaceMarker(_ context.Context, marker model.Marker) error {
	d.mylog.Action("place_marker").Info("marker placed", "label", marker.Label, "coordinate", marker.Coordinate)
	return nil
}
