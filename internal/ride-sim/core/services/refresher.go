package services

import (
	"context"
	"fmt"

	"ride-sim/internal/mylogger"
	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/myerrors"
	"ride-sim/internal/ride-sim/core/ports/driven"

	"github.com/google/uuid"
)

// RouteRefresher builds routing requests and applies their results to the
// display. At most one route is shown; it is only replaced by a newer
// successful route.
type RouteRefresher struct {
	mylog     mylogger.Logger
	display   driven.IDisplay
	telemetry driven.ITelemetry
	shown     *model.Route
}

func NewRouteRefresher(log mylogger.Logger, display driven.IDisplay, telemetry driven.ITelemetry) *RouteRefresher {
	return &RouteRefresher{
		mylog:     log,
		display:   display,
		telemetry: telemetry,
	}
}

// Refresh assembles the request for the current session. The session
// destination is the route origin and the rider the route destination.
func (r *RouteRefresher) Refresh(session model.RideSession) model.RouteRequest {
	return model.RouteRequest{
		Origin:      session.Destination,
		Destination: session.RiderLocation,
		Mode:        model.Automobile,
	}
}

// PlaceMarker moves the "Bike" marker to the rider coordinate.
func (r *RouteRefresher) PlaceMarker(ctx context.Context, rider model.Coordinate) {
	marker := model.Marker{Label: model.MarkerLabel, Coordinate: rider}
	if err := r.display.PlaceMarker(ctx, marker); err != nil {
		r.mylog.Action("place_marker").Error("failed to place marker", err)
	}
}

// Apply shows a successful route. Failed or empty results are reported and
// leave the current overlay untouched.
func (r *RouteRefresher) Apply(ctx context.Context, sessionID uuid.UUID, res model.RouteResult) error {
	log := r.mylog.Action("apply_route").With("seq", res.Seq)

	cause := res.Err
	if cause == nil && len(res.Route.Path) == 0 {
		cause = myerrors.ErrNoRoute
	}
	if cause != nil {
		err := fmt.Errorf("%w: %w", myerrors.ErrRoutingFailed, cause)
		log.Error("routing failed, keeping previous route", err)
		r.telemetry.Report(ctx, messagebrokerdto.NewEvent(sessionID, messagebrokerdto.EventRoutingFailed,
			"routing failed", requestPayload(res.Request)).WithError(err))
		return err
	}

	route := res.Route
	if route.Center == (model.Coordinate{}) {
		route.Center = route.Path.Center()
	}

	if err := r.display.ShowRoute(ctx, route); err != nil {
		log.Error("display rejected route", err)
		return fmt.Errorf("show route: %w", err)
	}
	r.shown = &route

	payload := requestPayload(res.Request)
	payload["points"] = len(route.Path)
	payload["distance_meters"] = route.DistanceMeters
	r.telemetry.Report(ctx, messagebrokerdto.NewEvent(sessionID, messagebrokerdto.EventRouteChanged, "route changed", payload))
	log.Debug("route applied", "points", len(route.Path))
	return nil
}

func (r *RouteRefresher) Shown() (model.Route, bool) {
	if r.shown == nil {
		return model.Route{}, false
	}
	return *r.shown, true
}

func requestPayload(req model.RouteRequest) map[string]any {
	return map[string]any{
		"origin":      req.Origin,
		"destination": req.Destination,
		"mode":        req.Mode,
	}
}
