package driven

import (
	"context"

	"ride-sim/internal/ride-sim/core/domain/model"
)

// IRouter computes a path for a route request. Implementations may block.
type IRouter interface {
	Route(ctx context.Context, req model.RouteRequest) (model.Route, error)
}

// IDisplay renders the route overlay and the rider marker.
type IDisplay interface {
	ShowRoute(ctx context.Context, route model.Route) error
	PlaceMarker(ctx context.Context, marker model.Marker) error
}

// IPopup presents the "start ride" prompt. Implementations must not call
// back into the session controller synchronously.
type IPopup interface {
	Present(ctx context.Context) error
}

// ILocationManager is the platform location service. Answers come back
// through the session controller (PermissionChanged, LocationUpdated) and
// must be delivered asynchronously.
type ILocationManager interface {
	RequestAuthorization(ctx context.Context) error
	StartUpdating(ctx context.Context) error
}
