package driver

import (
	"context"
	"time"

	"ride-sim/internal/ride-sim/core/domain/model"
)

// ISessionController is what host adapters drive: popup actions, platform
// location callbacks and state queries.
type ISessionController interface {
	StartRide(ctx context.Context) error
	PermissionChanged(ctx context.Context, status model.Permission) error
	LocationUpdated(ctx context.Context, coord model.Coordinate, at time.Time) error
	LocationFailed(ctx context.Context, err error) error
	Snapshot(ctx context.Context) (model.Snapshot, error)
}
