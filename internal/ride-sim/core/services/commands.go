package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/domain/model"
	websocketdto "ride-sim/internal/ride-sim/core/domain/websocket_dto"
	"ride-sim/internal/ride-sim/core/myerrors"
	"ride-sim/internal/ride-sim/core/ports/driver"
)

// HandleCommand maps an inbound command onto the controller. The same
// command bodies arrive over the websocket and from the broker.
func HandleCommand(ctx context.Context, ctrl driver.ISessionController, cmd messagebrokerdto.Command, now time.Time) error {
	switch cmd.Type {
	case websocketdto.MessageTypeStart:
		return ctrl.StartRide(ctx)
	case websocketdto.MessageTypePermission:
		status, err := model.ParsePermission(cmd.Status)
		if err != nil {
			return err
		}
		return ctrl.PermissionChanged(ctx, status)
	case websocketdto.MessageTypeLocationUpdate:
		if cmd.Latitude == nil || cmd.Longitude == nil {
			return fmt.Errorf("%w: latitude and longitude are required", myerrors.ErrInvalidCoordinate)
		}
		return ctrl.LocationUpdated(ctx, model.Coordinate{Latitude: *cmd.Latitude, Longitude: *cmd.Longitude}, now)
	case websocketdto.MessageTypeLocationError:
		msg := cmd.Error
		if msg == "" {
			msg = "location manager error"
		}
		return ctrl.LocationFailed(ctx, errors.New(msg))
	default:
		return fmt.Errorf("%w: %q", myerrors.ErrUnknownCommand, cmd.Type)
	}
}
