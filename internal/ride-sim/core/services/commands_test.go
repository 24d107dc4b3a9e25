package services

import (
	"errors"
	"testing"
	"time"

	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/myerrors"
)

func TestHandleCommandDrivesController(t *testing.T) {
	h := newHarness(t, nil)
	now := time.Now()

	cmds := []messagebrokerdto.Command{
		{Type: "permission", Status: "authorizedAlways"},
		{Type: "location_update", Latitude: float(12.9), Longitude: float(77.6)},
		{Type: "start"},
	}
	for _, cmd := range cmds {
		if err := HandleCommand(h.ctx, h.c, cmd, now); err != nil {
			t.Fatalf("%s: %v", cmd.Type, err)
		}
	}

	snap := h.snapshot(t)
	if snap.State != model.StateActive {
		t.Fatalf("state = %s", snap.State)
	}
	if snap.Session.UserLocation != userSpot {
		t.Errorf("user = %+v", snap.Session.UserLocation)
	}
}

func TestHandleCommandRejectsBadInput(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name string
		cmd  messagebrokerdto.Command
		want error
	}{
		{"unknown type", messagebrokerdto.Command{Type: "teleport"}, myerrors.ErrUnknownCommand},
		{"bad permission", messagebrokerdto.Command{Type: "permission", Status: "sometimes"}, myerrors.ErrInvalidPermission},
		{"latitude out of range", messagebrokerdto.Command{Type: "location_update", Latitude: float(120), Longitude: float(77.6)}, myerrors.ErrInvalidCoordinate},
		{"missing longitude", messagebrokerdto.Command{Type: "location_update", Latitude: float(12.9)}, myerrors.ErrInvalidCoordinate},
		{"missing latitude", messagebrokerdto.Command{Type: "location_update", Longitude: float(77.6)}, myerrors.ErrInvalidCoordinate},
		{"no coordinate", messagebrokerdto.Command{Type: "location_update"}, myerrors.ErrInvalidCoordinate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleCommand(h.ctx, h.c, tt.cmd, time.Now())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHandleCommandMissingCoordinateIsNotForwarded(t *testing.T) {
	h := newHarness(t, nil)

	cmd := messagebrokerdto.Command{Type: "location_update", Latitude: float(12.9)}
	if err := HandleCommand(h.ctx, h.c, cmd, time.Now()); !errors.Is(err, myerrors.ErrInvalidCoordinate) {
		t.Fatalf("err = %v", err)
	}
	if snap := h.snapshot(t); snap.LastKnown != nil {
		t.Errorf("last known = %+v, want none", *snap.LastKnown)
	}
}

func float(v float64) *float64 { return &v }
