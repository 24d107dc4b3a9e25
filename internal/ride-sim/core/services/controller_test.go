package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ride-sim/internal/config"
	"ride-sim/internal/mylogger"
	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/myerrors"
)

var (
	userSpot   = model.Coordinate{Latitude: 12.9, Longitude: 77.6}
	seededRide = model.Coordinate{Latitude: 12.950022, Longitude: 77.650022}
	someRoute  = model.Route{Path: model.Polyline{{Latitude: 12.9, Longitude: 77.6}, {Latitude: 12.95, Longitude: 77.65}}}
)

type harness struct {
	c        *Controller
	clock    *manualClock
	router   *fakeRouter
	display  *fakeDisplay
	popup    *fakePopup
	location *fakeLocation
	tel      *fakeTelemetry
	ctx      context.Context
	stop     func()
}

func newHarness(t *testing.T, router *fakeRouter) *harness {
	t.Helper()
	if router == nil {
		router = &fakeRouter{route: someRoute}
	}
	h := &harness{
		clock:    newManualClock(),
		router:   router,
		display:  &fakeDisplay{},
		popup:    &fakePopup{},
		location: &fakeLocation{},
		tel:      &fakeTelemetry{},
	}
	cfg := &config.Simconfig{
		TickInterval:  time.Second,
		RefreshTicks:  10,
		Step:          DefaultStep,
		RiderOffset:   DefaultRiderOffset,
		ArrivalPolicy: "any",
	}
	c, err := NewController(cfg, mylogger.Discard(), Collaborators{
		Router:    h.router,
		Display:   h.display,
		Popup:     h.popup,
		Location:  h.location,
		Telemetry: h.tel,
		Clock:     h.clock,
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	h.c = c

	ctx, cancel := context.WithCancel(context.Background())
	h.ctx = ctx
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	var once bool
	h.stop = func() {
		if once {
			return
		}
		once = true
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("controller did not stop")
		}
	}
	t.Cleanup(h.stop)
	return h
}

func (h *harness) snapshot(t *testing.T) model.Snapshot {
	t.Helper()
	snap, err := h.c.Snapshot(h.ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return snap
}

func (h *harness) mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// activate runs the common authorized path and returns the active snapshot.
func (h *harness) activate(t *testing.T) model.Snapshot {
	t.Helper()
	h.mustOK(t, h.c.PermissionChanged(h.ctx, model.PermissionAuthorizedWhenInUse))
	h.mustOK(t, h.c.LocationUpdated(h.ctx, userSpot, time.Now()))
	h.mustOK(t, h.c.StartRide(h.ctx))
	snap := h.snapshot(t)
	if snap.State != model.StateActive {
		t.Fatalf("state = %s, want ACTIVE", snap.State)
	}
	return snap
}

func TestRunPresentsPopupOnce(t *testing.T) {
	h := newHarness(t, nil)

	snap := h.snapshot(t)
	if snap.State != model.StateIdle {
		t.Errorf("state = %s, want IDLE", snap.State)
	}
	if h.popup.presented() != 1 {
		t.Errorf("popup presented %d times", h.popup.presented())
	}
	if h.clock.created() != 0 {
		t.Error("no schedule should exist before activation")
	}
}

func TestActivationSeedsSession(t *testing.T) {
	h := newHarness(t, nil)
	snap := h.activate(t)

	s := snap.Session
	if s == nil || !s.IsActive {
		t.Fatal("expected an active session")
	}
	if s.UserLocation != userSpot || s.Destination != userSpot {
		t.Errorf("user=%+v destination=%+v", s.UserLocation, s.Destination)
	}
	if !s.RiderLocation.Near(seededRide, eps) {
		t.Errorf("rider = %+v, want %+v", s.RiderLocation, seededRide)
	}
	if _, started := h.location.counts(); started != 1 {
		t.Errorf("StartUpdating called %d times", started)
	}
	if len(h.clock.active()) != 1 {
		t.Errorf("running tickers = %d", len(h.clock.active()))
	}
	if h.tel.count(messagebrokerdto.EventSessionStarted) != 1 {
		t.Error("missing session_started event")
	}

	eventually(t, func() bool { return len(h.display.shown()) == 1 }, "first route")
	req := h.router.calls()[0]
	if req.Origin != userSpot || !req.Destination.Near(seededRide, eps) {
		t.Errorf("route request = %+v", req)
	}
	if markers := h.display.placed(); len(markers) != 1 || markers[0].Label != model.MarkerLabel {
		t.Errorf("markers = %+v", markers)
	}
}

func TestUndeterminedPermissionRequestsAuthorization(t *testing.T) {
	h := newHarness(t, nil)

	h.mustOK(t, h.c.StartRide(h.ctx))

	if snap := h.snapshot(t); snap.State != model.StateAwaitingPermission {
		t.Fatalf("state = %s, want AWAITING_PERMISSION", snap.State)
	}
	if req, _ := h.location.counts(); req != 1 {
		t.Fatalf("RequestAuthorization called %d times", req)
	}

	h.mustOK(t, h.c.PermissionChanged(h.ctx, model.PermissionAuthorizedAlways))
	if snap := h.snapshot(t); snap.State != model.StateAwaitingPermission {
		t.Fatalf("state = %s before first location", snap.State)
	}
	if _, started := h.location.counts(); started != 1 {
		t.Errorf("StartUpdating called %d times", started)
	}

	h.mustOK(t, h.c.LocationUpdated(h.ctx, userSpot, time.Now()))
	snap := h.snapshot(t)
	if snap.State != model.StateActive {
		t.Fatalf("state = %s, want ACTIVE", snap.State)
	}
	req, started := h.location.counts()
	if req != 1 {
		t.Errorf("RequestAuthorization called %d times", req)
	}
	if started != 1 {
		t.Errorf("StartUpdating called %d times after first location, want 1", started)
	}
}

func TestDeniedPermissionWaitsForGrant(t *testing.T) {
	h := newHarness(t, nil)

	h.mustOK(t, h.c.PermissionChanged(h.ctx, model.PermissionDenied))
	h.mustOK(t, h.c.LocationUpdated(h.ctx, userSpot, time.Now()))
	h.mustOK(t, h.c.StartRide(h.ctx))

	snap := h.snapshot(t)
	if snap.State != model.StateAwaitingPermission {
		t.Fatalf("state = %s", snap.State)
	}
	if snap.Session != nil {
		t.Error("no session should be seeded while denied")
	}
	if h.tel.count(messagebrokerdto.EventPermissionDenied) != 1 {
		t.Error("missing permission_denied event")
	}
	if req, _ := h.location.counts(); req != 0 {
		t.Errorf("RequestAuthorization called %d times", req)
	}

	h.mustOK(t, h.c.PermissionChanged(h.ctx, model.PermissionAuthorizedWhenInUse))
	if snap := h.snapshot(t); snap.State != model.StateActive {
		t.Fatalf("state after grant = %s", snap.State)
	}
}

func TestRiderArrivesAfter84Ticks(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)

	h.clock.tick(t, 83)
	snap := h.snapshot(t)
	if snap.State != model.StateActive {
		t.Fatalf("state after 83 ticks = %s", snap.State)
	}
	if snap.Session.Ticks != 83 {
		t.Fatalf("session ticks = %d", snap.Session.Ticks)
	}

	h.clock.tick(t, 1)
	snap = h.snapshot(t)
	if snap.State != model.StateArrived {
		t.Fatalf("state after 84 ticks = %s", snap.State)
	}
	if snap.Session.IsActive {
		t.Error("session still active after arrival")
	}
	if snap.Session.RiderLocation.Latitude > userSpot.Latitude {
		t.Errorf("rider latitude %v not past user", snap.Session.RiderLocation.Latitude)
	}
	if len(h.clock.active()) != 0 {
		t.Error("schedule still running after arrival")
	}
	if h.popup.presented() != 2 {
		t.Errorf("popup presented %d times, want 2", h.popup.presented())
	}
	if h.tel.count(messagebrokerdto.EventArrived) != 1 {
		t.Error("missing arrived event")
	}
}

func TestRestartKeepsSingleSchedule(t *testing.T) {
	h := newHarness(t, nil)
	first := h.activate(t)
	h.clock.tick(t, 5)

	h.mustOK(t, h.c.StartRide(h.ctx))
	snap := h.snapshot(t)

	if snap.State != model.StateActive {
		t.Fatalf("state = %s", snap.State)
	}
	if snap.Session.ID == first.Session.ID {
		t.Error("restart should seed a new session")
	}
	if snap.Session.Ticks != 0 || !snap.Session.RiderLocation.Near(seededRide, eps) {
		t.Errorf("session not reseeded: %+v", snap.Session)
	}
	if h.clock.created() != 2 {
		t.Errorf("tickers created = %d", h.clock.created())
	}
	if n := len(h.clock.active()); n != 1 {
		t.Fatalf("running tickers = %d, want 1", n)
	}

	h.clock.tick(t, 1)
	if snap := h.snapshot(t); snap.Session.Ticks != 1 {
		t.Errorf("ticks after restart = %d", snap.Session.Ticks)
	}
}

func TestRoutingFailureKeepsShownRoute(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)
	eventually(t, func() bool { return len(h.display.shown()) == 1 }, "first route")

	h.router.set(model.Route{}, errors.New("directions unavailable"))
	h.mustOK(t, h.c.LocationUpdated(h.ctx, userSpot, time.Now()))

	eventually(t, func() bool {
		return h.tel.count(messagebrokerdto.EventRoutingFailed) == 1
	}, "routing_failed event")

	snap := h.snapshot(t)
	if snap.State != model.StateActive {
		t.Errorf("state = %s", snap.State)
	}
	if !snap.RouteShown {
		t.Error("previous route should still be shown")
	}
	if n := len(h.display.shown()); n != 1 {
		t.Errorf("display got %d routes", n)
	}
}

func TestLocationUpdateWhileActiveKeepsDestination(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)
	h.clock.tick(t, 3)

	moved := model.Coordinate{Latitude: 13.1, Longitude: 77.9}
	h.mustOK(t, h.c.LocationUpdated(h.ctx, moved, time.Now()))

	snap := h.snapshot(t)
	if snap.Session.Destination != userSpot || snap.Session.UserLocation != userSpot {
		t.Errorf("destination changed to %+v", snap.Session.Destination)
	}
	if snap.Session.Ticks != 3 {
		t.Errorf("ticks = %d, session was reseeded", snap.Session.Ticks)
	}
	if snap.LastKnown == nil || *snap.LastKnown != moved {
		t.Errorf("last known = %+v", snap.LastKnown)
	}
	if n := len(h.display.placed()); n != 2 {
		t.Errorf("markers placed = %d, want 2", n)
	}
}

func TestRouteResultAfterArrivalIsDropped(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, &fakeRouter{route: someRoute, release: release})
	h.activate(t)

	h.clock.tick(t, 84)
	if snap := h.snapshot(t); snap.State != model.StateArrived {
		t.Fatalf("state = %s", snap.State)
	}

	close(release)
	time.Sleep(50 * time.Millisecond)
	snap := h.snapshot(t)

	if snap.RouteShown {
		t.Error("late route result was applied")
	}
	if n := len(h.display.shown()); n != 0 {
		t.Errorf("display got %d routes after arrival", n)
	}
	if h.tel.count(messagebrokerdto.EventRouteChanged) != 0 {
		t.Error("route_changed reported after arrival")
	}
}

func TestRouteRefreshesEveryTenTicks(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)

	h.clock.tick(t, 9)
	h.snapshot(t)
	if n := len(h.display.placed()); n != 1 {
		t.Fatalf("markers after 9 ticks = %d, want 1", n)
	}

	h.clock.tick(t, 1)
	snap := h.snapshot(t)
	if n := len(h.display.placed()); n != 2 {
		t.Fatalf("markers after 10 ticks = %d, want 2", n)
	}
	eventually(t, func() bool { return len(h.router.calls()) == 2 }, "second routing call")

	req := h.router.calls()[1]
	if req.Origin != userSpot || req.Destination != snap.Session.RiderLocation {
		t.Errorf("refresh request = %+v, rider = %+v", req, snap.Session.RiderLocation)
	}
}

func TestStoppedControllerRejectsCalls(t *testing.T) {
	h := newHarness(t, nil)
	h.stop()

	_, err := h.c.Snapshot(context.Background())
	if !errors.Is(err, myerrors.ErrControllerStopped) {
		t.Fatalf("err = %v, want ErrControllerStopped", err)
	}
	if err := h.c.StartRide(context.Background()); !errors.Is(err, myerrors.ErrControllerStopped) {
		t.Fatalf("StartRide err = %v", err)
	}
	if err := h.c.Run(context.Background()); err == nil {
		t.Error("second Run should fail")
	}
}

func TestInvalidInputIsRejected(t *testing.T) {
	h := newHarness(t, nil)

	err := h.c.LocationUpdated(h.ctx, model.Coordinate{Latitude: 91, Longitude: 0}, time.Now())
	if !errors.Is(err, myerrors.ErrInvalidCoordinate) {
		t.Errorf("coordinate err = %v", err)
	}
	err = h.c.PermissionChanged(h.ctx, model.Permission("maybe"))
	if !errors.Is(err, myerrors.ErrInvalidPermission) {
		t.Errorf("permission err = %v", err)
	}
	if snap := h.snapshot(t); snap.LastKnown != nil || snap.Permission != model.PermissionNotDetermined {
		t.Errorf("invalid input changed state: %+v", snap)
	}
}

func TestLocationFailureIsReported(t *testing.T) {
	h := newHarness(t, nil)
	h.mustOK(t, h.c.LocationFailed(h.ctx, errors.New("gps lost")))
	if h.tel.count(messagebrokerdto.EventLocationFailed) != 1 {
		t.Error("missing location_failed event")
	}
}

func TestRefreshSubscriberDetectsArrival(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)

	// rider already past the user when the refresh subscriber runs
	h.mustOK(t, h.c.post(h.ctx, "cross", func(ctx context.Context) error {
		h.c.session.RiderLocation = userSpot.Offset(-0.001, 0.01)
		h.c.onRefreshTick(ctx, 10)
		return nil
	}))

	snap := h.snapshot(t)
	if snap.State != model.StateArrived {
		t.Fatalf("state = %s, want ARRIVED", snap.State)
	}
	if len(h.clock.active()) != 0 {
		t.Error("schedule still running after arrival")
	}
	e, ok := h.tel.last(messagebrokerdto.EventArrived)
	if !ok || e.Payload["source"] != "route_refresh" {
		t.Errorf("arrived event = %+v", e)
	}
}
