package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ride-sim/internal/config"
	"ride-sim/internal/mylogger"
	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/myerrors"
	"ride-sim/internal/ride-sim/core/ports/driven"
	"ride-sim/internal/ride-sim/core/ports/driver"

	"github.com/google/uuid"
)

const resultsBuffer = 16

// Collaborators are the ports the controller drives.
type Collaborators struct {
	Router    driven.IRouter
	Display   driven.IDisplay
	Popup     driven.IPopup
	Location  driven.ILocationManager
	Telemetry driven.ITelemetry
	Clock     driven.IClock
}

type command struct {
	name  string
	fn    func(ctx context.Context) error
	errCh chan error
}

// Controller is the ride session state machine. Every field below the
// channels is owned by the Run goroutine; public methods post closures to it.
type Controller struct {
	mylog       mylogger.Logger
	deps        Collaborators
	riderOffset float64
	sim         *Simulator
	refresher   *RouteRefresher
	scheduler   *Scheduler

	cmds    chan command
	results chan model.RouteResult
	done    chan struct{}
	running atomic.Bool

	state      model.State
	permission model.Permission
	session    *model.RideSession
	lastKnown  *model.Coordinate
	seq        uint64
}

var _ driver.ISessionController = (*Controller)(nil)

func NewController(cfg *config.Simconfig, log mylogger.Logger, deps Collaborators) (*Controller, error) {
	policy, err := ParseArrivalPolicy(cfg.ArrivalPolicy)
	if err != nil {
		return nil, err
	}
	if deps.Router == nil || deps.Display == nil || deps.Popup == nil ||
		deps.Location == nil || deps.Telemetry == nil || deps.Clock == nil {
		return nil, errors.New("session controller: missing collaborator")
	}

	refreshEvery := cfg.RefreshTicks
	if refreshEvery < 1 {
		refreshEvery = 10
	}
	offset := cfg.RiderOffset
	if offset == 0 {
		offset = DefaultRiderOffset
	}

	c := &Controller{
		mylog:       log.WithGroup("session"),
		deps:        deps,
		riderOffset: offset,
		sim:         NewSimulator(cfg.Step, policy, deps.Clock.Now),
		refresher:   NewRouteRefresher(log, deps.Display, deps.Telemetry),
		scheduler:   NewScheduler(deps.Clock, cfg.TickInterval),
		cmds:        make(chan command),
		results:     make(chan model.RouteResult, resultsBuffer),
		done:        make(chan struct{}),
		state:       model.StateIdle,
		permission:  model.PermissionNotDetermined,
	}
	c.scheduler.Subscribe("motion", 1, c.onMotionTick)
	c.scheduler.Subscribe("route_refresh", refreshEvery, c.onRefreshTick)

	return c, nil
}

// Run owns the session until ctx is cancelled. It presents the start popup
// once on entry.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("session controller already running")
	}
	defer close(c.done)
	defer c.scheduler.Stop()

	log := c.mylog.Action("session_loop")
	log.Info("session loop started", "policy", c.sim.Policy(), "step", c.sim.Step())

	c.presentPopup(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("session loop stopped")
			return nil
		case cmd := <-c.cmds:
			log.Debug("command", "name", cmd.name, "state", c.state)
			cmd.errCh <- cmd.fn(ctx)
		case <-c.scheduler.C():
			c.scheduler.Dispatch(ctx)
		case res := <-c.results:
			c.applyRoute(ctx, res)
		}
	}
}

// StartRide is the popup "start" action.
func (c *Controller) StartRide(ctx context.Context) error {
	return c.post(ctx, "start_ride", c.startRide)
}

func (c *Controller) PermissionChanged(ctx context.Context, status model.Permission) error {
	if _, err := model.ParsePermission(string(status)); err != nil {
		return err
	}
	return c.post(ctx, "permission_changed", func(ctx context.Context) error {
		return c.permissionChanged(ctx, status)
	})
}

func (c *Controller) LocationUpdated(ctx context.Context, coord model.Coordinate, at time.Time) error {
	if !coord.Valid() {
		return fmt.Errorf("%w: %+v", myerrors.ErrInvalidCoordinate, coord)
	}
	return c.post(ctx, "location_updated", func(ctx context.Context) error {
		return c.locationUpdated(ctx, coord, at)
	})
}

func (c *Controller) LocationFailed(ctx context.Context, cause error) error {
	return c.post(ctx, "location_failed", func(ctx context.Context) error {
		c.mylog.Action("location_failed").Error("location manager failed", cause)
		c.report(ctx, messagebrokerdto.EventLocationFailed, "location update failed", nil, cause)
		return nil
	})
}

func (c *Controller) Snapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := c.post(ctx, "snapshot", func(context.Context) error {
		snap = model.Snapshot{
			State:      c.state,
			Permission: c.permission,
		}
		if c.session != nil {
			s := *c.session
			snap.Session = &s
		}
		if c.lastKnown != nil {
			lk := *c.lastKnown
			snap.LastKnown = &lk
		}
		_, snap.RouteShown = c.refresher.Shown()
		return nil
	})
	return snap, err
}

func (c *Controller) post(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	cmd := command{name: name, fn: fn, errCh: make(chan error, 1)}
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return myerrors.ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.errCh:
		return err
	case <-c.done:
		return myerrors.ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---- loop-owned handlers ----

func (c *Controller) startRide(ctx context.Context) error {
	log := c.mylog.Action("start_ride").With("state", c.state)

	if c.state == model.StateActive {
		// restart: drop the running schedule before re-arming
		c.scheduler.Stop()
		c.session.Stop(c.deps.Clock.Now())
		log.Info("restarting active session", "session_id", c.session.ID)
	}

	c.state = model.StateAwaitingPermission
	return c.checkAuthorization(ctx)
}

func (c *Controller) checkAuthorization(ctx context.Context) error {
	log := c.mylog.Action("check_authorization").With("permission", c.permission)

	switch {
	case c.permission.Authorized():
		return c.activate(ctx, true)
	case c.permission.Refused():
		log.Warn("location permission refused, waiting for retry")
		c.report(ctx, messagebrokerdto.EventPermissionDenied, "location permission refused",
			map[string]any{"permission": c.permission}, myerrors.ErrPermissionDenied)
		return nil
	default:
		if err := c.deps.Location.RequestAuthorization(ctx); err != nil {
			log.Error("failed to request authorization", err)
			return fmt.Errorf("request authorization: %w", err)
		}
		log.Info("authorization requested")
		return nil
	}
}

func (c *Controller) permissionChanged(ctx context.Context, status model.Permission) error {
	c.mylog.Action("permission_changed").Info("permission changed", "from", c.permission, "to", status, "state", c.state)
	c.permission = status

	if c.state != model.StateAwaitingPermission {
		return nil
	}
	return c.checkAuthorization(ctx)
}

func (c *Controller) locationUpdated(ctx context.Context, coord model.Coordinate, at time.Time) error {
	c.lastKnown = &coord
	c.mylog.Action("location_updated").Debug("device location", "latitude", coord.Latitude, "longitude", coord.Longitude, "at", at)

	switch c.state {
	case model.StateAwaitingPermission:
		if c.permission.Authorized() {
			// updates are already flowing
			return c.activate(ctx, false)
		}
	case model.StateActive:
		// destination is fixed while active; the update only forces a refresh
		c.refresh(ctx)
	}
	return nil
}

func (c *Controller) activate(ctx context.Context, requestUpdates bool) error {
	log := c.mylog.Action("activate")

	if requestUpdates {
		if err := c.deps.Location.StartUpdating(ctx); err != nil {
			log.Error("failed to start location updates", err)
		}
	}
	if c.lastKnown == nil {
		log.Info("waiting for first device location")
		return nil
	}

	c.scheduler.Stop()
	if c.session == nil {
		c.session = &model.RideSession{}
	}
	c.session.Seed(*c.lastKnown, c.riderOffset, c.deps.Clock.Now())
	c.state = model.StateActive
	c.scheduler.Start()

	log.Info("session active",
		"session_id", c.session.ID,
		"user", c.session.UserLocation,
		"rider", c.session.RiderLocation,
	)
	c.report(ctx, messagebrokerdto.EventSessionStarted, "session started", map[string]any{
		"user":  c.session.UserLocation,
		"rider": c.session.RiderLocation,
	}, nil)

	c.refresh(ctx)
	return nil
}

func (c *Controller) onMotionTick(ctx context.Context, tick int) {
	res, err := c.sim.Tick(c.session)
	if err != nil {
		c.mylog.Action("motion_tick").Error("tick outside an active session", err, "tick", tick)
		c.report(ctx, messagebrokerdto.EventPrecondition, "tick on inactive session", nil, err)
		c.scheduler.Stop()
		return
	}
	if res == model.Arrived {
		c.arrive(ctx, "motion")
	}
}

func (c *Controller) onRefreshTick(ctx context.Context, tick int) {
	c.refresh(ctx)
	// backstop: the motion subscriber runs first on the same tick and
	// normally sees arrival before this does
	if c.session != nil && c.sim.Arrived(*c.session) {
		c.arrive(ctx, "route_refresh")
	}
}

// refresh places the marker and starts an asynchronous routing call whose
// result is posted back to the loop.
func (c *Controller) refresh(ctx context.Context) {
	if c.session == nil || !c.session.IsActive {
		return
	}

	req := c.refresher.Refresh(*c.session)
	c.refresher.PlaceMarker(ctx, c.session.RiderLocation)

	c.seq++
	seq := c.seq
	router := c.deps.Router
	go func() {
		route, err := router.Route(ctx, req)
		select {
		case c.results <- model.RouteResult{Seq: seq, Request: req, Route: route, Err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) applyRoute(ctx context.Context, res model.RouteResult) {
	if c.session == nil || !c.session.IsActive {
		c.mylog.Action("apply_route").Debug("dropping route result, no active session", "seq", res.Seq)
		return
	}
	_ = c.refresher.Apply(ctx, c.session.ID, res)
}

func (c *Controller) arrive(ctx context.Context, source string) {
	if c.state != model.StateActive {
		return
	}
	c.scheduler.Stop()
	c.session.Stop(c.deps.Clock.Now())
	c.state = model.StateArrived

	c.mylog.Action("arrived").Info("rider arrived",
		"session_id", c.session.ID,
		"source", source,
		"ticks", c.session.Ticks,
		"rider", c.session.RiderLocation,
	)
	c.report(ctx, messagebrokerdto.EventArrived, "rider arrived", map[string]any{
		"source": source,
		"ticks":  c.session.Ticks,
		"rider":  c.session.RiderLocation,
	}, nil)

	c.presentPopup(ctx)
}

func (c *Controller) presentPopup(ctx context.Context) {
	if err := c.deps.Popup.Present(ctx); err != nil {
		c.mylog.Action("present_popup").Error("failed to present popup", err)
	}
}

func (c *Controller) report(ctx context.Context, kind messagebrokerdto.EventKind, msg string, payload map[string]any, err error) {
	var sessionID uuid.UUID
	if c.session != nil {
		sessionID = c.session.ID
	}
	c.deps.Telemetry.Report(ctx, messagebrokerdto.NewEvent(sessionID, kind, msg, payload).WithError(err))
}
