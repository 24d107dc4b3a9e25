package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ride-sim/internal/config"
	"ride-sim/internal/mylogger"
	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/myerrors"
	"ride-sim/internal/ride-sim/core/ports/driven"
	"ride-sim/internal/ride-sim/core/ports/driver"
)

// Static is a headless stand-in for the phone: a fixed location, a fixed
// permission answer and a popup that is always accepted on first show.
// Every answer is delivered from its own goroutine.
type Static struct {
	coord       model.Coordinate
	permission  model.Permission
	autoRestart bool
	mylog       mylogger.Logger

	mu        sync.Mutex
	ctrl      driver.ISessionController
	presented int
	finished  chan struct{}
	wg        sync.WaitGroup
}

var (
	_ driven.ILocationManager = (*Static)(nil)
	_ driven.IPopup           = (*Static)(nil)
)

func New(cfg *config.Deviceconfig, log mylogger.Logger) (*Static, error) {
	perm, err := model.ParsePermission(cfg.Permission)
	if err != nil {
		return nil, err
	}
	coord := model.Coordinate{Latitude: cfg.Latitude, Longitude: cfg.Longitude}
	if !coord.Valid() {
		return nil, fmt.Errorf("%w: %+v", myerrors.ErrInvalidCoordinate, coord)
	}
	return &Static{
		coord:       coord,
		permission:  perm,
		autoRestart: cfg.AutoRestart,
		mylog:       log.WithGroup("device"),
		finished:    make(chan struct{}),
	}, nil
}

// SetController wires the callbacks. It must be called before the
// controller starts running.
func (d *Static) SetController(ctrl driver.ISessionController) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctrl = ctrl
}

// Finished is closed when a popup is shown again and auto-restart is off.
func (d *Static) Finished() <-chan struct{} {
	return d.finished
}

func (d *Static) RequestAuthorization(ctx context.Context) error {
	d.mylog.Action("request_authorization").Info("answering authorization request", "permission", d.permission)
	d.answer(ctx, "permission", func(ctx context.Context, ctrl driver.ISessionController) error {
		return ctrl.PermissionChanged(ctx, d.permission)
	})
	return nil
}

func (d *Static) StartUpdating(ctx context.Context) error {
	d.mylog.Action("start_updating").Info("reporting static location", "latitude", d.coord.Latitude, "longitude", d.coord.Longitude)
	d.answer(ctx, "location", func(ctx context.Context, ctrl driver.ISessionController) error {
		return ctrl.LocationUpdated(ctx, d.coord, time.Now())
	})
	return nil
}

func (d *Static) Present(ctx context.Context) error {
	d.mu.Lock()
	d.presented++
	n := d.presented
	d.mu.Unlock()

	log := d.mylog.Action("present_popup").With("count", n)
	if n > 1 && !d.autoRestart {
		log.Info("ride finished, not restarting")
		d.finish()
		return nil
	}

	log.Info("popup accepted, starting ride")
	d.answer(ctx, "start", func(ctx context.Context, ctrl driver.ISessionController) error {
		return ctrl.StartRide(ctx)
	})
	return nil
}

// Wait blocks until every pending answer has been delivered.
func (d *Static) Wait() {
	d.wg.Wait()
}

func (d *Static) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-d.finished:
	default:
		close(d.finished)
	}
}

func (d *Static) answer(ctx context.Context, what string, fn func(context.Context, driver.ISessionController) error) {
	d.mu.Lock()
	ctrl := d.ctrl
	d.mu.Unlock()
	if ctrl == nil {
		d.mylog.Warn("no controller wired, dropping answer", "answer", what)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := fn(ctx, ctrl)
		if err == nil || errors.Is(err, myerrors.ErrControllerStopped) || errors.Is(err, context.Canceled) {
			return
		}
		d.mylog.Action("answer").Error("controller rejected device answer", err, "answer", what)
	}()
}
