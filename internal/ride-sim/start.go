package ridesim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"ride-sim/internal/config"
	"ride-sim/internal/mylogger"
	"ride-sim/internal/ride-sim/adapters/driven/clock"
	"ride-sim/internal/ride-sim/adapters/driven/device"
	"ride-sim/internal/ride-sim/adapters/driven/routing"
	"ride-sim/internal/ride-sim/adapters/driver/consume"
	"ride-sim/internal/ride-sim/adapters/driver/myhttp"
	"ride-sim/internal/ride-sim/adapters/driver/myhttp/ws"
	"ride-sim/internal/ride-sim/core/services"
)

// Execute serves the map websocket and the session API until a shutdown
// signal arrives.
func Execute(ctx context.Context, mylog mylogger.Logger, cfg *config.Config) error {
	newCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, err := setupInfra(newCtx, mylog, cfg)
	if err != nil {
		return err
	}
	defer in.close(mylog)

	router, err := routing.New(cfg.Router, mylog)
	if err != nil {
		return err
	}

	hub := ws.NewHub(mylog)
	ctrl, err := services.NewController(cfg.Sim, mylog, services.Collaborators{
		Router:    router,
		Display:   hub,
		Popup:     hub,
		Location:  hub,
		Telemetry: in.telemetry,
		Clock:     clock.New(),
	})
	if err != nil {
		return fmt.Errorf("session controller: %w", err)
	}
	hub.SetController(ctrl)

	loopDone := runController(newCtx, mylog, ctrl)

	var consumer *consume.CommandConsumer
	if in.broker != nil {
		consumer = consume.NewCommandConsumer(newCtx, in.broker, ctrl, mylog)
		if err := consumer.Run(); err != nil {
			return err
		}
	}

	server := myhttp.NewServer(newCtx, mylog, cfg, ctrl, hub, in.checks)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- server.Run()
	}()

	var runErr error
	select {
	case <-newCtx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
	case err := <-runErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			mylog.Action("sim_service_failed").Error("Server failed unexpectedly", err)
			runErr = err
		}
	}

	stop()
	if err := server.Stop(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	if consumer != nil {
		_ = consumer.Stop(context.Background())
	}
	<-loopDone
	mylog.Action("server_stopped").Info("Sim service stopped")
	return runErr
}

// RunHeadless drives the session with the configured static device and logs
// what a map would show. It returns after the first ride unless auto-restart
// is on.
func RunHeadless(ctx context.Context, mylog mylogger.Logger, cfg *config.Config) error {
	newCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, err := setupInfra(newCtx, mylog, cfg)
	if err != nil {
		return err
	}
	defer in.close(mylog)

	router, err := routing.New(cfg.Router, mylog)
	if err != nil {
		return err
	}
	dev, err := device.New(cfg.Device, mylog)
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}

	ctrl, err := services.NewController(cfg.Sim, mylog, services.Collaborators{
		Router:    router,
		Display:   device.NewLogDisplay(mylog),
		Popup:     dev,
		Location:  dev,
		Telemetry: in.telemetry,
		Clock:     clock.New(),
	})
	if err != nil {
		return fmt.Errorf("session controller: %w", err)
	}
	dev.SetController(ctrl)

	loopDone := runController(newCtx, mylog, ctrl)

	select {
	case <-newCtx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
	case <-dev.Finished():
		mylog.Action("headless_finished").Info("Ride finished")
	}

	stop()
	<-loopDone
	dev.Wait()
	return nil
}

func runController(ctx context.Context, mylog mylogger.Logger, ctrl *services.Controller) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Run(ctx); err != nil {
			mylog.Action("session_loop_failed").Error("session loop exited", err)
		}
	}()
	return done
}
