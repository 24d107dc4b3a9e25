package ridesim

import (
	"context"
	"fmt"

	"ride-sim/internal/config"
	"ride-sim/internal/mylogger"
	"ride-sim/internal/ride-sim/adapters/driven/bm"
	"ride-sim/internal/ride-sim/adapters/driven/db"
	"ride-sim/internal/ride-sim/adapters/driven/telemetry"
	"ride-sim/internal/ride-sim/adapters/driver/myhttp/handle"
	"ride-sim/internal/ride-sim/core/ports/driven"
)

const telemetryBuffer = 256

// infra holds the optional broker and database connections and the
// telemetry pipeline built on them.
type infra struct {
	telemetry driven.ITelemetry
	async     *telemetry.Async
	broker    *bm.RabbitMQ
	db        *db.DataBase
	checks    map[string]handle.Check
}

func setupInfra(ctx context.Context, mylog mylogger.Logger, cfg *config.Config) (*infra, error) {
	log := mylog.Action("setup_infra")
	in := &infra{checks: make(map[string]handle.Check)}

	var remote telemetry.Fanout

	if cfg.Telemetry.BrokerEnabled {
		mb, err := bm.New(ctx, *cfg.RabbitMq, mylog)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		in.broker = mb
		in.checks["broker"] = func() error {
			if !mb.IsAlive() {
				return bm.ErrClosed
			}
			return nil
		}
		remote = append(remote, telemetry.NewBrokerSink(mb, mylog))
		log.Info("Successful message broker connection")
	}

	if cfg.Telemetry.DBEnabled {
		database, err := db.ConnectDB(ctx, cfg.DB, mylog)
		if err != nil {
			in.close(mylog)
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		in.db = database

		repo := db.NewEventsRepo(database)
		if err := repo.Migrate(ctx); err != nil {
			in.close(mylog)
			return nil, err
		}
		in.checks["db"] = database.IsAlive
		remote = append(remote, telemetry.NewDBSink(repo, mylog))
		log.Info("Successful database connection")
	}

	sinks := telemetry.Fanout{telemetry.NewLogSink(mylog)}
	if len(remote) > 0 {
		in.async = telemetry.NewAsync(ctx, remote, telemetryBuffer, mylog)
		sinks = append(sinks, in.async)
	}
	in.telemetry = sinks
	return in, nil
}

// close drains pending telemetry, then closes the connections.
func (in *infra) close(mylog mylogger.Logger) {
	if in.async != nil {
		in.async.Close()
	}
	if in.broker != nil {
		if err := in.broker.Close(); err != nil {
			mylog.Error("Failed to close message broker", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			mylog.Error("Failed to close database", err)
		}
	}
}
