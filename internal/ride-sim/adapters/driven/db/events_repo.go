package db

import (
	"context"
	"encoding/json"
	"fmt"

	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/ports/driven"

	"github.com/jackc/pgx/v5/pgconn"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS sim_events (
    id          UUID PRIMARY KEY,
    session_id  UUID,
    kind        TEXT NOT NULL,
    message     TEXT,
    error       TEXT,
    payload     JSONB,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertEvent = `
INSERT INTO sim_events (id, session_id, kind, message, error, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EventsRepo appends telemetry events to sim_events. Nothing reads them back.
type EventsRepo struct {
	db execer
}

var _ driven.IEventRepo = (*EventsRepo)(nil)

func NewEventsRepo(db execer) *EventsRepo {
	return &EventsRepo{db: db}
}

// Migrate creates the events table when it does not exist yet.
func (r *EventsRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createEventsTable); err != nil {
		return fmt.Errorf("create sim_events: %w", err)
	}
	return nil
}

func (r *EventsRepo) Insert(ctx context.Context, e messagebrokerdto.Event) error {
	var payload []byte
	if len(e.Payload) > 0 {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		payload = b
	}

	if _, err := r.db.Exec(ctx, insertEvent,
		e.ID,
		nullUUID(e.SessionID),
		string(e.Kind),
		e.Message,
		nullString(e.Error),
		payload,
		e.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert sim_event: %w", err)
	}
	return nil
}
