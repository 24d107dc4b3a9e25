package driven

import (
	"context"

	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
)

// ITelemetry receives every reportable session event. Report must not block
// the caller for long and never fails from the caller's point of view.
type ITelemetry interface {
	Report(ctx context.Context, event messagebrokerdto.Event)
}

type IEventRepo interface {
	Insert(ctx context.Context, event messagebrokerdto.Event) error
}
