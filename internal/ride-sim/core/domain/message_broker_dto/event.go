package messagebrokerdto

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventSessionStarted   EventKind = "session_started"
	EventRouteChanged     EventKind = "route_changed"
	EventRoutingFailed    EventKind = "routing_failed"
	EventPermissionDenied EventKind = "permission_denied"
	EventArrived          EventKind = "arrived"
	EventLocationFailed   EventKind = "location_failed"
	EventPrecondition     EventKind = "precondition_violation"
)

// Event is a telemetry record emitted by the session controller.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	SessionID uuid.UUID      `json:"session_id"`
	Kind      EventKind      `json:"kind"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewEvent(sessionID uuid.UUID, kind EventKind, msg string, payload map[string]any) Event {
	return Event{
		ID:        uuid.New(),
		SessionID: sessionID,
		Kind:      kind,
		Message:   msg,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// WithError attaches err to the event.
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Command is an inbound instruction consumed from the broker. Bodies match the
// websocket inbound messages.
type Command struct {
	Type      string   `json:"type"`
	Status    string   `json:"status,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Error     string   `json:"error,omitempty"`
}
