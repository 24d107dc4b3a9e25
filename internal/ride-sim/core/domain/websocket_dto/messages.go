package websocketdto

import "ride-sim/internal/ride-sim/core/domain/model"

// WebSocket message types
const (
	// outbound
	MessageTypeRouteChanged          = "route_changed"
	MessageTypeMarker                = "marker"
	MessageTypePresentPopup          = "present_popup"
	MessageTypeRequestAuthorization  = "request_authorization"
	MessageTypeStartUpdatingLocation = "start_updating_location"
	MessageTypeError                 = "error"
	MessageTypePong                  = "pong"

	// inbound
	MessageTypeStart          = "start"
	MessageTypePermission     = "permission"
	MessageTypeLocationUpdate = "location_update"
	MessageTypeLocationError  = "location_error"
	MessageTypePing           = "ping"
)

// Base message structure
type WebSocketMessage struct {
	Type string `json:"type"`
}

type RouteChangedMessage struct {
	WebSocketMessage
	Path            []model.Coordinate `json:"path"`
	Center          model.Coordinate   `json:"center"`
	DistanceMeters  float64            `json:"distance_meters"`
	DurationSeconds float64            `json:"duration_seconds"`
}

type MarkerMessage struct {
	WebSocketMessage
	Label      string           `json:"label"`
	Coordinate model.Coordinate `json:"coordinate"`
}

// Inbound is the union of every message a map client may send.
type Inbound struct {
	WebSocketMessage
	Status    string   `json:"status,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type ErrorMessage struct {
	WebSocketMessage
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}
