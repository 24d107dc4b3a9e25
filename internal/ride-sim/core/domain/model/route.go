package model

type TransportMode string

const Automobile TransportMode = "automobile"

// RouteRequest is what the routing collaborator is asked to compute.
// Origin is the session destination and Destination the rider position;
// the routing side expects the pair in this order.
type RouteRequest struct {
	Origin      Coordinate    `json:"origin"`
	Destination Coordinate    `json:"destination"`
	Mode        TransportMode `json:"mode"`
}

type Route struct {
	Path            Polyline   `json:"path"`
	Center          Coordinate `json:"center"`
	DistanceMeters  float64    `json:"distance_meters"`
	DurationSeconds float64    `json:"duration_seconds"`
}

// RouteResult carries an asynchronous routing response back to the session loop.
type RouteResult struct {
	Seq     uint64
	Request RouteRequest
	Route   Route
	Err     error
}

const MarkerLabel = "Bike"

type Marker struct {
	Label      string     `json:"label"`
	Coordinate Coordinate `json:"coordinate"`
}
