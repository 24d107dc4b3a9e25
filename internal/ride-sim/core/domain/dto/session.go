package dto

type PermissionRequest struct {
	Status string `json:"status"`
}

// LocationRequest uses pointers so a missing coordinate is told apart from 0.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	State      string            `json:"state,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}
