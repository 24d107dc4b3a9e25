package model

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle               State = "IDLE"
	StateAwaitingPermission State = "AWAITING_PERMISSION"
	StateActive             State = "ACTIVE"
	StateArrived            State = "ARRIVED"
)

type TickResult int

const (
	Continuing TickResult = iota
	Arrived
)

func (r TickResult) String() string {
	switch r {
	case Continuing:
		return "Continuing"
	case Arrived:
		return "Arrived"
	default:
		return "Unknown"
	}
}

// RideSession is the mutable simulation state. It is owned by the session
// loop; everybody else works on copies.
type RideSession struct {
	ID            uuid.UUID  `json:"id"`
	Version       uint64     `json:"version"`
	UserLocation  Coordinate `json:"user_location"`
	Destination   Coordinate `json:"destination"`
	RiderLocation Coordinate `json:"rider_location"`
	IsActive      bool       `json:"is_active"`
	Ticks         int        `json:"ticks"`
	StartedAt     time.Time  `json:"started_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Seed resets the session around user, placing the rider at user+offset on
// both axes, and marks it active.
func (s *RideSession) Seed(user Coordinate, offset float64, now time.Time) {
	s.ID = uuid.New()
	s.UserLocation = user
	s.Destination = user
	s.RiderLocation = user.Offset(offset, offset)
	s.IsActive = true
	s.Ticks = 0
	s.StartedAt = now
	s.Touch(now)
}

func (s *RideSession) Stop(now time.Time) {
	s.IsActive = false
	s.Touch(now)
}

// Touch bumps the version of the session cell.
func (s *RideSession) Touch(now time.Time) {
	s.Version++
	s.UpdatedAt = now
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State      State        `json:"state"`
	Permission Permission   `json:"permission"`
	Session    *RideSession `json:"session,omitempty"`
	LastKnown  *Coordinate  `json:"last_known,omitempty"`
	RouteShown bool         `json:"route_shown"`
}
