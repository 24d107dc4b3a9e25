package services

import (
	"fmt"
	"time"

	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/myerrors"
)

const (
	DefaultStep        = 0.0006
	DefaultRiderOffset = 0.050022
)

// ArrivalPolicy decides when the rider counts as arrived.
type ArrivalPolicy string

const (
	// ArrivalAnyAxis fires as soon as either axis reaches the user. This is
	// the historical behaviour and the default.
	ArrivalAnyAxis ArrivalPolicy = "any"
	// ArrivalBothAxes waits until both axes have crossed.
	ArrivalBothAxes ArrivalPolicy = "both"
)

func ParseArrivalPolicy(s string) (ArrivalPolicy, error) {
	switch p := ArrivalPolicy(s); p {
	case ArrivalAnyAxis, ArrivalBothAxes:
		return p, nil
	case "":
		return ArrivalAnyAxis, nil
	}
	return "", fmt.Errorf("unknown arrival policy %q", s)
}

// Simulator advances the rider toward the user by a fixed step per tick.
type Simulator struct {
	step   float64
	policy ArrivalPolicy
	now    func() time.Time
}

func NewSimulator(step float64, policy ArrivalPolicy, now func() time.Time) *Simulator {
	if step <= 0 {
		step = DefaultStep
	}
	if policy == "" {
		policy = ArrivalAnyAxis
	}
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		step:   step,
		policy: policy,
		now:    now,
	}
}

func (s *Simulator) Step() float64 { return s.step }

func (s *Simulator) Policy() ArrivalPolicy { return s.policy }

// Tick moves the rider one step on both axes and reports whether it has
// arrived. The caller stops the schedule on Arrived; Tick never does.
func (s *Simulator) Tick(session *model.RideSession) (model.TickResult, error) {
	if session == nil || !session.IsActive {
		return model.Arrived, fmt.Errorf("%w: tick on inactive session", myerrors.ErrPreconditionViolation)
	}

	session.RiderLocation = session.RiderLocation.Offset(-s.step, -s.step)
	session.Ticks++
	session.Touch(s.now())

	if s.Arrived(*session) {
		return model.Arrived, nil
	}
	return model.Continuing, nil
}

// Arrived evaluates the arrival predicate without moving the rider.
func (s *Simulator) Arrived(session model.RideSession) bool {
	rider, user := session.RiderLocation, session.UserLocation
	latDone := rider.Latitude <= user.Latitude
	lngDone := rider.Longitude <= user.Longitude

	if s.policy == ArrivalBothAxes {
		return latDone && lngDone
	}
	return latDone || lngDone
}
