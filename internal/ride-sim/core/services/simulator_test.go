package services

import (
	"errors"
	"math"
	"testing"

	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/myerrors"
)

const eps = 1e-9

func activeSession(user, rider model.Coordinate) *model.RideSession {
	return &model.RideSession{
		UserLocation:  user,
		Destination:   user,
		RiderLocation: rider,
		IsActive:      true,
	}
}

func TestTickMovesRiderByStep(t *testing.T) {
	sim := NewSimulator(DefaultStep, ArrivalAnyAxis, nil)
	s := activeSession(model.Coordinate{Latitude: 12.0, Longitude: 77.0}, model.Coordinate{Latitude: 12.9, Longitude: 77.6})

	res, err := sim.Tick(s)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if res != model.Continuing {
		t.Fatalf("result = %v, want Continuing", res)
	}
	want := model.Coordinate{Latitude: 12.8994, Longitude: 77.5994}
	if !s.RiderLocation.Near(want, eps) {
		t.Fatalf("rider = %+v, want %+v", s.RiderLocation, want)
	}
	if s.Ticks != 1 || s.Version != 1 {
		t.Errorf("ticks=%d version=%d, want 1/1", s.Ticks, s.Version)
	}
}

func TestTickDecreasesStrictlyByStep(t *testing.T) {
	sim := NewSimulator(DefaultStep, ArrivalAnyAxis, nil)
	s := activeSession(model.Coordinate{Latitude: 0, Longitude: 0}, model.Coordinate{Latitude: 1, Longitude: 2})

	for i := 0; i < 50; i++ {
		before := s.RiderLocation
		if _, err := sim.Tick(s); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		dLat := before.Latitude - s.RiderLocation.Latitude
		dLng := before.Longitude - s.RiderLocation.Longitude
		if math.Abs(dLat-DefaultStep) > eps || math.Abs(dLng-DefaultStep) > eps {
			t.Fatalf("tick %d moved by (%v, %v)", i, dLat, dLng)
		}
	}
}

func TestArrivalPredicate(t *testing.T) {
	user := model.Coordinate{Latitude: 10, Longitude: 20}
	tests := []struct {
		name   string
		rider  model.Coordinate
		policy ArrivalPolicy
		want   bool
	}{
		{"both above", model.Coordinate{Latitude: 10.1, Longitude: 20.1}, ArrivalAnyAxis, false},
		{"lat reached", model.Coordinate{Latitude: 10, Longitude: 20.1}, ArrivalAnyAxis, true},
		{"lng below", model.Coordinate{Latitude: 10.1, Longitude: 19.9}, ArrivalAnyAxis, true},
		{"both below", model.Coordinate{Latitude: 9, Longitude: 19}, ArrivalAnyAxis, true},
		{"both policy one axis", model.Coordinate{Latitude: 10, Longitude: 20.1}, ArrivalBothAxes, false},
		{"both policy both axes", model.Coordinate{Latitude: 10, Longitude: 20}, ArrivalBothAxes, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := NewSimulator(DefaultStep, tt.policy, nil)
			if got := sim.Arrived(*activeSession(user, tt.rider)); got != tt.want {
				t.Errorf("Arrived = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArrivalAfterSeededOffset(t *testing.T) {
	sim := NewSimulator(DefaultStep, ArrivalAnyAxis, nil)
	s := &model.RideSession{}
	s.Seed(model.Coordinate{Latitude: 12.9, Longitude: 77.6}, DefaultRiderOffset, sim.now())

	if !s.RiderLocation.Near(model.Coordinate{Latitude: 12.950022, Longitude: 77.650022}, eps) {
		t.Fatalf("seeded rider = %+v", s.RiderLocation)
	}

	ticks := 0
	for {
		ticks++
		res, err := sim.Tick(s)
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		if res == model.Arrived {
			break
		}
		if ticks > 1000 {
			t.Fatal("rider never arrived")
		}
	}
	if ticks != 84 {
		t.Fatalf("arrived after %d ticks, want 84", ticks)
	}
	if s.RiderLocation.Latitude > 12.9 {
		t.Errorf("latitude %v not past target", s.RiderLocation.Latitude)
	}
}

func TestArrivalIsLatched(t *testing.T) {
	sim := NewSimulator(DefaultStep, ArrivalAnyAxis, nil)
	s := activeSession(model.Coordinate{Latitude: 5, Longitude: 5}, model.Coordinate{Latitude: 5.0003, Longitude: 6})

	res, _ := sim.Tick(s)
	if res != model.Arrived {
		t.Fatalf("first tick = %v, want Arrived", res)
	}
	for i := 0; i < 20; i++ {
		if res, _ := sim.Tick(s); res != model.Arrived {
			t.Fatalf("tick %d after arrival = %v", i, res)
		}
	}
}

func TestTickOnInactiveSessionIsPreconditionViolation(t *testing.T) {
	sim := NewSimulator(DefaultStep, ArrivalAnyAxis, nil)
	rider := model.Coordinate{Latitude: 1, Longitude: 1}
	s := &model.RideSession{RiderLocation: rider}

	res, err := sim.Tick(s)
	if !errors.Is(err, myerrors.ErrPreconditionViolation) {
		t.Fatalf("err = %v, want ErrPreconditionViolation", err)
	}
	if res != model.Arrived {
		t.Errorf("result = %v, want Arrived", res)
	}
	if s.RiderLocation != rider || s.Version != 0 {
		t.Error("inactive session was mutated")
	}

	if _, err := sim.Tick(nil); !errors.Is(err, myerrors.ErrPreconditionViolation) {
		t.Errorf("nil session err = %v", err)
	}
}

func TestParseArrivalPolicy(t *testing.T) {
	if p, err := ParseArrivalPolicy(""); err != nil || p != ArrivalAnyAxis {
		t.Errorf("empty = %q, %v", p, err)
	}
	if p, err := ParseArrivalPolicy("both"); err != nil || p != ArrivalBothAxes {
		t.Errorf("both = %q, %v", p, err)
	}
	if _, err := ParseArrivalPolicy("nearest"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
