package services

import (
	"context"
	"testing"
)

func TestSchedulerDispatchesEveryN(t *testing.T) {
	clock := newManualClock()
	s := NewScheduler(clock, 0)

	var fast, slow []int
	s.Subscribe("fast", 1, func(_ context.Context, n int) { fast = append(fast, n) })
	s.Subscribe("slow", 3, func(_ context.Context, n int) { slow = append(slow, n) })

	s.Start()
	for i := 0; i < 7; i++ {
		s.Dispatch(context.Background())
	}

	if len(fast) != 7 {
		t.Errorf("fast ran %d times", len(fast))
	}
	if len(slow) != 2 || slow[0] != 3 || slow[1] != 6 {
		t.Errorf("slow ran at %v, want [3 6]", slow)
	}
}

func TestSchedulerStopInsideHandlerSkipsRest(t *testing.T) {
	clock := newManualClock()
	s := NewScheduler(clock, 0)

	ranSecond := false
	s.Subscribe("first", 1, func(context.Context, int) { s.Stop() })
	s.Subscribe("second", 1, func(context.Context, int) { ranSecond = true })

	s.Start()
	s.Dispatch(context.Background())

	if ranSecond {
		t.Error("second subscriber ran after stop")
	}
	if s.Running() || s.C() != nil {
		t.Error("scheduler should be stopped")
	}

	s.Dispatch(context.Background())
	if ranSecond {
		t.Error("dispatch on stopped scheduler ran subscribers")
	}
}

func TestSchedulerStartReplacesTicker(t *testing.T) {
	clock := newManualClock()
	s := NewScheduler(clock, 0)

	s.Start()
	s.Start()

	if clock.created() != 2 {
		t.Fatalf("created %d tickers", clock.created())
	}
	if n := len(clock.active()); n != 1 {
		t.Fatalf("%d running tickers, want 1", n)
	}
}
