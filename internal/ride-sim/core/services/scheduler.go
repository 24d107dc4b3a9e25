package services

import (
	"context"
	"time"

	"ride-sim/internal/ride-sim/core/ports/driven"
)

type subscription struct {
	name   string
	every  int
	handle func(ctx context.Context, tick int)
}

// Scheduler is the single clock of a session. Subscribers run on the
// caller's goroutine from Dispatch, in registration order. A subscriber that
// stops the scheduler prevents the remaining ones from running for that tick.
type Scheduler struct {
	clock    driven.IClock
	interval time.Duration
	ticker   driven.ITicker
	ticks    int
	subs     []subscription
}

func NewScheduler(clock driven.IClock, interval time.Duration) *Scheduler {
	return &Scheduler{
		clock:    clock,
		interval: interval,
	}
}

// Subscribe registers handle to run on every n-th tick.
func (s *Scheduler) Subscribe(name string, every int, handle func(ctx context.Context, tick int)) {
	if every < 1 {
		every = 1
	}
	s.subs = append(s.subs, subscription{name: name, every: every, handle: handle})
}

// Start arms the clock, replacing any running ticker.
func (s *Scheduler) Start() {
	s.Stop()
	s.ticks = 0
	s.ticker = s.clock.NewTicker(s.interval)
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *Scheduler) Running() bool {
	return s.ticker != nil
}

// C is nil while stopped, so selecting on it blocks.
func (s *Scheduler) C() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C()
}

func (s *Scheduler) Dispatch(ctx context.Context) {
	if s.ticker == nil {
		return
	}
	s.ticks++
	for _, sub := range s.subs {
		if s.ticks%sub.every != 0 {
			continue
		}
		sub.handle(ctx, s.ticks)
		if s.ticker == nil {
			return
		}
	}
}
