package services

import (
	"context"
	"sync"
	"testing"
	"time"

	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/ports/driven"
)

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// manualClock hands out tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 9, 11, 10, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTicker(time.Duration) driven.ITicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *manualClock) active() []*manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTicker
	for _, t := range c.tickers {
		if !t.isStopped() {
			out = append(out, t)
		}
	}
	return out
}

// tick fires the single running ticker n times.
func (c *manualClock) tick(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		active := c.active()
		if len(active) != 1 {
			t.Fatalf("tick %d: want exactly one running ticker, got %d", i+1, len(active))
		}
		c.mu.Lock()
		c.now = c.now.Add(time.Second)
		now := c.now
		c.mu.Unlock()
		select {
		case active[0].ch <- now:
		case <-time.After(time.Second):
			t.Fatalf("tick %d: loop did not accept tick", i+1)
		}
	}
}

type fakeRouter struct {
	mu       sync.Mutex
	requests []model.RouteRequest
	route    model.Route
	err      error
	release  chan struct{}
}

func (r *fakeRouter) Route(ctx context.Context, req model.RouteRequest) (model.Route, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	route, err, release := r.route, r.err, r.release
	r.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return model.Route{}, ctx.Err()
		}
	}
	return route, err
}

func (r *fakeRouter) set(route model.Route, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route, r.err = route, err
}

func (r *fakeRouter) calls() []model.RouteRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.RouteRequest(nil), r.requests...)
}

type fakeDisplay struct {
	mu      sync.Mutex
	routes  []model.Route
	markers []model.Marker
}

func (d *fakeDisplay) ShowRoute(_ context.Context, route model.Route) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes = append(d.routes, route)
	return nil
}

func (d *fakeDisplay) PlaceMarker(_ context.Context, marker model.Marker) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.markers = append(d.markers, marker)
	return nil
}

func (d *fakeDisplay) shown() []model.Route {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Route(nil), d.routes...)
}

func (d *fakeDisplay) placed() []model.Marker {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Marker(nil), d.markers...)
}

type fakePopup struct {
	mu    sync.Mutex
	count int
}

func (p *fakePopup) Present(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	return nil
}

func (p *fakePopup) presented() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

type fakeLocation struct {
	mu            sync.Mutex
	authRequests  int
	startUpdating int
}

func (l *fakeLocation) RequestAuthorization(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.authRequests++
	return nil
}

func (l *fakeLocation) StartUpdating(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startUpdating++
	return nil
}

func (l *fakeLocation) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.authRequests, l.startUpdating
}

type fakeTelemetry struct {
	mu     sync.Mutex
	events []messagebrokerdto.Event
}

func (f *fakeTelemetry) Report(_ context.Context, e messagebrokerdto.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeTelemetry) count(kind messagebrokerdto.EventKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (f *fakeTelemetry) last(kind messagebrokerdto.EventKind) (messagebrokerdto.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Kind == kind {
			return f.events[i], true
		}
	}
	return messagebrokerdto.Event{}, false
}
