package clock

import (
	"time"

	"ride-sim/internal/ride-sim/core/ports/driven"
)

// Real is the wall clock.
type Real struct{}

var _ driven.IClock = Real{}

func New() Real { return Real{} }

func (Real) Now() time.Time { return time.Now() }

func (Real) NewTicker(d time.Duration) driven.ITicker {
	return &ticker{t: time.NewTicker(d)}
}

type ticker struct {
	t *time.Ticker
}

func (t *ticker) C() <-chan time.Time { return t.t.C }

func (t *ticker) Stop() { t.t.Stop() }
