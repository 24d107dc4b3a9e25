package driven

import "time"

type IClock interface {
	Now() time.Time
	NewTicker(d time.Duration) ITicker
}

type ITicker interface {
	C() <-chan time.Time
	Stop()
}
