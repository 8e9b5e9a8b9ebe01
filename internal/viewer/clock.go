package viewer

import "time"

// Ticker is the part of time.Ticker the session needs.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

type realTicker struct {
	t *time.Ticker
}

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) Chan() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()                  { r.t.Stop() }

// RealClock ticks on wall time.
func RealClock() Clock {
	return realClock{}
}
