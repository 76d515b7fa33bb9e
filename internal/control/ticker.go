package control

import "time"

// Ticker delivers ticks until stopped. It mirrors time.Ticker so tests can drive
// the loop by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a running Ticker with the given period.
type TickerFactory func(period time.Duration) Ticker

// NewTicker is the default TickerFactory, backed by time.Ticker.
func NewTicker(period time.Duration) Ticker {
	return realTicker{ticker: time.NewTicker(period)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (t realTicker) C() <-chan time.Time { return t.ticker.C }

func (t realTicker) Stop() { t.ticker.Stop() }
