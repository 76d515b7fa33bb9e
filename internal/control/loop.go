// Package control moves a normalized value at a fixed rate in the direction
// the current gesture asks for.
package control

import (
	"math"
	"sync"
	"time"

	"github.com/ayusman/handlevel/internal/actuator"
	"github.com/ayusman/handlevel/internal/gesture"
)

// Config holds the loop rate settings.
type Config struct {
	// Period is the tick interval.
	Period time.Duration
	// Step is the value change per tick.
	Step float64
	// Default is the value after Reset.
	Default float64
}

// DefaultConfig returns the fast profile: 0.02 every 33ms.
func DefaultConfig() Config {
	return Config{
		Period:  33 * time.Millisecond,
		Step:    0.02,
		Default: 0.5,
	}
}

// SlowConfig returns the slow profile: 0.01 every 100ms.
func SlowConfig() Config {
	return Config{
		Period:  100 * time.Millisecond,
		Step:    0.01,
		Default: 0.5,
	}
}

// State is a snapshot of the loop.
type State struct {
	Value     float64   `json:"value"`
	Direction Direction `json:"direction"`
}

// Option configures a Loop.
type Option func(*Loop)

// WithTicker replaces NewTicker as the source of tickers.
func WithTicker(f TickerFactory) Option {
	return func(l *Loop) {
		l.newTicker = f
	}
}

// WithInitial starts the loop at v instead of the config default. Reset
// still returns to the default.
func WithInitial(v float64) Option {
	return func(l *Loop) {
		l.initial = &v
	}
}

// WithObserver registers fn to receive the state after every tick.
// fn runs on the tick goroutine without the loop lock held, so it may call
// back into the Loop.
func WithObserver(fn func(State)) Option {
	return func(l *Loop) {
		l.observer = fn
	}
}

// run is one ticker's lifetime. A tick only counts while its run is still the
// loop's current one.
type run struct {
	ticker Ticker
	stop   chan struct{}
}

// Loop owns the control value and at most one running ticker.
// All methods are safe for concurrent use.
type Loop struct {
	sink      actuator.Sink
	newTicker TickerFactory
	observer  func(State)
	initial   *float64

	mu     sync.Mutex
	config Config
	state  State
	run    *run
}

// NewLoop creates a Loop holding config.Default, or the WithInitial value.
// A non-positive Period or Step and a Default outside [0, 1] fall back to
// DefaultConfig.
func NewLoop(config Config, sink actuator.Sink, opts ...Option) *Loop {
	l := &Loop{
		sink:      sink,
		newTicker: NewTicker,
		config:    normalize(config),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sink == nil {
		l.sink = actuator.SinkFunc(func(float64) {})
	}
	l.state = State{Value: l.config.Default, Direction: Hold}
	if l.initial != nil {
		l.state.Value = actuator.Clamp(*l.initial)
	}
	return l
}

func normalize(config Config) Config {
	def := DefaultConfig()
	if config.Period <= 0 {
		config.Period = def.Period
	}
	if config.Step <= 0 {
		config.Step = def.Step
	}
	if math.IsNaN(config.Default) || config.Default < 0 || config.Default > 1 {
		config.Default = def.Default
	}
	return config
}

// SetDirection steers the loop from a gesture state.
func (l *Loop) SetDirection(s gesture.State) {
	l.Steer(DirectionFor(s))
}

// Steer sets the direction. Setting the current direction is a no-op and
// returns false. Otherwise the running ticker, if any, is cancelled before
// Steer returns and a non-Hold direction starts a new one.
func (l *Loop) Steer(d Direction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d == l.state.Direction {
		return false
	}
	l.cancelLocked()
	l.state.Direction = d
	if d != Hold {
		l.startLocked()
	}
	return true
}

// Reset cancels the ticker and returns to the default value holding.
func (l *Loop) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cancelLocked()
	l.state = State{Value: l.config.Default, Direction: Hold}
}

// SetConfig replaces the rate settings. A running ticker is restarted with
// the new period; the value is kept.
func (l *Loop) SetConfig(config Config) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.config = normalize(config)
	if l.run != nil {
		l.cancelLocked()
		l.startLocked()
	}
}

// Config returns the effective rate settings.
func (l *Loop) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config
}

// State returns a snapshot of the value and direction.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Running reports whether a ticker is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.run != nil
}

// Close cancels the ticker and leaves the value as is.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cancelLocked()
	l.state.Direction = Hold
	return nil
}

func (l *Loop) startLocked() {
	r := &run{
		ticker: l.newTicker(l.config.Period),
		stop:   make(chan struct{}),
	}
	l.run = r
	go l.tick(r)
}

func (l *Loop) cancelLocked() {
	if l.run == nil {
		return
	}
	close(l.run.stop)
	l.run.ticker.Stop()
	l.run = nil
}

func (l *Loop) tick(r *run) {
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C():
			state, ok := l.advance(r)
			if !ok {
				return
			}
			if l.observer != nil {
				l.observer(state)
			}
		}
	}
}

// advance applies one tick of r. It reports false once r has been cancelled.
func (l *Loop) advance(r *run) (State, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.run != r {
		return State{}, false
	}
	l.state.Value = actuator.Clamp(l.state.Value + l.config.Step*l.state.Direction.sign())
	l.sink.SetLevel(l.state.Value)
	return l.state, true
}
