package actuator

import (
	"sort"
	"sync"
	"time"
)

// MinGain is the floor applied by Gain.SetLevel.
const MinGain = 0.0001

type automation struct {
	at    time.Time
	value float64
	ramp  bool
}

// Gain is a software gain parameter with a timeline of scheduled changes,
// modelled on an audio-graph gain node.
type Gain struct {
	mu  sync.Mutex
	now func() time.Time

	// origin and base describe the value before the first event.
	origin time.Time
	base   float64
	events []automation
}

// GainOption configures a Gain.
type GainOption func(*Gain)

// WithClock replaces time.Now as the Gain's notion of the current time.
func WithClock(now func() time.Time) GainOption {
	return func(g *Gain) {
		g.now = now
	}
}

// NewGain creates a Gain whose value is initial until something is scheduled.
func NewGain(initial float64, opts ...GainOption) *Gain {
	g := &Gain{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	g.origin = g.now()
	g.base = initial
	return g
}

// SetLevel cancels every scheduled change and sets the gain immediately to
// max(MinGain, Clamp(v)).
func (g *Gain) SetLevel(v float64) {
	v = Clamp(v)
	if v < MinGain {
		v = MinGain
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.cancelLocked(now)
	g.insertLocked(automation{at: now, value: v})
	g.compactLocked(now)
}

// setValueAtTime schedules a step to v at time at.
func (g *Gain) setValueAtTime(v float64, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.insertLocked(automation{at: at, value: v})
}

// linearRampToValueAtTime schedules a linear ramp from the previous event's
// value that reaches v at time at.
func (g *Gain) linearRampToValueAtTime(v float64, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.insertLocked(automation{at: at, value: v, ramp: true})
}

// cancelScheduledValues removes every event scheduled at or after from.
func (g *Gain) cancelScheduledValues(from time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelLocked(from)
}

// scheduled returns the number of events on the timeline.
func (g *Gain) scheduled() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.events)
}

// Value returns the gain at the current time.
func (g *Gain) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.valueAtLocked(g.now())
}

// ValueAt returns the gain at time t.
func (g *Gain) ValueAt(t time.Time) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.valueAtLocked(t)
}

func (g *Gain) valueAtLocked(t time.Time) float64 {
	prevAt, prevValue := g.origin, g.base
	for _, e := range g.events {
		if !e.at.After(t) {
			prevAt, prevValue = e.at, e.value
			continue
		}
		if !e.ramp {
			break
		}
		span := e.at.Sub(prevAt)
		if span <= 0 {
			return e.value
		}
		frac := float64(t.Sub(prevAt)) / float64(span)
		return prevValue + (e.value-prevValue)*frac
	}
	return prevValue
}

func (g *Gain) insertLocked(e automation) {
	// Equal timestamps keep insertion order.
	i := sort.Search(len(g.events), func(i int) bool {
		return g.events[i].at.After(e.at)
	})
	g.events = append(g.events, automation{})
	copy(g.events[i+1:], g.events[i:])
	g.events[i] = e
}

func (g *Gain) cancelLocked(from time.Time) {
	i := sort.Search(len(g.events), func(i int) bool {
		return !g.events[i].at.Before(from)
	})
	g.events = g.events[:i]
}

// compactLocked folds every event at or before now into the base value.
func (g *Gain) compactLocked(now time.Time) {
	i := sort.Search(len(g.events), func(i int) bool {
		return g.events[i].at.After(now)
	})
	if i == 0 {
		return
	}
	last := g.events[i-1]
	g.origin, g.base = last.at, last.value
	g.events = append(g.events[:0], g.events[i:]...)
}
