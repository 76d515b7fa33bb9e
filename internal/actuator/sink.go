// Package actuator applies the normalized control value to its output.
package actuator

import "math"

// Sink receives the control value on every loop tick.
// Implementations must return quickly; SetLevel is called with the control
// loop locked.
type Sink interface {
	SetLevel(v float64)
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(v float64)

// SetLevel calls f(v).
func (f SinkFunc) SetLevel(v float64) {
	f(v)
}

type tee []Sink

func (t tee) SetLevel(v float64) {
	for _, s := range t {
		s.SetLevel(v)
	}
}

// Tee returns a Sink that forwards every level to each of sinks in order.
// Nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// Clamp limits v to [0, 1]. NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
