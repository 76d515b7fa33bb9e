package control

import (
	"fmt"

	"github.com/ayusman/handlevel/internal/gesture"
)

// Direction is the sense in which the control value is moving.
type Direction int

const (
	// Hold leaves the value where it is.
	Hold Direction = iota
	// Increase raises the value by one step per tick.
	Increase
	// Decrease lowers the value by one step per tick.
	Decrease
)

var directionNames = [...]string{
	Hold:     "hold",
	Increase: "increase",
	Decrease: "decrease",
}

func (d Direction) String() string {
	if d >= 0 && int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if d < 0 || int(d) >= len(directionNames) {
		return nil, fmt.Errorf("unknown direction %d", int(d))
	}
	return []byte(directionNames[d]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	for i, name := range directionNames {
		if name == string(text) {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("unknown direction %q", text)
}

// sign is the multiplier applied to the step on each tick.
func (d Direction) sign() float64 {
	switch d {
	case Increase:
		return 1
	case Decrease:
		return -1
	}
	return 0
}

// DirectionFor maps a gesture to the direction it steers.
// Everything but IndexUp and IndexDown holds, OpenPalm included.
func DirectionFor(s gesture.State) Direction {
	switch s {
	case gesture.IndexUp:
		return Increase
	case gesture.IndexDown:
		return Decrease
	}
	return Hold
}
