package gesture

import "fmt"

// State is the discrete gesture reported for one frame.
type State int

const (
	// NoHand means no hand was present in the frame.
	NoHand State = iota
	// Neutral is a present hand with no directional or open-palm signal.
	Neutral
	// IndexUp is a stable index finger pointing up.
	IndexUp
	// IndexDown is a stable index finger pointing down.
	IndexDown
	// OpenPalm is an open hand; it pre-empts both directions.
	OpenPalm
)

var stateNames = map[State]string{
	NoHand:    "no_hand",
	Neutral:   "neutral",
	IndexUp:   "index_up",
	IndexDown: "index_down",
	OpenPalm:  "open_palm",
}

// String returns the snake_case name used in JSON and logs.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if _, ok := stateNames[s]; !ok {
		return nil, fmt.Errorf("unknown gesture state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown gesture state %q", text)
}

// Present reports whether the state describes a detected hand.
func (s State) Present() bool {
	return s != NoHand
}
