// Package gesture turns per-frame landmark features into a stable, flicker-free gesture state.
package gesture

import (
	"github.com/ayusman/handlevel/internal/feature"
	"github.com/ayusman/handlevel/internal/landmark"
)

// Config holds the classifier calibration.
type Config struct {
	// UpThreshold is the index tip offset above its MCP that signals up.
	UpThreshold float64
	// DownThreshold is the offset below the MCP that signals down.
	DownThreshold float64
	// Hysteresis is the fraction of a direction's threshold the offset must
	// reverse past, in the opposite sense, before a held direction releases.
	Hysteresis float64
	// MaxRun caps the stability counters.
	MaxRun int
	// GateRuns is the counter value a direction needs before it is reported.
	GateRuns int
	// Feature is the feature extractor calibration.
	Feature feature.Config
}

// DefaultConfig returns the calibrated instance.
func DefaultConfig() Config {
	return Config{
		UpThreshold:   0.02,
		DownThreshold: 0.01,
		Hysteresis:    0.3,
		MaxRun:        3,
		GateRuns:      2,
		Feature:       feature.DefaultConfig(),
	}
}

// Counters are the saturating run-length counters of the raw directional signals.
type Counters struct {
	Up   int
	Down int
}

// Classifier is the per hand-stream gesture state machine.
// It is not safe for concurrent use; each stream owns one instance.
type Classifier struct {
	config    Config
	extractor *feature.Extractor

	counters Counters
	// upActive and downActive are the directions reported on the last frame.
	upActive   bool
	downActive bool
	state      State
}

// NewClassifier creates a Classifier in the NoHand state.
// Non-positive fields in config fall back to DefaultConfig.
func NewClassifier(config Config) *Classifier {
	def := DefaultConfig()
	if config.UpThreshold <= 0 {
		config.UpThreshold = def.UpThreshold
	}
	if config.DownThreshold <= 0 {
		config.DownThreshold = def.DownThreshold
	}
	if config.Hysteresis <= 0 {
		config.Hysteresis = def.Hysteresis
	}
	if config.MaxRun <= 0 {
		config.MaxRun = def.MaxRun
	}
	if config.GateRuns <= 0 {
		config.GateRuns = def.GateRuns
	}
	if config.GateRuns > config.MaxRun {
		config.GateRuns = config.MaxRun
	}

	return &Classifier{
		config:    config,
		extractor: feature.NewExtractor(config.Feature),
		state:     NoHand,
	}
}

// Config returns the effective calibration.
func (c *Classifier) Config() Config {
	return c.config
}

// Classify processes one detected frame.
// A malformed landmark set returns an error wrapping landmark.ErrInvalidInput;
// in that case the classifier is untouched and the returned state is the
// retained prior state, which must not be emitted again.
func (c *Classifier) Classify(points []landmark.Point3D) (State, error) {
	v, err := c.extractor.Extract(points)
	if err != nil {
		return c.state, err
	}
	return c.Step(v), nil
}

// Step advances the state machine with a precomputed feature vector.
func (c *Classifier) Step(v feature.Vector) State {
	if v.OpenPalm() {
		// Raw directions are forced false, so the counters and held
		// directions clear as well.
		c.counters = Counters{}
		c.upActive, c.downActive = false, false
		c.state = OpenPalm
		return c.state
	}

	offset := v.IndexTipToMCPY
	rawUp := offset > c.config.UpThreshold
	rawDown := offset < -c.config.DownThreshold

	c.counters.Up = bump(c.counters.Up, rawUp, c.config.MaxRun)
	c.counters.Down = bump(c.counters.Down, rawDown, c.config.MaxRun)

	upHeld := c.upActive && offset > -c.config.Hysteresis*c.config.UpThreshold
	downHeld := c.downActive && offset < c.config.Hysteresis*c.config.DownThreshold

	up, down := resolve(
		upHeld || c.counters.Up >= c.config.GateRuns,
		downHeld || c.counters.Down >= c.config.GateRuns,
		c.counters,
	)

	c.upActive, c.downActive = up, down
	switch {
	case up:
		c.state = IndexUp
	case down:
		c.state = IndexDown
	default:
		c.state = Neutral
	}
	return c.state
}

// Absent records a frame without a hand. Counters and held directions reset
// so the next detected frame starts cold.
func (c *Classifier) Absent() State {
	c.Reset()
	return c.state
}

// Reset returns the classifier to its initial NoHand state.
func (c *Classifier) Reset() {
	c.counters = Counters{}
	c.upActive, c.downActive = false, false
	c.state = NoHand
}

// State returns the last emitted state.
func (c *Classifier) State() State {
	return c.state
}

// Counters returns the current stability counters.
func (c *Classifier) Counters() Counters {
	return c.counters
}

// bump increments a run counter up to limit while signal holds and resets it otherwise.
func bump(run int, signal bool, limit int) int {
	if !signal {
		return 0
	}
	if run < limit {
		run++
	}
	return run
}

// resolve picks at most one direction. When both qualify the longer run
// wins and a tie goes to up.
func resolve(upOK, downOK bool, runs Counters) (up, down bool) {
	if upOK && downOK {
		if runs.Down > runs.Up {
			return false, true
		}
		return true, false
	}
	return upOK, downOK
}
