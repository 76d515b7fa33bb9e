package capture

import "time"

// Frame rates of the two pipeline modes.
const (
	IdleFPS   = 5
	ActiveFPS = 15
)

// DefaultIdleTimeout is how long without motion before the gate goes idle.
const DefaultIdleTimeout = 2 * time.Second

// Gate tracks whether the scene is active from per-frame motion results.
// Motion switches it active at once; it falls back to idle after the idle
// timeout passes without motion. It is not safe for concurrent use.
type Gate struct {
	idleTimeout time.Duration
	active      bool
	lastMotion  time.Time
}

// NewGate creates an idle Gate. A non-positive timeout uses DefaultIdleTimeout.
func NewGate(idleTimeout time.Duration) *Gate {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Gate{idleTimeout: idleTimeout}
}

// Observe records one frame's motion result at now and reports whether the
// mode changed.
func (g *Gate) Observe(motion bool, now time.Time) bool {
	if motion {
		g.lastMotion = now
		if !g.active {
			g.active = true
			return true
		}
		return false
	}
	if g.active && now.Sub(g.lastMotion) > g.idleTimeout {
		g.active = false
		return true
	}
	return false
}

// Active reports whether the gate is in active mode.
func (g *Gate) Active() bool {
	return g.active
}

// FPS returns the frame rate for the current mode.
func (g *Gate) FPS() int {
	if g.active {
		return ActiveFPS
	}
	return IdleFPS
}

// Interval returns the frame interval for the current mode.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
