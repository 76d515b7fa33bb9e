package capture

import (
	"testing"
	"time"
)

func TestGate(t *testing.T) {
	g := NewGate(2 * time.Second)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if g.Active() || g.FPS() != IdleFPS {
		t.Fatal("gate should start idle")
	}

	steps := []struct {
		at         time.Duration
		motion     bool
		wantChange bool
		wantActive bool
	}{
		{0, false, false, false},
		{100 * time.Millisecond, true, true, true},
		{200 * time.Millisecond, true, false, true},
		{1 * time.Second, false, false, true},
		{2200 * time.Millisecond, false, false, true},
		{2300 * time.Millisecond, false, true, false},
		{2400 * time.Millisecond, false, false, false},
		{3 * time.Second, true, true, true},
	}

	for i, s := range steps {
		changed := g.Observe(s.motion, start.Add(s.at))
		if changed != s.wantChange || g.Active() != s.wantActive {
			t.Errorf("step %d: changed=%v active=%v, want %v %v", i, changed, g.Active(), s.wantChange, s.wantActive)
		}
	}

	if g.FPS() != ActiveFPS {
		t.Errorf("FPS() = %d, want %d", g.FPS(), ActiveFPS)
	}
	if g.Interval() != time.Second/ActiveFPS {
		t.Errorf("Interval() = %s", g.Interval())
	}
}

func TestNewGate_DefaultTimeout(t *testing.T) {
	if g := NewGate(0); g.idleTimeout != DefaultIdleTimeout {
		t.Errorf("idleTimeout = %s, want %s", g.idleTimeout, DefaultIdleTimeout)
	}
}
