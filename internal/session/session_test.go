package session

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/handlevel/internal/control"
	"github.com/ayusman/handlevel/internal/gesture"
	"github.com/ayusman/handlevel/internal/landmark"
)

type manualTicker struct {
	c chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop()               {}

type manualTickers struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (m *manualTickers) New(time.Duration) control.Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{c: make(chan time.Time)}
	m.tickers = append(m.tickers, t)
	return t
}

func (m *manualTickers) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

func (m *manualTickers) Last() *manualTicker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickers[len(m.tickers)-1]
}

type levelRecorder chan float64

func (r levelRecorder) SetLevel(v float64) { r <- v }

type harness struct {
	t       *testing.T
	session *Session
	tickers *manualTickers
	levels  levelRecorder
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:       t,
		tickers: &manualTickers{},
		levels:  make(levelRecorder, 256),
	}
	h.session = New(DefaultConfig(), h.levels, control.WithTicker(h.tickers.New))
	t.Cleanup(func() { h.session.Close() })
	return h
}

func (h *harness) frame(hand landmark.HandLandmarks) gesture.State {
	h.t.Helper()
	s, err := h.session.Process(Frame{Landmarks: &hand, Timestamp: time.Now()})
	if err != nil {
		h.t.Fatalf("Process() error = %v", err)
	}
	return s
}

func (h *harness) tick(n int) float64 {
	h.t.Helper()
	var v float64
	for i := 0; i < n; i++ {
		select {
		case h.tickers.Last().c <- time.Now():
		case <-time.After(2 * time.Second):
			h.t.Fatalf("tick %d not received", i)
		}
		select {
		case v = <-h.levels:
		case <-time.After(2 * time.Second):
			h.t.Fatalf("tick %d never reached the sink", i)
		}
	}
	return v
}

func TestSession_StartsDisabled(t *testing.T) {
	h := newHarness(t)

	s, err := h.session.Process(Frame{})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if s != gesture.NoHand {
		t.Errorf("state = %s, want no_hand", s)
	}
	if snap := h.session.Snapshot(); snap.Enabled || snap.Value != 0.5 {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestSession_IndexUpRaisesValue(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	if s := h.frame(landmark.IndexUpLandmarks()); s != gesture.Neutral {
		t.Errorf("first frame = %s, want neutral", s)
	}
	if h.tickers.Count() != 0 {
		t.Error("ticker started before the gesture was stable")
	}
	for i := 0; i < 3; i++ {
		if s := h.frame(landmark.IndexUpLandmarks()); s != gesture.IndexUp {
			t.Errorf("frame %d = %s, want index_up", i+2, s)
		}
	}
	if h.tickers.Count() != 1 {
		t.Fatalf("expected 1 ticker for a held gesture, got %d", h.tickers.Count())
	}

	v := h.tick(10)
	if math.Abs(v-0.7) > 1e-9 {
		t.Errorf("value after 10 ticks = %v, want 0.7", v)
	}

	snap := h.session.Snapshot()
	if snap.Gesture != gesture.IndexUp || snap.Direction != control.Increase || math.Abs(snap.Value-0.7) > 1e-9 {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestSession_OpenPalmHoldsValue(t *testing.T) {
	h := newHarness(t)
	h.session.Enable()

	h.frame(landmark.IndexUpLandmarks())
	h.frame(landmark.IndexUpLandmarks())
	h.tick(5)

	if s := h.frame(landmark.OpenPalmLandmarks()); s != gesture.OpenPalm {
		t.Fatalf("got %s, want open_palm", s)
	}

	snap := h.session.Snapshot()
	if snap.Direction != control.Hold || math.Abs(snap.Value-0.6) > 1e-9 {
		t.Errorf("Snapshot() = %+v, want value 0.6 holding", snap)
	}
	select {
	case h.tickers.Last().c <- time.Now():
	case <-time.After(50 * time.Millisecond):
	}
	select {
	case v := <-h.levels:
		t.Errorf("sink called with %v while holding", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSession_DisableMidMovement(t *testing.T) {
	h := newHarness(t)
	h.session.Enable()

	h.frame(landmark.IndexDownLandmarks())
	h.frame(landmark.IndexDownLandmarks())
	h.tick(3)
	ticker := h.tickers.Last()

	h.session.Disable()

	snap := h.session.Snapshot()
	if snap.Enabled || snap.Value != 0.5 || snap.Direction != control.Hold || snap.Gesture != gesture.NoHand {
		t.Errorf("Snapshot() after Disable = %+v", snap)
	}

	select {
	case ticker.c <- time.Now():
	case <-time.After(50 * time.Millisecond):
	}
	select {
	case v := <-h.levels:
		t.Errorf("sink called with %v after Disable", v)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := h.session.Process(Frame{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}

func TestSession_NoHandFrame(t *testing.T) {
	h := newHarness(t)
	h.session.Enable()

	h.frame(landmark.IndexUpLandmarks())
	h.frame(landmark.IndexUpLandmarks())

	s, err := h.session.Process(Frame{Landmarks: nil})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if s != gesture.NoHand {
		t.Errorf("state = %s, want no_hand", s)
	}
	if snap := h.session.Snapshot(); snap.Direction != control.Hold {
		t.Errorf("no hand should hold, got %s", snap.Direction)
	}
}

func TestSession_InvalidFrame(t *testing.T) {
	h := newHarness(t)
	h.session.Enable()
	h.frame(landmark.IndexUpLandmarks())
	h.frame(landmark.IndexUpLandmarks())

	updates, cancel := h.session.Subscribe()
	defer cancel()
	<-updates

	bad := landmark.HandLandmarks{Points: make([]landmark.Point3D, 5)}
	s, err := h.session.Process(Frame{Landmarks: &bad})

	if !errors.Is(err, landmark.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if s != gesture.IndexUp {
		t.Errorf("retained state = %s, want index_up", s)
	}
	select {
	case snap := <-updates:
		t.Errorf("invalid frame published %+v", snap)
	default:
	}
}

func TestSession_FailBlocksEnable(t *testing.T) {
	h := newHarness(t)
	h.session.Enable()

	errCamera := errors.New("camera gone")
	h.session.Fail(errCamera)

	if h.session.Enabled() {
		t.Error("failed session should be disabled")
	}
	if snap := h.session.Snapshot(); snap.Err == "" {
		t.Error("snapshot should carry the failure")
	}
	if err := h.session.Enable(); !errors.Is(err, errCamera) {
		t.Errorf("Enable() = %v, want %v", err, errCamera)
	}

	h.session.ClearFailure()
	if err := h.session.Enable(); err != nil {
		t.Errorf("Enable() after ClearFailure = %v", err)
	}
}

func TestSession_EnableResets(t *testing.T) {
	h := newHarness(t)
	h.session.Enable()
	h.frame(landmark.IndexUpLandmarks())
	h.frame(landmark.IndexUpLandmarks())
	h.tick(4)

	if err := h.session.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	snap := h.session.Snapshot()
	if snap.Value != 0.5 || snap.Direction != control.Hold || snap.Gesture != gesture.NoHand {
		t.Errorf("Snapshot() after Enable = %+v", snap)
	}
	// The classifier restarted cold.
	if s := h.frame(landmark.IndexUpLandmarks()); s != gesture.Neutral {
		t.Errorf("first frame after Enable = %s, want neutral", s)
	}
}

func TestSession_SubscribeLatestValue(t *testing.T) {
	h := newHarness(t)

	updates, cancel := h.session.Subscribe()

	first := <-updates
	if first.Enabled {
		t.Errorf("initial snapshot = %+v", first)
	}

	// Nobody reads while several snapshots are published.
	h.session.Enable()
	h.frame(landmark.IndexUpLandmarks())
	h.frame(landmark.IndexUpLandmarks())
	h.tick(2)

	// The tick observer publishes after the sink call, so the final
	// snapshot may trail h.tick by a moment.
	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case snap := <-updates:
			if !snap.Enabled || snap.Gesture != gesture.IndexUp {
				t.Fatalf("unexpected snapshot %+v", snap)
			}
			done = math.Abs(snap.Value-0.54) < 1e-9
		case <-timeout:
			t.Fatal("latest snapshot never delivered")
		}
	}

	cancel()
	cancel()
	if _, ok := <-updates; ok {
		t.Error("channel should be closed after cancel")
	}
}

func TestSession_Configure(t *testing.T) {
	h := newHarness(t)
	h.session.Enable()

	slow := Config{Gesture: gesture.DefaultConfig(), Control: control.SlowConfig()}
	h.session.Configure(slow)

	if got := h.session.Config().Control; got != control.SlowConfig() {
		t.Errorf("Config().Control = %+v", got)
	}

	h.frame(landmark.IndexUpLandmarks())
	h.frame(landmark.IndexUpLandmarks())
	v := h.tick(1)
	if math.Abs(v-0.51) > 1e-9 {
		t.Errorf("value = %v, want 0.51 with the slow step", v)
	}
}

func TestSession_CloseClosesSubscribers(t *testing.T) {
	h := newHarness(t)
	updates, _ := h.session.Subscribe()
	<-updates

	h.session.Close()

	if _, ok := <-updates; ok {
		t.Error("channel should be closed by Close")
	}
}
