package app

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handlevel/internal/capture"
	"github.com/ayusman/handlevel/internal/control"
	"github.com/ayusman/handlevel/internal/detector"
	"github.com/ayusman/handlevel/internal/gesture"
	"github.com/ayusman/handlevel/internal/landmark"
	"github.com/ayusman/handlevel/internal/session"
)

type testApp struct {
	*App
	camera   *capture.MockCamera
	detector *detector.MockDetector
	frame    gocv.Mat
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	det := detector.NewMockDetector()
	s := session.New(session.DefaultConfig(), nil)
	t.Cleanup(func() { s.Close() })

	a := New(Config{Camera: cam, Detector: det, IdleTimeout: time.Second}, s)
	t.Cleanup(a.Stop)

	return &testApp{App: a, camera: cam, detector: det, frame: frame}
}

func TestApp_ProcessFrame_FeedsSession(t *testing.T) {
	a := newTestApp(t)
	a.detector.SetHands([]landmark.HandLandmarks{landmark.IndexUpLandmarks()})
	if err := a.Session().Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	now := time.Now()
	a.processFrame(&a.frame, now)
	a.processFrame(&a.frame, now.Add(66*time.Millisecond))

	snap := a.Session().Snapshot()
	if snap.Gesture != gesture.IndexUp || snap.Direction != control.Increase {
		t.Errorf("Snapshot() = %+v, want index_up increasing", snap)
	}
	if a.detector.Calls() != 2 {
		t.Errorf("detector calls = %d, want 2", a.detector.Calls())
	}
}

func TestApp_ProcessFrame_NoHand(t *testing.T) {
	a := newTestApp(t)
	a.Session().Enable()

	a.processFrame(&a.frame, time.Now())

	if snap := a.Session().Snapshot(); snap.Gesture != gesture.NoHand {
		t.Errorf("gesture = %s, want no_hand", snap.Gesture)
	}
}

func TestApp_ProcessFrame_DisabledSkipsDetection(t *testing.T) {
	a := newTestApp(t)
	a.detector.SetHands([]landmark.HandLandmarks{landmark.IndexUpLandmarks()})

	a.processFrame(&a.frame, time.Now())

	if a.detector.Calls() != 0 {
		t.Errorf("detector called %d times while disabled", a.detector.Calls())
	}
}

func TestApp_ProcessFrame_DetectorUnavailable(t *testing.T) {
	a := newTestApp(t)
	a.Session().Enable()
	a.detector.SetError(fmt.Errorf("%w: service exited", detector.ErrUnavailable))

	a.processFrame(&a.frame, time.Now())

	if a.Session().Enabled() {
		t.Error("session should be disabled after the detector became unavailable")
	}
	if !errors.Is(a.Session().Failure(), detector.ErrUnavailable) {
		t.Errorf("Failure() = %v, want ErrUnavailable", a.Session().Failure())
	}
	if err := a.Session().Enable(); err == nil {
		t.Error("Enable() should refuse while the failure is recorded")
	}

	a.SetDetector(detector.NewMockDetector())

	if a.Session().Failure() != nil {
		t.Error("SetDetector should clear the detector failure")
	}
	if err := a.Session().Enable(); err != nil {
		t.Errorf("Enable() after SetDetector = %v", err)
	}
}

func TestApp_ProcessFrame_TransientDetectorError(t *testing.T) {
	a := newTestApp(t)
	a.Session().Enable()
	a.detector.SetError(errors.New("parse response: bad json"))

	a.processFrame(&a.frame, time.Now())

	if !a.Session().Enabled() {
		t.Error("a transient detector error must not disable the session")
	}
}

func TestApp_ProcessFrame_MotionSwitchesFPS(t *testing.T) {
	a := newTestApp(t)

	white := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	now := time.Now()
	if a.processFrame(&a.frame, now) {
		t.Error("first frame only sets the motion baseline")
	}
	if !a.processFrame(&white, now.Add(200*time.Millisecond)) {
		t.Error("black to white should switch modes")
	}
	if a.camera.FPS() != capture.ActiveFPS {
		t.Errorf("FPS() = %d, want %d", a.camera.FPS(), capture.ActiveFPS)
	}

	a.processFrame(&white, now.Add(400*time.Millisecond))
	if !a.processFrame(&white, now.Add(2*time.Second)) {
		t.Error("a still scene should fall back to idle after the timeout")
	}
	if a.camera.FPS() != capture.IdleFPS {
		t.Errorf("FPS() = %d, want %d", a.camera.FPS(), capture.IdleFPS)
	}
}

func TestApp_Preview(t *testing.T) {
	a := newTestApp(t)
	a.detector.SetHands([]landmark.HandLandmarks{landmark.OpenPalmLandmarks()})
	a.Session().Enable()

	frames, cancel := a.Preview().Subscribe()
	defer cancel()

	a.processFrame(&a.frame, time.Now())

	select {
	case jpeg := <-frames:
		if !bytes.HasPrefix(jpeg, []byte{0xFF, 0xD8}) {
			t.Error("preview frame is not a JPEG")
		}
	default:
		t.Fatal("no preview frame published")
	}
}

func TestApp_StartStop(t *testing.T) {
	a := newTestApp(t)
	a.detector.SetHands([]landmark.HandLandmarks{landmark.IndexDownLandmarks()})
	a.Session().Enable()

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if !a.Running() || !a.camera.IsOpen() {
		t.Fatal("pipeline should be running with the camera open")
	}

	deadline := time.Now().Add(3 * time.Second)
	for a.detector.Calls() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("pipeline made only %d detector calls", a.detector.Calls())
		}
		time.Sleep(10 * time.Millisecond)
	}

	a.Stop()

	if a.Running() || a.camera.IsOpen() {
		t.Error("Stop should halt the pipeline and close the camera")
	}
	snap := a.Session().Snapshot()
	if snap.Enabled || snap.Direction != control.Hold || snap.Value != 0.5 {
		t.Errorf("Snapshot() after Stop = %+v", snap)
	}

	calls := a.detector.Calls()
	time.Sleep(300 * time.Millisecond)
	if a.detector.Calls() != calls {
		t.Error("detector still called after Stop")
	}
}
