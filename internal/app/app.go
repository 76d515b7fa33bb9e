// Package app runs the camera pipeline that feeds detected hands into a session.
package app

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ayusman/handlevel/internal/capture"
	"github.com/ayusman/handlevel/internal/detector"
	"github.com/ayusman/handlevel/internal/session"
)

// Config holds configuration options for the application.
type Config struct {
	// Camera overrides the device camera built from CameraID.
	Camera   capture.Camera
	CameraID int
	// MotionThresh is the changed-pixel percentage that counts as motion.
	MotionThresh float64
	// IdleTimeout is how long without motion before dropping to the idle frame rate.
	IdleTimeout time.Duration
	// Detector overrides the MediaPipe detector.
	Detector detector.Detector
}

// App owns the camera, motion gate and detector of one session.
type App struct {
	config   Config
	session  *session.Session
	camera   capture.Camera
	motion   *capture.MotionDetector
	gate     *capture.Gate
	preview  *capture.Preview
	detector detector.Detector

	mu     sync.RWMutex
	stopCh chan struct{}
	done   chan struct{}
}

// New creates an App that feeds s. Without a configured detector it tries
// MediaPipe; if that is unavailable the failure is recorded on the session.
func New(config Config, s *session.Session) *App {
	a := &App{
		config:  config,
		session: s,
		camera:  config.Camera,
		motion:  capture.NewMotionDetector(config.MotionThresh),
		gate:    capture.NewGate(config.IdleTimeout),
		preview: capture.NewPreview(),
	}
	if a.camera == nil {
		cc := capture.DefaultCameraConfig()
		cc.DeviceID = config.CameraID
		a.camera = capture.NewCamera(cc)
	}

	if config.Detector != nil {
		a.detector = config.Detector
	} else if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available: %v", err)
		s.Fail(err)
	}

	return a
}

// SetDetector swaps the hand detector and clears a recorded detector failure.
// The session stays disabled until enabled again.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	old := a.detector
	a.detector = d
	a.mu.Unlock()

	if old != nil && old != d {
		if err := old.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	if d != nil && errors.Is(a.session.Failure(), detector.ErrUnavailable) {
		a.session.ClearFailure()
	}
}

// Detector returns the hand detector, or nil if none is available.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Start opens the camera and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.gate.FPS())

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the pipeline, disables the session and releases the camera and
// detector. It is safe to call more than once.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	a.session.Disable()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()
	a.preview.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	if stopCh != nil {
		log.Println("Detection pipeline stopped")
	}
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Session returns the session the pipeline feeds.
func (a *App) Session() *session.Session {
	return a.session
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Preview returns the annotated frame feed of the stream endpoint.
func (a *App) Preview() *capture.Preview {
	return a.preview
}
