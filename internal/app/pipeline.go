package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handlevel/internal/capture"
	"github.com/ayusman/handlevel/internal/detector"
	"github.com/ayusman/handlevel/internal/landmark"
	"github.com/ayusman/handlevel/internal/session"
)

// runPipeline reads frames at the gate's rate until stopCh closes.
//
// Motion only picks the frame rate: idle at 5 fps, active at 15 fps after
// motion, back to idle after the idle timeout. Detection runs on every frame
// while the session is enabled, since a hand held still must keep steering.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.gate.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}
			if a.processFrame(frame, now) {
				ticker.Reset(a.gate.Interval())
			}
			frame.Close()
		}
	}
}

// processFrame runs one frame through motion gating, detection, the session
// and the preview. It reports whether the frame rate changed.
func (a *App) processFrame(frame *gocv.Mat, now time.Time) bool {
	motion, _ := a.motion.Detect(frame)
	changed := a.gate.Observe(motion, now)
	if changed {
		a.camera.SetFPS(a.gate.FPS())
		if a.gate.Active() {
			log.Println("Switched to active mode")
		} else {
			log.Println("Switched to idle mode")
		}
	}

	var hand *landmark.HandLandmarks
	if a.session.Enabled() {
		hand = a.detect(frame, now)
	}

	if a.preview.Viewers() > 0 {
		a.publishPreview(frame, hand)
	}
	return changed
}

// detect finds the primary hand and hands it to the session.
func (a *App) detect(frame *gocv.Mat, now time.Time) *landmark.HandLandmarks {
	d := a.Detector()
	if d == nil {
		return nil
	}

	hands, err := d.Detect(frame)
	if err != nil {
		if errors.Is(err, detector.ErrUnavailable) {
			a.session.Fail(err)
		} else {
			log.Printf("Error detecting hands: %v", err)
		}
		return nil
	}

	hand := detector.Primary(hands)
	if _, err := a.session.Process(session.Frame{Landmarks: hand, Timestamp: now}); err != nil &&
		!errors.Is(err, landmark.ErrInvalidInput) && !errors.Is(err, session.ErrDisabled) {
		log.Printf("Error processing frame: %v", err)
	}
	return hand
}

func (a *App) publishPreview(frame *gocv.Mat, hand *landmark.HandLandmarks) {
	img := frame.Clone()
	defer img.Close()

	capture.DrawHand(&img, hand)

	snap := a.session.Snapshot()
	status := "off"
	if snap.Enabled {
		status = fmt.Sprintf("%s %.2f", snap.Gesture, snap.Value)
	} else if snap.Err != "" {
		status = "error: " + snap.Err
	}
	capture.DrawStatus(&img, status)

	jpeg, err := capture.EncodeJPEG(img)
	if err != nil {
		log.Printf("Error encoding preview: %v", err)
		return
	}
	a.preview.Publish(jpeg)
}
