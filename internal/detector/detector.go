// Package detector provides hand detection interfaces and implementations.
package detector

import (
	"errors"

	"gocv.io/x/gocv"

	"github.com/ayusman/handlevel/internal/landmark"
)

// ErrUnavailable is returned when the hand detector cannot be initialized.
var ErrUnavailable = errors.New("hand detector unavailable")

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]landmark.HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinPresenceConf is the minimum hand presence confidence (0.0-1.0).
	MinPresenceConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinPresenceConf: 0.5,
		MinTrackingConf: 0.5,
	}
}

// Primary returns the first detected hand, or nil when hands is empty.
func Primary(hands []landmark.HandLandmarks) *landmark.HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}
