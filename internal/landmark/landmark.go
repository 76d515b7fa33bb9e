// Package landmark defines the 21-point hand landmark model shared by the
// detector and the classifier.
package landmark

import (
	"errors"
	"fmt"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrInvalidInput is returned when a landmark set does not hold exactly NumLandmarks points.
var ErrInvalidInput = errors.New("invalid landmark input")

// Connections lists the skeleton edges of the hand topology, used for overlays.
var Connections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{Wrist, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{Wrist, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, RingMCP}, {RingMCP, PinkyMCP},
}

// Fingertips lists the tip indices of thumb, index, middle, ring and pinky.
var Fingertips = []int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Point3D represents a 3D point in normalized camera space.
// X grows to the right, Y grows downward and Z grows away from the camera.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents one detected hand.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Validate checks that points forms a complete landmark set.
func Validate(points []Point3D) error {
	if len(points) != NumLandmarks {
		return fmt.Errorf("%w: got %d points, want %d", ErrInvalidInput, len(points), NumLandmarks)
	}
	return nil
}

// Clone returns a deep copy of the hand so callers can hand it across goroutines.
func (h *HandLandmarks) Clone() *HandLandmarks {
	if h == nil {
		return nil
	}
	c := *h
	c.Points = append([]Point3D(nil), h.Points...)
	return &c
}
