// Package feature derives per-frame geometric features from a hand landmark set.
package feature

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handlevel/internal/landmark"
)

// Finger identifies one of the four non-thumb fingers.
type Finger int

const (
	Index Finger = iota
	Middle
	Ring
	Pinky
	numFingers
)

// String returns the lower-case finger name.
func (f Finger) String() string {
	switch f {
	case Index:
		return "index"
	case Middle:
		return "middle"
	case Ring:
		return "ring"
	case Pinky:
		return "pinky"
	}
	return "unknown"
}

// joints maps each finger to its tip and PIP landmark indices.
var joints = [numFingers]struct{ tip, pip int }{
	Index:  {landmark.IndexTip, landmark.IndexPIP},
	Middle: {landmark.MiddleTip, landmark.MiddlePIP},
	Ring:   {landmark.RingTip, landmark.RingPIP},
	Pinky:  {landmark.PinkyTip, landmark.PinkyPIP},
}

// Config holds the calibration constants of the extractor.
type Config struct {
	// PalmRadius is the tip-to-palm-center distance a finger must exceed to
	// count as extended, in normalized image units.
	PalmRadius float64
	// ThumbFactor scales PalmRadius for the thumb test.
	ThumbFactor float64
	// OpenPalmFingers is how many of the four fingers must be extended,
	// together with the thumb, for an open palm.
	OpenPalmFingers int
}

// DefaultConfig returns the reference calibration.
func DefaultConfig() Config {
	return Config{
		PalmRadius:      0.16,
		ThumbFactor:     0.9,
		OpenPalmFingers: 3,
	}
}

// Vector is the immutable feature set of one frame.
type Vector struct {
	// IndexTipToMCPY is the vertical offset of the index tip above its MCP
	// joint. Positive when the tip is visually higher.
	IndexTipToMCPY float64
	// IndexExtension is the PIP-to-tip distance of the index finger.
	IndexExtension float64
	// PalmCenter is the midpoint of the wrist and the middle finger MCP.
	PalmCenter landmark.Point3D
	// Extension holds the PIP-to-tip distance of each finger.
	Extension [numFingers]float64
	// Extended reports whether each finger is stretched out above its PIP.
	Extended [numFingers]bool
	// ThumbExtended reports whether the thumb tip is away from the palm.
	ThumbExtended bool

	openPalmFingers int
}

// ExtendedCount returns how many of the four fingers are extended.
func (v Vector) ExtendedCount() int {
	n := 0
	for _, e := range v.Extended {
		if e {
			n++
		}
	}
	return n
}

// OpenPalm reports whether the vector describes an open palm.
func (v Vector) OpenPalm() bool {
	return v.ThumbExtended && v.ExtendedCount() >= v.openPalmFingers
}

// Extractor computes feature vectors with a fixed calibration.
type Extractor struct {
	config Config
}

// NewExtractor creates an Extractor. Zero fields in config fall back to the defaults.
func NewExtractor(config Config) *Extractor {
	def := DefaultConfig()
	if config.PalmRadius <= 0 {
		config.PalmRadius = def.PalmRadius
	}
	if config.ThumbFactor <= 0 {
		config.ThumbFactor = def.ThumbFactor
	}
	if config.OpenPalmFingers <= 0 || config.OpenPalmFingers > int(numFingers) {
		config.OpenPalmFingers = def.OpenPalmFingers
	}
	return &Extractor{config: config}
}

// Config returns the extractor calibration.
func (e *Extractor) Config() Config {
	return e.config
}

// Extract computes the feature vector of a landmark set.
// Returns an error wrapping landmark.ErrInvalidInput if points is not a
// complete set.
func (e *Extractor) Extract(points []landmark.Point3D) (Vector, error) {
	if err := landmark.Validate(points); err != nil {
		return Vector{}, err
	}

	palm := r3.Scale(0.5, r3.Add(vec(points[landmark.Wrist]), vec(points[landmark.MiddleMCP])))

	v := Vector{
		IndexTipToMCPY:  points[landmark.IndexMCP].Y - points[landmark.IndexTip].Y,
		PalmCenter:      landmark.Point3D{X: palm.X, Y: palm.Y, Z: palm.Z},
		openPalmFingers: e.config.OpenPalmFingers,
	}

	for f, j := range joints {
		tip, pip := points[j.tip], points[j.pip]
		v.Extension[f] = distance(vec(tip), vec(pip))
		v.Extended[f] = tip.Y < pip.Y && distance(vec(tip), palm) > e.config.PalmRadius
	}
	v.IndexExtension = v.Extension[Index]

	thumb := vec(points[landmark.ThumbTip])
	v.ThumbExtended = distance(thumb, palm) > e.config.ThumbFactor*e.config.PalmRadius

	return v, nil
}

// Extract computes the feature vector with the default calibration.
func Extract(points []landmark.Point3D) (Vector, error) {
	return defaultExtractor.Extract(points)
}

var defaultExtractor = NewExtractor(DefaultConfig())

func vec(p landmark.Point3D) r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

func distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}
