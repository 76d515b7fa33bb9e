package landmark

// PointingLandmarks returns a right hand with middle, ring and pinky curled,
// the thumb tucked against the palm and the index finger placed so that its
// tip sits offset above its MCP joint (negative offset points it down).
// The index MCP is at y=0.5.
func PointingLandmarks(offset float64) HandLandmarks {
	points := make([]Point3D, NumLandmarks)

	points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb tucked across the palm
	points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	points[ThumbMCP] = Point3D{X: 0.58, Y: 0.70, Z: -0.01}
	points[ThumbIP] = Point3D{X: 0.57, Y: 0.65, Z: -0.02}
	points[ThumbTip] = Point3D{X: 0.53, Y: 0.62, Z: -0.03}

	// Index finger along the vertical through its MCP
	points[IndexMCP] = Point3D{X: 0.55, Y: 0.5, Z: -0.02}
	points[IndexPIP] = Point3D{X: 0.55, Y: 0.5 - 0.4*offset, Z: -0.03}
	points[IndexDIP] = Point3D{X: 0.55, Y: 0.5 - 0.7*offset, Z: -0.03}
	points[IndexTip] = Point3D{X: 0.55, Y: 0.5 - offset, Z: -0.03}

	// Middle finger curled
	points[MiddleMCP] = Point3D{X: 0.50, Y: 0.55, Z: -0.02}
	points[MiddlePIP] = Point3D{X: 0.50, Y: 0.50, Z: -0.05}
	points[MiddleDIP] = Point3D{X: 0.49, Y: 0.56, Z: -0.04}
	points[MiddleTip] = Point3D{X: 0.49, Y: 0.60, Z: -0.02}

	// Ring finger curled
	points[RingMCP] = Point3D{X: 0.45, Y: 0.56, Z: -0.02}
	points[RingPIP] = Point3D{X: 0.45, Y: 0.52, Z: -0.05}
	points[RingDIP] = Point3D{X: 0.45, Y: 0.58, Z: -0.04}
	points[RingTip] = Point3D{X: 0.45, Y: 0.62, Z: -0.02}

	// Pinky finger curled
	points[PinkyMCP] = Point3D{X: 0.41, Y: 0.60, Z: -0.02}
	points[PinkyPIP] = Point3D{X: 0.41, Y: 0.57, Z: -0.05}
	points[PinkyDIP] = Point3D{X: 0.41, Y: 0.62, Z: -0.04}
	points[PinkyTip] = Point3D{X: 0.42, Y: 0.65, Z: -0.02}

	return HandLandmarks{
		Points:     points,
		Handedness: "Right",
		Score:      0.95,
	}
}

// IndexUpLandmarks returns a hand pointing the index finger up, tip 0.2 above its MCP.
func IndexUpLandmarks() HandLandmarks {
	return PointingLandmarks(0.2)
}

// IndexDownLandmarks returns a hand pointing the index finger down, tip 0.2 below its MCP.
func IndexDownLandmarks() HandLandmarks {
	return PointingLandmarks(-0.2)
}

// FistLandmarks returns a closed hand with the index tip level with its MCP.
func FistLandmarks() HandLandmarks {
	return PointingLandmarks(-0.005)
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward.
func OpenPalmLandmarks() HandLandmarks {
	points := make([]Point3D, NumLandmarks)

	// Wrist at base
	points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	// Index finger extended upward
	points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	// Middle finger extended upward (slightly longer)
	points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	// Ring finger extended upward
	points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	// Pinky finger extended upward
	points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return HandLandmarks{
		Points:     points,
		Handedness: "Right",
		Score:      0.95,
	}
}
