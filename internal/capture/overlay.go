package capture

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handlevel/internal/landmark"
)

var (
	boneColor   = color.RGBA{R: 0, G: 200, B: 255, A: 0}
	jointColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	tipColor    = color.RGBA{R: 255, G: 64, B: 64, A: 0}
	statusColor = color.RGBA{R: 255, G: 255, B: 0, A: 0}
)

// pixel maps a normalized landmark to image coordinates.
func pixel(p landmark.Point3D, cols, rows int) image.Point {
	return image.Pt(int(p.X*float64(cols)), int(p.Y*float64(rows)))
}

// DrawHand draws the hand skeleton onto img: bones along landmark.Connections,
// a dot per joint and a larger dot per fingertip. Incomplete landmark sets are
// ignored.
func DrawHand(img *gocv.Mat, hand *landmark.HandLandmarks) {
	if img == nil || img.Empty() || hand == nil || landmark.Validate(hand.Points) != nil {
		return
	}
	cols, rows := img.Cols(), img.Rows()

	for _, c := range landmark.Connections {
		gocv.Line(img, pixel(hand.Points[c[0]], cols, rows), pixel(hand.Points[c[1]], cols, rows), boneColor, 2)
	}
	for _, p := range hand.Points {
		gocv.Circle(img, pixel(p, cols, rows), 3, jointColor, -1)
	}
	for _, i := range landmark.Fingertips {
		gocv.Circle(img, pixel(hand.Points[i], cols, rows), 6, tipColor, -1)
	}
}

// DrawStatus writes a single status line in the top-left corner of img.
func DrawStatus(img *gocv.Mat, text string) {
	if img == nil || img.Empty() || text == "" {
		return
	}
	gocv.PutText(img, text, image.Pt(10, 24), gocv.FontHersheySimplex, 0.6, statusColor, 2)
}
