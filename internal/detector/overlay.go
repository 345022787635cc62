package detector

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	connectionColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	landmarkColor   = color.RGBA{R: 0, G: 0, B: 255, A: 0} // red in BGR frames
)

// DrawLandmarks draws the hand skeleton onto frame in place.
// Points outside the frame are clipped by OpenCV.
func DrawLandmarks(frame *gocv.Mat, hand *HandLandmarks) {
	if frame == nil || frame.Empty() || !hand.Complete() {
		return
	}

	w, h := frame.Cols(), frame.Rows()
	toPixel := func(p Point3D) image.Point {
		return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
	}

	for _, c := range HandConnections {
		gocv.Line(frame, toPixel(hand.Points[c[0]]), toPixel(hand.Points[c[1]]), connectionColor, 2)
	}
	for _, p := range hand.Points[:NumLandmarks] {
		gocv.Circle(frame, toPixel(p), 4, landmarkColor, -1)
	}
}
