// Package testdata provides synthetic video frames for tests that need
// real pixel data without bundling binary assets.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// SyntheticFrame returns a dark frame with a bright rectangle at box,
// standing in for a person against a plain background.
func SyntheticFrame(width, height int, box image.Rectangle) *gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&mat, box, color.RGBA{R: 220, G: 220, B: 220, A: 255}, -1)
	return &mat
}

// SyntheticSequence returns n frames with the rectangle sliding right by
// step pixels per frame, simulating horizontal motion.
func SyntheticSequence(n, width, height int, box image.Rectangle, step int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		offset := image.Pt(i*step, 0)
		frames[i] = SyntheticFrame(width, height, box.Add(offset).Intersect(image.Rect(0, 0, width, height)))
	}
	return frames
}

// CloseFrames releases every frame in the slice.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
