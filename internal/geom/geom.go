// Package geom provides box geometry helpers shared by the ROI tracker:
// expansion/clipping, intersection-over-union, centers, and exponential
// box smoothing. All functions are pure.
package geom

import (
	"image"
	"math"
)

// ExpandAndClip grows box by marginRatio of its width/height on each side
// and clips the result to the frame [0,frameW)×[0,frameH). A box with zero
// or negative area is not expanded, only clipped. The returned box always
// satisfies 0 <= Min.X < Max.X <= frameW and 0 <= Min.Y < Max.Y <= frameH:
// if clipping collapses an edge, the far edge is nudged forward by one pixel.
func ExpandAndClip(box image.Rectangle, frameW, frameH int, marginRatio float64) image.Rectangle {
	x1 := float64(box.Min.X)
	y1 := float64(box.Min.Y)
	x2 := float64(box.Max.X)
	y2 := float64(box.Max.Y)

	w := x2 - x1
	h := y2 - y1
	if w > 0 && h > 0 {
		x1 -= w * marginRatio
		y1 -= h * marginRatio
		x2 += w * marginRatio
		y2 += h * marginRatio
	}

	x1 = math.Max(0, math.Min(x1, float64(frameW-1)))
	y1 = math.Max(0, math.Min(y1, float64(frameH-1)))
	x2 = math.Max(0, math.Min(x2, float64(frameW)))
	y2 = math.Max(0, math.Min(y2, float64(frameH)))

	r := image.Rect(int(x1), int(y1), int(x2), int(y2))

	// Keep the box non-degenerate after clipping.
	if r.Max.X <= r.Min.X {
		r.Max.X = min(frameW, r.Min.X+1)
	}
	if r.Max.Y <= r.Min.Y {
		r.Max.Y = min(frameH, r.Min.Y+1)
	}
	return r
}

// IoU computes the intersection-over-union of two boxes.
// Returns 0 when the union area is zero.
func IoU(a, b image.Rectangle) float64 {
	interW := min(a.Max.X, b.Max.X) - max(a.Min.X, b.Min.X)
	interH := min(a.Max.Y, b.Max.Y) - max(a.Min.Y, b.Min.Y)
	if interW < 0 {
		interW = 0
	}
	if interH < 0 {
		interH = 0
	}
	inter := interW * interH

	areaA := max(0, a.Dx()) * max(0, a.Dy())
	areaB := max(0, b.Dx()) * max(0, b.Dy())
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Smooth blends old and new boxes per coordinate with an exponential moving
// average, alpha weighting the new box. Coordinates are truncated to integers.
func Smooth(old, new image.Rectangle, alpha float64) image.Rectangle {
	blend := func(o, n int) int {
		return int(alpha*float64(n) + (1.0-alpha)*float64(o))
	}
	return image.Rect(
		blend(old.Min.X, new.Min.X),
		blend(old.Min.Y, new.Min.Y),
		blend(old.Max.X, new.Max.X),
		blend(old.Max.Y, new.Max.Y),
	)
}

// Center returns the center point of box as floats.
func Center(box image.Rectangle) (float64, float64) {
	cx := 0.5 * float64(box.Min.X+box.Max.X)
	cy := 0.5 * float64(box.Min.Y+box.Max.Y)
	return cx, cy
}

// Diagonal returns the length of the diagonal of a frame of the given size.
func Diagonal(frameW, frameH int) float64 {
	return math.Sqrt(float64(frameW*frameW + frameH*frameH))
}
