// Package detector provides person detection interfaces and types for the
// pose extraction pipeline.
package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// ClassPerson is the detection class consumed by the ROI tracker.
const ClassPerson = "person"

// Detection is a single detector output for one frame. Detections are
// transient and are never retained past the frame they were produced for.
type Detection struct {
	Box        image.Rectangle `json:"box"`
	Class      string          `json:"class"`
	Confidence float64         `json:"confidence"`
}

// Detector defines the interface for person detection implementations.
type Detector interface {
	// Detect analyzes a full video frame and returns candidate detections.
	// Returns an empty slice if nothing is detected.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for person detection.
type Config struct {
	// ModelPath is the path to the ONNX detection model.
	ModelPath string

	// InputSize is the square network input resolution (default: 640).
	InputSize int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// NMSThreshold is the non-maximum-suppression IoU threshold (0.0-1.0).
	NMSThreshold float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelPath:     "yolov5s.onnx",
		InputSize:     640,
		MinConfidence: 0.5,
		NMSThreshold:  0.45,
	}
}
