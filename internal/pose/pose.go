package pose

import "gocv.io/x/gocv"

// Estimator defines the interface for single-person pose estimation over a
// cropped region. An estimator is stateful across calls (it carries its own
// tracking state), so each tracked region must own exactly one instance.
type Estimator interface {
	// Process analyzes a region image and returns the detected pose landmarks
	// in region-local normalized coordinates. Returns (nil, nil) when no
	// person is detected in the region.
	Process(region *gocv.Mat) (*Landmarks, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Factory constructs estimator instances. The tracker builds a fresh
// estimator whenever a region is seeded or reseeded.
type Factory interface {
	New() (Estimator, error)
}

// Config holds configuration options for pose estimation.
type Config struct {
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ModelComplexity selects the landmark model variant (0, 1, or 2).
	// Higher is more accurate and slower.
	ModelComplexity int
}

// DefaultConfig returns a Config with sensible default values for
// per-region estimation.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
		ModelComplexity: 2,
	}
}
