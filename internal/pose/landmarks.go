// Package pose provides per-region pose estimation interfaces and types.
package pose

import "image"

// Pose landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Names lists the landmark names in index order, used for CSV column headers.
var Names = [NumLandmarks]string{
	"Nose", "Left_eye_inner", "Left_eye", "Left_eye_outer", "Right_eye_inner",
	"Right_eye", "Right_eye_outer", "Left_ear", "Right_ear", "Mouth_left",
	"Mouth_right", "Left_shoulder", "Right_shoulder", "Left_elbow", "Right_elbow",
	"Left_wrist", "Right_wrist", "Left_pinky", "Right_pinky", "Left_index",
	"Right_index", "Left_thumb", "Right_thumb", "Left_hip", "Right_hip",
	"Left_knee", "Right_knee", "Left_ankle", "Right_ankle", "Left_heel",
	"Right_heel", "Left_foot_index", "Right_foot_index",
}

// Point represents one pose landmark with normalized coordinates and an
// estimated visibility in [0,1].
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Landmarks represents the 33 pose landmarks produced by one estimator pass.
// Coordinates are normalized to the image the estimator was given.
type Landmarks struct {
	Points [NumLandmarks]Point `json:"points"`
}

// MapToFrame returns a copy of the landmarks remapped from region-local
// normalized coordinates to full-frame normalized coordinates, where region
// is the crop (in pixels) that was fed to the estimator.
func (l *Landmarks) MapToFrame(region image.Rectangle, frameW, frameH int) *Landmarks {
	if l == nil {
		return nil
	}

	mapped := &Landmarks{}
	rw := float64(region.Dx())
	rh := float64(region.Dy())
	for i, p := range l.Points {
		mapped.Points[i] = Point{
			X:          (p.X*rw + float64(region.Min.X)) / float64(frameW),
			Y:          (p.Y*rh + float64(region.Min.Y)) / float64(frameH),
			Z:          p.Z,
			Visibility: p.Visibility,
		}
	}
	return mapped
}
