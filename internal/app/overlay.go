package app

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/capture"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/pose"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/track"
)

// poseConnections lists the landmark index pairs joined by skeleton lines,
// matching the MediaPipe pose topology for the torso and limbs.
var poseConnections = [][2]int{
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow},
	{pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow},
	{pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.LeftHip},
	{pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee},
	{pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee},
	{pose.RightKnee, pose.RightAnkle},
	{pose.LeftAnkle, pose.LeftHeel},
	{pose.LeftHeel, pose.LeftFootIndex},
	{pose.RightAnkle, pose.RightHeel},
	{pose.RightHeel, pose.RightFootIndex},
}

var (
	landmarkColor = color.RGBA{G: 255, A: 255}
	skeletonColor = color.RGBA{B: 255, A: 255}
)

// minDrawVisibility hides landmarks the estimator is unsure about.
const minDrawVisibility = 0.5

// EmbedPoseVideo re-encodes src with the tracked landmarks drawn onto each
// frame and returns the output path. It runs its own tracker over the
// source, so src must be positioned at the first frame. Returns an empty
// path when no overlay directory is configured.
func (p *Processor) EmbedPoseVideo(src capture.Source, videoName string, mode track.Mode) (string, error) {
	if p.config.OutputVideoDir == "" {
		return "", nil
	}

	tracker := track.New(p.det, p.factory, p.config.Track)
	defer tracker.Close()

	outPath := filepath.Join(p.config.OutputVideoDir,
		fmt.Sprintf("%s_pose.mp4", baseName(videoName)+modeSuffix(mode)))

	fps := src.FPS()
	if fps <= 0 {
		fps = 30
	}
	writer, err := gocv.VideoWriterFile(outPath, "mp4v", fps, src.Width(), src.Height(), true)
	if err != nil {
		return "", fmt.Errorf("open overlay writer: %w", err)
	}
	defer writer.Close()

	total := src.TotalFrames()
	frameIdx := 0
	for {
		frame, err := src.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			frameClose(frame)
			return "", fmt.Errorf("read frame %d: %w", frameIdx, err)
		}

		outputs, err := tracker.Step(frame, mode)
		if err != nil {
			frame.Close()
			return "", fmt.Errorf("track frame %d: %w", frameIdx, err)
		}

		for _, out := range outputs {
			drawLandmarks(frame, out.Landmarks)
		}
		if err := writer.Write(*frame); err != nil {
			frame.Close()
			return "", fmt.Errorf("write frame %d: %w", frameIdx, err)
		}
		frame.Close()

		frameIdx++
		p.reportStatus("Embedding pose into: %s (Frame %d/%d)", filepath.Base(videoName), frameIdx, total)
		p.reportProgress(frameIdx, total)
	}

	return outPath, nil
}

func frameClose(frame *gocv.Mat) {
	if frame != nil {
		frame.Close()
	}
}

// drawLandmarks renders one person's skeleton onto frame. Landmark
// coordinates are normalized to the full frame.
func drawLandmarks(frame *gocv.Mat, lm *pose.Landmarks) {
	w := float64(frame.Cols())
	h := float64(frame.Rows())

	points := make([]image.Point, pose.NumLandmarks)
	visible := make([]bool, pose.NumLandmarks)
	for i, pt := range lm.Points {
		points[i] = image.Pt(int(pt.X*w), int(pt.Y*h))
		visible[i] = pt.Visibility >= minDrawVisibility
	}

	for _, conn := range poseConnections {
		a, b := conn[0], conn[1]
		if visible[a] && visible[b] {
			gocv.Line(frame, points[a], points[b], skeletonColor, 2)
		}
	}
	for i := range points {
		if visible[i] {
			gocv.Circle(frame, points[i], 3, landmarkColor, -1)
		}
	}
}
