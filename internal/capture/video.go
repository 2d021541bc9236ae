// Package capture provides frame sources for video processing using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"io"

	"gocv.io/x/gocv"
)

// ErrSourceClosed is returned when reading from a source that is closed.
var ErrSourceClosed = errors.New("source is closed")

// Source defines the interface for sequential frame access. Read returns
// io.EOF when the stream ends; the caller owns the returned Mat and must
// close it.
type Source interface {
	Read() (*gocv.Mat, error)
	Close() error
	Width() int
	Height() int
	FPS() float64
	TotalFrames() int
}

// VideoFile reads frames sequentially from a video file.
type VideoFile struct {
	path    string
	capture *gocv.VideoCapture
	width   int
	height  int
	fps     float64
	total   int
}

// OpenVideoFile opens the video at path for sequential reading.
func OpenVideoFile(path string) (*VideoFile, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}

	v := &VideoFile{
		path:    path,
		capture: capture,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
		fps:     capture.Get(gocv.VideoCaptureFPS),
		total:   int(capture.Get(gocv.VideoCaptureFrameCount)),
	}
	return v, nil
}

// Read returns the next frame, or io.EOF at the end of the stream.
func (v *VideoFile) Read() (*gocv.Mat, error) {
	if v.capture == nil {
		return nil, ErrSourceClosed
	}

	frame := gocv.NewMat()
	if ok := v.capture.Read(&frame); !ok {
		frame.Close()
		return nil, io.EOF
	}
	if frame.Empty() {
		frame.Close()
		return nil, io.EOF
	}
	return &frame, nil
}

// Close releases the underlying capture.
func (v *VideoFile) Close() error {
	if v.capture == nil {
		return nil
	}
	err := v.capture.Close()
	v.capture = nil
	return err
}

// Width returns the frame width in pixels.
func (v *VideoFile) Width() int { return v.width }

// Height returns the frame height in pixels.
func (v *VideoFile) Height() int { return v.height }

// FPS returns the frame rate reported by the container.
func (v *VideoFile) FPS() float64 { return v.fps }

// TotalFrames returns the container's frame count, or 0 when unknown.
func (v *VideoFile) TotalFrames() int {
	if v.total < 0 {
		return 0
	}
	return v.total
}

// Path returns the file the source was opened from.
func (v *VideoFile) Path() string { return v.path }
