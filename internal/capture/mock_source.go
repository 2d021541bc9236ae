package capture

import (
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back pre-built frames for testing.
type MockSource struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	index  int
	closed bool

	width  int
	height int
	fps    float64
}

// NewMockSource creates a source that yields the given frames in order and
// then io.EOF. Frame metadata is taken from the first frame.
func NewMockSource(frames []*gocv.Mat, fps float64) *MockSource {
	s := &MockSource{
		frames: frames,
		fps:    fps,
	}
	if len(frames) > 0 {
		s.width = frames[0].Cols()
		s.height = frames[0].Rows()
	}
	return s
}

// Read returns a clone of the next frame so the originals stay intact.
func (s *MockSource) Read() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSourceClosed
	}
	if s.index >= len(s.frames) {
		return nil, io.EOF
	}

	frame := s.frames[s.index].Clone()
	s.index++
	return &frame, nil
}

// Close marks the source as closed. The pre-built frames stay owned by the
// caller.
func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Reset restarts playback from the beginning.
func (s *MockSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
	s.closed = false
}

func (s *MockSource) Width() int       { return s.width }
func (s *MockSource) Height() int      { return s.height }
func (s *MockSource) FPS() float64     { return s.fps }
func (s *MockSource) TotalFrames() int { return len(s.frames) }
