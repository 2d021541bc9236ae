package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results per call.
type MockDetector struct {
	mu         sync.Mutex
	queue      [][]Detection
	detections []Detection
	err        error
	calls      int
	closed     bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetections sets the detections returned by Detect once the per-call
// queue is exhausted.
func (m *MockDetector) SetDetections(dets []Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = dets
}

// QueueDetections appends a one-shot result consumed by the next Detect call.
func (m *MockDetector) QueueDetections(dets []Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, dets)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued detections, the fixed detections, or the
// configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		dets := m.queue[0]
		m.queue = m.queue[1:]
		return dets, nil
	}
	return m.detections, nil
}

// Close marks the detector as closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls reports how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
