package pose

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// Results can be queued per call, or a single fixed result can be set.
type MockEstimator struct {
	mu       sync.Mutex
	queue    []*Landmarks
	fixed    *Landmarks
	err      error
	closeErr error
	calls    int
	closed   bool
}

// NewMockEstimator creates a MockEstimator that reports a miss on every call
// until configured otherwise.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetError sets the error that will be returned by Process.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetResult sets the fixed result returned by Process once the queue is
// exhausted. A nil result means "no pose detected".
func (m *MockEstimator) SetResult(lm *Landmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed = lm
}

// SetCloseError makes Close return the given error.
func (m *MockEstimator) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeErr = err
}

// QueueResult appends a one-shot result consumed by the next Process call.
// A nil result means "no pose detected" for that call.
func (m *MockEstimator) QueueResult(lm *Landmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, lm)
}

// Process returns the next queued result, or the fixed result when the
// queue is empty.
func (m *MockEstimator) Process(region *gocv.Mat) (*Landmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		lm := m.queue[0]
		m.queue = m.queue[1:]
		return lm, nil
	}
	return m.fixed, nil
}

// Close marks the estimator as closed.
func (m *MockEstimator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.closeErr
}

// Calls reports how many times Process has been invoked.
func (m *MockEstimator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close has been called.
func (m *MockEstimator) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockFactory is a test implementation of the Factory interface. It hands out
// queued estimators in order, creating default ones once the queue is empty,
// and keeps every estimator it built so tests can assert ownership lifetimes.
type MockFactory struct {
	mu      sync.Mutex
	queue   []*MockEstimator
	created []*MockEstimator
	err     error
}

// NewMockFactory creates a new MockFactory.
func NewMockFactory() *MockFactory {
	return &MockFactory{}
}

// SetError makes New fail with the given error.
func (f *MockFactory) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// QueueEstimator adds an estimator to be returned by the next New call.
func (f *MockFactory) QueueEstimator(e *MockEstimator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, e)
}

// New returns the next queued estimator, or a fresh default one that always
// reports a hit with centered landmarks.
func (f *MockFactory) New() (Estimator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	var e *MockEstimator
	if len(f.queue) > 0 {
		e = f.queue[0]
		f.queue = f.queue[1:]
	} else {
		e = NewMockEstimator()
		e.SetResult(CenteredLandmarks())
	}
	f.created = append(f.created, e)
	return e, nil
}

// Created returns every estimator the factory has built, in order.
func (f *MockFactory) Created() []*MockEstimator {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*MockEstimator, len(f.created))
	copy(out, f.created)
	return out
}

// NumCreated returns how many estimators the factory has built.
func (f *MockFactory) NumCreated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// NumOpen returns how many built estimators have not been closed yet.
func (f *MockFactory) NumOpen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	open := 0
	for _, e := range f.created {
		if !e.Closed() {
			open++
		}
	}
	return open
}

// CenteredLandmarks returns a preset Landmarks with every point near the
// middle of the region and high visibility, useful as a generic hit result.
func CenteredLandmarks() *Landmarks {
	lm := &Landmarks{}
	for i := range lm.Points {
		lm.Points[i] = Point{
			X:          0.5,
			Y:          0.5,
			Z:          0,
			Visibility: 0.9,
		}
	}
	// Spread a few anchor points so the figure is not fully degenerate.
	lm.Points[Nose] = Point{X: 0.5, Y: 0.2, Visibility: 0.95}
	lm.Points[LeftShoulder] = Point{X: 0.35, Y: 0.35, Visibility: 0.95}
	lm.Points[RightShoulder] = Point{X: 0.65, Y: 0.35, Visibility: 0.95}
	lm.Points[LeftHip] = Point{X: 0.4, Y: 0.6, Visibility: 0.9}
	lm.Points[RightHip] = Point{X: 0.6, Y: 0.6, Visibility: 0.9}
	lm.Points[LeftAnkle] = Point{X: 0.4, Y: 0.9, Visibility: 0.85}
	lm.Points[RightAnkle] = Point{X: 0.6, Y: 0.9, Visibility: 0.85}
	return lm
}
