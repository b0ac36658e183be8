package detection

import (
	"context"
	"image"
	"sync"
	"time"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	DetectFunc func(ctx context.Context, img image.Image) ([]Label, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock that returns the given label texts with full
// confidence.
func NewMock(texts ...string) *Mock {
	labels := make([]Label, len(texts))
	for i, t := range texts {
		labels[i] = Label{Text: t, Confidence: 1}
	}
	return &Mock{
		DetectFunc: func(ctx context.Context, img image.Image) ([]Label, error) {
			return labels, nil
		},
	}
}

// WithError creates a mock whose detections always fail with err.
func WithError(err error) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, img image.Image) ([]Label, error) {
			return nil, err
		},
	}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(ctx context.Context, img image.Image) ([]Label, error) {
	m.record("Detect")
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, img)
	}
	return nil, nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns the number of calls to method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Time: time.Now()})
}
