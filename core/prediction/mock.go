package prediction

import (
	"context"
	"sync"

	"github.com/kilianp07/wellcast/core/model"
)

// MockUpstream returns canned answers and counts calls.
type MockUpstream struct {
	Result model.PredictionResult
	Body   map[string]any
	Err    error

	mu    sync.Mutex
	calls int
	last  []byte
}

func (m *MockUpstream) record(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.last = append([]byte(nil), raw...)
}

func (m *MockUpstream) Forward(_ context.Context, raw []byte) (map[string]any, error) {
	m.record(raw)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Body, nil
}

func (m *MockUpstream) Predict(_ context.Context, raw []byte) (model.PredictionResult, error) {
	m.record(raw)
	if m.Err != nil {
		return model.PredictionResult{}, m.Err
	}
	return m.Result, nil
}

// Calls returns how many requests reached the mock.
func (m *MockUpstream) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastBody returns the payload of the latest call.
func (m *MockUpstream) LastBody() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
