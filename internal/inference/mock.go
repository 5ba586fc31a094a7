// internal/inference/mock.go
package inference

import (
	"fmt"
	"sync"
)

// MockPredictor is a mock implementation of Predictor for testing.
// It returns a fixed prediction without requiring any model artifact.
type MockPredictor struct {
	mu sync.Mutex
	// Features is the feature count reported to callers
	Features int
	// Value is the prediction returned for every row
	Value float64
	// ShouldError if true, Predict will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// CallCount tracks the number of times Predict was called
	CallCount int
	// Rows records every row passed to Predict
	Rows []FeatureVector
}

// NewMock creates a new MockPredictor expecting 4 features and predicting 42.0
func NewMock() *MockPredictor {
	return NewMockWithValue(4, 42.0)
}

// NewMockWithValue creates a MockPredictor with a custom feature count and prediction
func NewMockWithValue(features int, value float64) *MockPredictor {
	return &MockPredictor{
		Features: features,
		Value:    value,
	}
}

// Predict records the row and returns Value
func (m *MockPredictor) Predict(row FeatureVector) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.Rows = append(m.Rows, append(FeatureVector(nil), row...))

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return 0, fmt.Errorf("%s", m.ErrorMessage)
		}
		return 0, fmt.Errorf("mock inference error")
	}

	if len(row) != m.Features {
		return 0, fmt.Errorf("row has wrong size: got %d, expected %d", len(row), m.Features)
	}

	return m.Value, nil
}

// FeatureCount returns Features
func (m *MockPredictor) FeatureCount() int {
	return m.Features
}

// Close is a no-op for the mock implementation
func (m *MockPredictor) Close() error {
	return nil
}

// Calls returns the number of Predict calls so far
func (m *MockPredictor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// SetError configures the mock to return an error on subsequent Predict calls
func (m *MockPredictor) SetError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *MockPredictor) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Ensure MockPredictor implements Predictor at compile time
var _ Predictor = (*MockPredictor)(nil)
