// internal/inference/onnx.go
package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXOptions describes the graph signature of a single-output ONNX regressor
type ONNXOptions struct {
	// LibraryPath overrides the onnxruntime shared library location
	LibraryPath string
	// InputName is the graph input, e.g. "float_input" for skl2onnx exports
	InputName string
	// OutputName is the graph output, e.g. "variable" for skl2onnx regressors
	OutputName string
	// FeatureCount is the width of the [1, n] input tensor
	FeatureCount int
}

// ONNXPredictor wraps an ONNX runtime session for thread-safe single-row inference.
// It implements the Predictor interface.
type ONNXPredictor struct {
	mu           sync.Mutex
	session      *ort.DynamicAdvancedSession
	featureCount int
}

// NewONNX creates a new ONNXPredictor by loading the ONNX model from modelPath
func NewONNX(modelPath string, opts ONNXOptions) (*ONNXPredictor, error) {
	if opts.FeatureCount <= 0 {
		return nil, fmt.Errorf("onnx feature count must be positive, got %d", opts.FeatureCount)
	}
	if opts.InputName == "" || opts.OutputName == "" {
		return nil, fmt.Errorf("onnx input and output names are required")
	}

	if !ort.IsInitialized() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		nil, // Use default session options
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXPredictor{
		session:      session,
		featureCount: opts.FeatureCount,
	}, nil
}

// Predict runs the session on a [1, n] tensor and returns the single output value
func (p *ONNXPredictor) Predict(row FeatureVector) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return 0, fmt.Errorf("inference session is nil")
	}
	if len(row) != p.featureCount {
		return 0, fmt.Errorf("row has wrong size: got %d, expected %d", len(row), p.featureCount)
	}

	data := make([]float32, len(row))
	for i, v := range row {
		data[i] = float32(v)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(p.featureCount)), data)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewTensor(ort.NewShape(1, 1), make([]float32, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = p.session.Run(
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	if err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	return float64(outputTensor.GetData()[0]), nil
}

// FeatureCount returns the configured input width
func (p *ONNXPredictor) FeatureCount() int {
	return p.featureCount
}

// Close releases the ONNX session resources
func (p *ONNXPredictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		err := p.session.Destroy()
		p.session = nil
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	return ort.DestroyEnvironment()
}

var _ Predictor = (*ONNXPredictor)(nil)
