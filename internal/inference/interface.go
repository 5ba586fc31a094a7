// internal/inference/interface.go
package inference

// FeatureVector is a single input row for a tabular model
type FeatureVector []float64

// Predictor defines the interface for single-row regression inference.
// A Predictor is immutable after loading and safe for concurrent use.
type Predictor interface {
	// Predict returns the scalar prediction for one row.
	// The row length must equal FeatureCount.
	Predict(row FeatureVector) (float64, error)

	// FeatureCount is the input dimensionality the model expects.
	FeatureCount() int

	// Close releases any resources held by the predictor.
	Close() error
}
