package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Document model types
const (
	TypeLinear = "linear"
	TypeTree   = "tree"
)

// document is the on-disk JSON form shared by linear and tree regressors
type document struct {
	Type         string     `json:"type"`
	Intercept    float64    `json:"intercept"`
	Coefficients []float64  `json:"coefficients"`
	FeatureCount int        `json:"feature_count"`
	Nodes        []TreeNode `json:"nodes"`
}

// LoadDocument reads a JSON model document from path
func LoadDocument(path string) (Predictor, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("invalid model document: %w", err)
	}

	switch doc.Type {
	case TypeLinear:
		return NewLinear(doc.Intercept, doc.Coefficients)
	case TypeTree:
		return NewTree(doc.FeatureCount, doc.Nodes)
	default:
		return nil, fmt.Errorf("unsupported model type %q", doc.Type)
	}
}

// LinearModel predicts intercept + sum(coefficient_i * x_i)
type LinearModel struct {
	Intercept    float64
	Coefficients []float64
}

// NewLinear creates a linear regressor; at least one coefficient is required
func NewLinear(intercept float64, coefficients []float64) (*LinearModel, error) {
	if len(coefficients) == 0 {
		return nil, errors.New("linear model has no coefficients")
	}
	coef := make([]float64, len(coefficients))
	copy(coef, coefficients)
	return &LinearModel{Intercept: intercept, Coefficients: coef}, nil
}

func (m *LinearModel) Predict(row FeatureVector) (float64, error) {
	if len(row) != len(m.Coefficients) {
		return 0, fmt.Errorf("row has wrong size: got %d, expected %d", len(row), len(m.Coefficients))
	}
	score := m.Intercept
	for i, w := range m.Coefficients {
		score += w * row[i]
	}
	return score, nil
}

func (m *LinearModel) FeatureCount() int { return len(m.Coefficients) }

func (m *LinearModel) Close() error { return nil }

// TreeNode is one node of a regression tree stored in pre-order.
// Internal nodes send rows with x[Feature] <= Threshold to Left.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// TreeModel is a single regression tree
type TreeModel struct {
	featureCount int
	nodes        []TreeNode
}

// NewTree validates nodes so that Predict can never index out of range or loop
func NewTree(featureCount int, nodes []TreeNode) (*TreeModel, error) {
	if featureCount <= 0 {
		return nil, fmt.Errorf("tree feature count must be positive, got %d", featureCount)
	}
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	for i, n := range nodes {
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= featureCount {
			return nil, fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		// children must come after their parent, which rules out cycles
		if n.Left <= i || n.Left >= len(nodes) || n.Right <= i || n.Right >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid children (%d, %d)", i, n.Left, n.Right)
		}
	}
	return &TreeModel{featureCount: featureCount, nodes: append([]TreeNode(nil), nodes...)}, nil
}

func (m *TreeModel) Predict(row FeatureVector) (float64, error) {
	if len(row) != m.featureCount {
		return 0, fmt.Errorf("row has wrong size: got %d, expected %d", len(row), m.featureCount)
	}
	idx := 0
	for {
		node := m.nodes[idx]
		if node.Leaf {
			return node.Value, nil
		}
		if row[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

func (m *TreeModel) FeatureCount() int { return m.featureCount }

func (m *TreeModel) Close() error { return nil }

var (
	_ Predictor = (*LinearModel)(nil)
	_ Predictor = (*TreeModel)(nil)
)
