// internal/inference/inference_test.go
package inference

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/SyedDaiam9101/batch-score-service/internal/registry"
)

func writeModel(t *testing.T, root, name, version, file, body string) string {
	t.Helper()
	dir := filepath.Join(root, name, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

type staticResolver map[string]string

func (r staticResolver) Resolve(_ context.Context, name, _ string) (string, error) {
	if p, ok := r[name]; ok {
		return p, nil
	}
	return "", registry.ErrModelNotFound
}

func TestMockPredictor_Predict(t *testing.T) {
	mock := NewMock()

	got, err := mock.Predict(FeatureVector{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got != 42.0 {
		t.Errorf("Expected 42.0, got %f", got)
	}
	if mock.Calls() != 1 {
		t.Errorf("Expected CallCount=1, got %d", mock.Calls())
	}
}

func TestMockPredictor_PredictError(t *testing.T) {
	mock := NewMock()
	mock.SetError("test error")

	_, err := mock.Predict(FeatureVector{1, 2, 3, 4})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if err.Error() != "test error" {
		t.Errorf("Expected 'test error', got '%s'", err.Error())
	}

	mock.ClearError()
	if _, err := mock.Predict(FeatureVector{1, 2, 3, 4}); err != nil {
		t.Errorf("Expected no error after ClearError, got %v", err)
	}
}

func TestLinearModel_Predict(t *testing.T) {
	m, err := NewLinear(1.5, []float64{2, -1, 0.5})
	if err != nil {
		t.Fatalf("NewLinear failed: %v", err)
	}

	got, err := m.Predict(FeatureVector{1, 2, 4})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	// 1.5 + 2*1 - 1*2 + 0.5*4
	if got != 3.5 {
		t.Errorf("Expected 3.5, got %f", got)
	}

	if _, err := m.Predict(FeatureVector{1, 2}); err == nil {
		t.Error("Expected error for wrong row size")
	}
}

func TestNewLinear_NoCoefficients(t *testing.T) {
	if _, err := NewLinear(0, nil); err == nil {
		t.Fatal("Expected error for empty coefficients")
	}
}

func TestTreeModel_Predict(t *testing.T) {
	nodes := []TreeNode{
		{Feature: 0, Threshold: 0.5, Left: 1, Right: 2},
		{Leaf: true, Value: 10},
		{Feature: 1, Threshold: 3, Left: 3, Right: 4},
		{Leaf: true, Value: 20},
		{Leaf: true, Value: 30},
	}
	m, err := NewTree(2, nodes)
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}

	cases := []struct {
		row  FeatureVector
		want float64
	}{
		{FeatureVector{0.5, 100}, 10},
		{FeatureVector{1, 3}, 20},
		{FeatureVector{1, 3.1}, 30},
	}
	for _, c := range cases {
		got, err := m.Predict(c.row)
		if err != nil {
			t.Fatalf("Predict(%v) failed: %v", c.row, err)
		}
		if got != c.want {
			t.Errorf("Predict(%v) = %f, expected %f", c.row, got, c.want)
		}
	}
}

func TestNewTree_RejectsBadNodes(t *testing.T) {
	cases := map[string][]TreeNode{
		"empty":          nil,
		"feature range":  {{Feature: 5, Left: 1, Right: 2}, {Leaf: true}, {Leaf: true}},
		"backward child": {{Feature: 0, Left: 0, Right: 1}, {Leaf: true}},
		"missing child":  {{Feature: 0, Left: 1, Right: 9}, {Leaf: true}},
	}
	for name, nodes := range cases {
		if _, err := NewTree(2, nodes); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad_LinearDocument(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "diabetes_model", "1", "model.json",
		`{"type":"linear","intercept":1,"coefficients":[1,1,1,1]}`)

	p, err := Load(context.Background(), registry.NewDirRegistry(root), "diabetes_model", LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer p.Close()

	if p.FeatureCount() != 4 {
		t.Errorf("Expected 4 features, got %d", p.FeatureCount())
	}
	got, err := p.Predict(FeatureVector{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got != 11 {
		t.Errorf("Expected 11, got %f", got)
	}
}

func TestLoad_PinnedVersion(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "m", "1", "model.json", `{"type":"linear","coefficients":[1]}`)
	writeModel(t, root, "m", "2", "model.json", `{"type":"linear","coefficients":[1,2]}`)

	p, err := Load(context.Background(), registry.NewDirRegistry(root), "m:1", LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.FeatureCount() != 1 {
		t.Errorf("Expected version 1 with 1 feature, got %d features", p.FeatureCount())
	}
}

func TestLoad_UnknownModel(t *testing.T) {
	p, err := Load(context.Background(), registry.NewDirRegistry(t.TempDir()), "missing", LoadOptions{})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("Expected ErrModelNotFound, got %v", err)
	}
	if p != nil {
		t.Error("Expected no predictor on failure")
	}
}

func TestLoad_EmptyIdentifier(t *testing.T) {
	_, err := Load(context.Background(), registry.NewDirRegistry(t.TempDir()), "", LoadOptions{})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestLoad_MissingArtifact(t *testing.T) {
	resolver := staticResolver{"m": filepath.Join(t.TempDir(), "gone.json")}
	_, err := Load(context.Background(), resolver, "m", LoadOptions{})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestLoad_CorruptArtifact(t *testing.T) {
	root := t.TempDir()
	cases := map[string]string{
		"garbage":    `not json`,
		"unknown":    `{"type":"svm"}`,
		"no weights": `{"type":"linear"}`,
		"bad tree":   `{"type":"tree","feature_count":1,"nodes":[{"feature":0,"left":0,"right":0}]}`,
	}
	for name, body := range cases {
		path := filepath.Join(root, name+".json")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}

		p, err := Load(context.Background(), staticResolver{"m": path}, "m", LoadOptions{})
		var loadErr *ModelLoadError
		if !errors.As(err, &loadErr) {
			t.Errorf("%s: expected ModelLoadError, got %v", name, err)
			continue
		}
		if loadErr.Path != path {
			t.Errorf("%s: expected path %s, got %s", name, path, loadErr.Path)
		}
		if p != nil {
			t.Errorf("%s: expected no predictor on failure", name)
		}
	}
}

func TestLoad_ONNXRequiresFeatureCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.onnx")
	if err := os.WriteFile(path, []byte("onnx"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(context.Background(), staticResolver{"m": path}, "m", LoadOptions{})
	var loadErr *ModelLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected ModelLoadError, got %v", err)
	}
}

func TestONNXPredictor_WithModel(t *testing.T) {
	// Skip if ONNX model or library is not available
	modelPath := "testdata/diabetes.onnx"
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		t.Skip("Skipping ONNX inference test: testdata/diabetes.onnx not found")
	}

	p, err := NewONNX(modelPath, ONNXOptions{
		InputName:    "float_input",
		OutputName:   "variable",
		FeatureCount: 10,
	})
	if err != nil {
		t.Skipf("Skipping ONNX inference test: %v", err)
	}
	defer p.Close()

	if _, err := p.Predict(make(FeatureVector, 10)); err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if _, err := p.Predict(make(FeatureVector, 3)); err == nil {
		t.Error("Expected error for wrong row size")
	}
}
