package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/SyedDaiam9101/batch-score-service/internal/config"
	"github.com/SyedDaiam9101/batch-score-service/internal/inference"
	"github.com/SyedDaiam9101/batch-score-service/internal/logging"
	"github.com/SyedDaiam9101/batch-score-service/internal/scorer"
)

func testConfig(root string) *config.Config {
	return &config.Config{
		Model:    "diabetes_model",
		Registry: config.RegistryConfig{Type: config.RegistryDir, Root: root},
		Output:   config.OutputConfig{Type: config.OutputFile, Path: filepath.Join(root, "out.txt")},
	}
}

func TestLoadModel_FromDirRegistry(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "diabetes_model", "1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	doc := `{"type":"linear","intercept":152.0,"coefficients":[1,0,0,0]}`
	if err := os.WriteFile(filepath.Join(dir, "model.json"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadModel(context.Background(), testConfig(root), logging.Nop())
	if err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}

	lines, err := scorer.New(p).Score(context.Background(), []scorer.RecordSource{
		{ID: "batch/sample1.csv", Content: "0.5,9,9,9"},
	})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if lines[0] != "sample1.csv: 152.5" {
		t.Errorf("Unexpected line %q", lines[0])
	}
}

func TestLoadModel_Unregistered(t *testing.T) {
	p, err := LoadModel(context.Background(), testConfig(t.TempDir()), logging.Nop())
	if !errors.Is(err, inference.ErrModelNotFound) {
		t.Fatalf("Expected ErrModelNotFound, got %v", err)
	}
	if p != nil {
		t.Error("Expected no predictor")
	}
}

func TestLoadModel_Mock(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.UseMockInference = true

	p, err := LoadModel(context.Background(), cfg, logging.Nop())
	if err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}
	if _, ok := p.(*inference.MockPredictor); !ok {
		t.Errorf("Expected mock predictor, got %T", p)
	}
}

func TestOpenSink(t *testing.T) {
	cfg := testConfig(t.TempDir())

	sink, err := OpenSink(cfg)
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}
	sink.Close()

	cfg.Output.Type = "kafka"
	if _, err := OpenSink(cfg); err == nil {
		t.Error("Expected error for unknown output type")
	}
}
