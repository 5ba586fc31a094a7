package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Model != "diabetes_model" {
		t.Errorf("Expected default model, got %s", cfg.Model)
	}
	if cfg.Registry.Type != RegistryDir || cfg.Registry.Root != "./models" {
		t.Errorf("Unexpected registry defaults: %+v", cfg.Registry)
	}
	if cfg.MiniBatchSize != 10 || cfg.Workers != 1 {
		t.Errorf("Unexpected batch defaults: size=%d workers=%d", cfg.MiniBatchSize, cfg.Workers)
	}
	if cfg.Output.Type != OutputFile || cfg.Output.Path != "parallel_run_step.txt" {
		t.Errorf("Unexpected output defaults: %+v", cfg.Output)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BATCH_SCORE_MODEL", "diabetes_model:3")
	t.Setenv("BATCH_SCORE_REGISTRY_ROOT", "/srv/models")
	t.Setenv("BATCH_SCORE_MINI_BATCH_SIZE", "25")
	t.Setenv("BATCH_SCORE_USE_MOCK", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Model != "diabetes_model:3" {
		t.Errorf("Expected model from env, got %s", cfg.Model)
	}
	if cfg.Registry.Root != "/srv/models" {
		t.Errorf("Expected registry root from env, got %s", cfg.Registry.Root)
	}
	if cfg.MiniBatchSize != 25 {
		t.Errorf("Expected mini_batch_size 25, got %d", cfg.MiniBatchSize)
	}
	if !cfg.UseMockInference {
		t.Error("Expected mock inference from env")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	body := `
model: diabetes_model:2
registry:
  type: redis
  redis: redis:6379
onnx:
  feature_count: 10
workers: 4
output:
  type: sqlite
  path: /tmp/results.db
otel_endpoint: collector:4317
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithConfigFile(path)
	if err != nil {
		t.Fatalf("LoadWithConfigFile failed: %v", err)
	}

	if cfg.Registry.Type != RegistryRedis || cfg.Registry.Redis != "redis:6379" {
		t.Errorf("Unexpected registry: %+v", cfg.Registry)
	}
	if cfg.ONNX.FeatureCount != 10 || cfg.ONNX.InputName != "float_input" {
		t.Errorf("Unexpected onnx config: %+v", cfg.ONNX)
	}
	if cfg.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Workers)
	}
	if cfg.Output.Type != OutputSQLite {
		t.Errorf("Expected sqlite output, got %s", cfg.Output.Type)
	}
	if !cfg.OTELEnabled {
		t.Error("Expected otel to be enabled by endpoint")
	}
}

func TestLoadWithConfigFile_Missing(t *testing.T) {
	if _, err := LoadWithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Model:         "diabetes_model",
			Registry:      RegistryConfig{Type: RegistryDir, Root: "models"},
			MiniBatchSize: 10,
			Workers:       1,
			Output:        OutputConfig{Type: OutputFile, Path: "out.txt"},
			Port:          50051,
			MetricsPort:   9100,
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	cases := map[string]func(c *Config){
		"no model":         func(c *Config) { c.Model = "" },
		"unknown registry": func(c *Config) { c.Registry.Type = "s3" },
		"redis no addr":    func(c *Config) { c.Registry = RegistryConfig{Type: RegistryRedis} },
		"zero batch":       func(c *Config) { c.MiniBatchSize = 0 },
		"zero workers":     func(c *Config) { c.Workers = 0 },
		"bad threshold":    func(c *Config) { c.ErrorThreshold = -2 },
		"unknown output":   func(c *Config) { c.Output.Type = "kafka" },
		"no output path":   func(c *Config) { c.Output.Path = "" },
		"bad port":         func(c *Config) { c.Port = 70000 },
		"same ports":       func(c *Config) { c.MetricsPort = c.Port },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
