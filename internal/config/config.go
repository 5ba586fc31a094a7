package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Registry backends
const (
	RegistryDir   = "dir"
	RegistryRedis = "redis"
)

// Output sinks
const (
	OutputFile   = "file"
	OutputSQLite = "sqlite"
)

// Config holds all configuration for the batch job and the scoring server
type Config struct {
	// Model identifier, "name" or "name:version"
	Model    string         `mapstructure:"model"`
	Registry RegistryConfig `mapstructure:"registry"`
	ONNX     ONNXConfig     `mapstructure:"onnx"`

	// Batch job configuration
	Input          string       `mapstructure:"input"`
	MiniBatchSize  int          `mapstructure:"mini_batch_size"`
	Workers        int          `mapstructure:"workers"`
	ErrorThreshold int          `mapstructure:"error_threshold"`
	Output         OutputConfig `mapstructure:"output"`

	// Server configuration
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`

	Log LogConfig `mapstructure:"log"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Feature flags
	UseMockInference bool `mapstructure:"use_mock_inference"`
}

// RegistryConfig selects where model identifiers are resolved
type RegistryConfig struct {
	Type  string `mapstructure:"type"`
	Root  string `mapstructure:"root"`
	Redis string `mapstructure:"redis"`
}

// ONNXConfig describes the graph signature of ONNX artifacts
type ONNXConfig struct {
	LibraryPath  string `mapstructure:"library_path"`
	InputName    string `mapstructure:"input_name"`
	OutputName   string `mapstructure:"output_name"`
	FeatureCount int    `mapstructure:"feature_count"`
}

// OutputConfig selects where batch job results are written
type OutputConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "diabetes_model")
	v.SetDefault("registry.type", RegistryDir)
	v.SetDefault("registry.root", "./models")
	v.SetDefault("registry.redis", "localhost:6379")
	v.SetDefault("onnx.library_path", "")
	v.SetDefault("onnx.input_name", "float_input")
	v.SetDefault("onnx.output_name", "variable")
	v.SetDefault("onnx.feature_count", 0)
	v.SetDefault("input", "")
	v.SetDefault("mini_batch_size", 10)
	v.SetDefault("workers", 1)
	v.SetDefault("error_threshold", 0)
	v.SetDefault("output.type", OutputFile)
	v.SetDefault("output.path", "parallel_run_step.txt")
	v.SetDefault("port", 50051)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("use_mock_inference", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// BATCH_SCORE_REGISTRY_ROOT -> registry.root
	v.SetEnvPrefix("BATCH_SCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("otel_endpoint", "BATCH_SCORE_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("use_mock_inference", "BATCH_SCORE_USE_MOCK")

	return v
}

// Load loads configuration from environment variables and an optional config file.
// Priority (highest to lowest): env vars > config file > defaults.
// Command-line flags are applied on top by the caller.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/batch-score/")
	v.AddConfigPath("$HOME/.batch-score")

	// Read config file if present (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadWithConfigFile loads configuration from a specific config file
func LoadWithConfigFile(configPath string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.OTELEndpoint != "" {
		cfg.OTELEnabled = true
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model == "" && !c.UseMockInference {
		return fmt.Errorf("model identifier is required when not using mock inference")
	}
	switch c.Registry.Type {
	case RegistryDir:
		if c.Registry.Root == "" && !c.UseMockInference {
			return fmt.Errorf("registry.root is required for the dir registry")
		}
	case RegistryRedis:
		if c.Registry.Redis == "" {
			return fmt.Errorf("registry.redis is required for the redis registry")
		}
	default:
		return fmt.Errorf("unknown registry type %q", c.Registry.Type)
	}
	if c.MiniBatchSize <= 0 {
		return fmt.Errorf("invalid mini_batch_size: %d", c.MiniBatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	if c.ErrorThreshold < -1 {
		return fmt.Errorf("invalid error_threshold: %d (use -1 to ignore failures)", c.ErrorThreshold)
	}
	switch c.Output.Type {
	case OutputFile, OutputSQLite:
		if c.Output.Path == "" {
			return fmt.Errorf("output.path is required")
		}
	default:
		return fmt.Errorf("unknown output type %q", c.Output.Type)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics_port must be different")
	}
	return nil
}
