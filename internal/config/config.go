package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/driftstore/driftstore/internal/objstore"
)

// Configuration is the complete driftstore configuration.
type Configuration struct {
	Repository RepositoryConfig `yaml:"repository"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// RepositoryConfig selects and parameterizes the object storage a repository
// persists into.
type RepositoryConfig struct {
	// Storage is the object storage kind: "memory" or "s3".
	Storage string `yaml:"storage"`

	// Branch is the branch to open; empty means the default branch.
	Branch string `yaml:"branch"`

	S3 objstore.S3Config `yaml:"s3"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// DefaultConfiguration returns the configuration used when no file is given:
// an in-memory repository with info logging and metrics disabled.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Repository: RepositoryConfig{
			Storage: "memory",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Port:      9090,
			Path:      "/metrics",
			Namespace: "driftstore",
		},
	}
}

// Load reads the configuration from path, applies defaults for unset fields,
// then environment overrides, and validates the result. An empty path yields
// the defaults.
func Load(path string) (*Configuration, error) {
	cfg := DefaultConfiguration()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets credentials come from the environment so they can
// stay out of config files.
func applyEnvOverrides(cfg *Configuration) {
	if v := os.Getenv("DRIFTSTORE_S3_ACCESS_KEY_ID"); v != "" {
		cfg.Repository.S3.AccessKeyID = v
	}
	if v := os.Getenv("DRIFTSTORE_S3_SECRET_ACCESS_KEY"); v != "" {
		cfg.Repository.S3.SecretAccessKey = v
	}
	if v := os.Getenv("DRIFTSTORE_S3_SESSION_TOKEN"); v != "" {
		cfg.Repository.S3.SessionToken = v
	}
	if v := os.Getenv("DRIFTSTORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Configuration) Validate() error {
	switch c.Repository.Storage {
	case "memory":
	case "s3":
		if c.Repository.S3.Bucket == "" {
			return fmt.Errorf("s3 storage requires a bucket name")
		}
		if c.Repository.S3.Region == "" && c.Repository.S3.Endpoint == "" {
			return fmt.Errorf("s3 storage requires a region or an endpoint")
		}
	default:
		return fmt.Errorf("unknown storage kind %q (expected memory or s3)", c.Repository.Storage)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics port %d out of range", c.Metrics.Port)
		}
		if c.Metrics.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}
	return nil
}
