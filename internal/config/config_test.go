package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Repository.Storage != "memory" {
		t.Errorf("Storage = %q, want memory", cfg.Repository.Storage)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics enabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
repository:
  storage: s3
  branch: dev
  s3:
    region: us-west-2
    bucket: drift-data
    key_prefix: repos/alpha
logging:
  level: debug
metrics:
  enabled: true
  port: 9191
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Repository.Storage != "s3" {
		t.Errorf("Storage = %q", cfg.Repository.Storage)
	}
	if cfg.Repository.Branch != "dev" {
		t.Errorf("Branch = %q", cfg.Repository.Branch)
	}
	if cfg.Repository.S3.Bucket != "drift-data" {
		t.Errorf("Bucket = %q", cfg.Repository.S3.Bucket)
	}
	if cfg.Repository.S3.KeyPrefix != "repos/alpha" {
		t.Errorf("KeyPrefix = %q", cfg.Repository.S3.KeyPrefix)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	// Unset fields keep their defaults.
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Path = %q, want /metrics", cfg.Metrics.Path)
	}
	if cfg.Metrics.Port != 9191 {
		t.Errorf("Port = %d, want 9191", cfg.Metrics.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DRIFTSTORE_S3_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("DRIFTSTORE_S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("DRIFTSTORE_LOG_LEVEL", "warn")

	path := writeConfig(t, `
repository:
  storage: s3
  s3:
    region: us-east-1
    bucket: b
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Repository.S3.AccessKeyID != "AKIATEST" {
		t.Errorf("AccessKeyID = %q", cfg.Repository.S3.AccessKeyID)
	}
	if cfg.Repository.S3.SecretAccessKey != "secret" {
		t.Errorf("SecretAccessKey not overridden")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr bool
	}{
		{"defaults are valid", func(*Configuration) {}, false},
		{"unknown storage", func(c *Configuration) { c.Repository.Storage = "tape" }, true},
		{"s3 without bucket", func(c *Configuration) { c.Repository.Storage = "s3" }, true},
		{"s3 without region or endpoint", func(c *Configuration) {
			c.Repository.Storage = "s3"
			c.Repository.S3.Bucket = "b"
		}, true},
		{"s3 with endpoint only", func(c *Configuration) {
			c.Repository.Storage = "s3"
			c.Repository.S3.Bucket = "b"
			c.Repository.S3.Endpoint = "http://localhost:9000"
		}, false},
		{"bad log level", func(c *Configuration) { c.Logging.Level = "verbose" }, true},
		{"bad metrics port", func(c *Configuration) {
			c.Metrics.Enabled = true
			c.Metrics.Port = -1
		}, true},
		{"empty metrics path", func(c *Configuration) {
			c.Metrics.Enabled = true
			c.Metrics.Path = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("loading a missing file succeeded")
	}
}
