package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/metabolize/werkit/pkg/env"
)

// Config defines runtime settings for werkit.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Deploy  DeployConfig  `yaml:"deploy"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig locates the bucket used for temp objects.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

type DeployConfig struct {
	Region          string `yaml:"region"`
	Runtime         string `yaml:"runtime"`
	PollInterval    string `yaml:"pollInterval"`
	PollMaxAttempts int    `yaml:"pollMaxAttempts"`
}

// Interval parses PollInterval, falling back to one second.
func (d DeployConfig) Interval() time.Duration {
	if v, err := time.ParseDuration(d.PollInterval); err == nil && v > 0 {
		return v
	}
	return time.Second
}

func defaults() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Endpoint: "s3.amazonaws.com",
			UseSSL:   true,
		},
		Deploy: DeployConfig{
			Runtime:         "nodejs14.x",
			PollInterval:    "1s",
			PollMaxAttempts: 60,
		},
	}
}

// LoadConfig loads configuration from an optional YAML file, .env files in
// the working directory and beside the config file, and environment
// overrides, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// The working directory's .env wins over one beside the config file.
	if err := env.LoadFromDir("."); err != nil {
		return nil, err
	}
	if path != "" {
		if err := env.LoadFromDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Log.Level, "WERKIT_LOG_LEVEL")
	setString(&cfg.Log.Format, "WERKIT_LOG_FORMAT")

	setString(&cfg.Storage.Endpoint, "WERKIT_S3_ENDPOINT")
	setString(&cfg.Storage.Bucket, "WERKIT_S3_BUCKET")
	setString(&cfg.Storage.Region, "AWS_REGION", "WERKIT_S3_REGION")
	setString(&cfg.Storage.AccessKey, "AWS_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretKey, "AWS_SECRET_ACCESS_KEY")
	if v := strings.TrimSpace(os.Getenv("WERKIT_S3_USE_SSL")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WERKIT_S3_USE_SSL: %w", err)
		}
		cfg.Storage.UseSSL = b
	}

	setString(&cfg.Deploy.Region, "AWS_REGION", "WERKIT_FUNCTION_REGION")
	setString(&cfg.Deploy.Runtime, "WERKIT_FUNCTION_RUNTIME")
	setString(&cfg.Deploy.PollInterval, "WERKIT_POLL_INTERVAL")
	if _, err := time.ParseDuration(cfg.Deploy.PollInterval); err != nil {
		return fmt.Errorf("poll interval %q: %w", cfg.Deploy.PollInterval, err)
	}
	if v := strings.TrimSpace(os.Getenv("WERKIT_POLL_MAX_ATTEMPTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WERKIT_POLL_MAX_ATTEMPTS: %w", err)
		}
		cfg.Deploy.PollMaxAttempts = n
	}
	return nil
}

// setString applies the last listed variable that is set to a non-empty
// value.
func setString(dst *string, names ...string) {
	for i := len(names) - 1; i >= 0; i-- {
		if v := strings.TrimSpace(os.Getenv(names[i])); v != "" {
			*dst = v
			return
		}
	}
}

// DefaultConfigPath returns the default location for the CLI config file.
func DefaultConfigPath() string {
	if path := os.Getenv("WERKIT_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".werkit", "config.yaml")
}
