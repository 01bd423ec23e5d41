package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Remote  RemoteConfig  `toml:"remote"`
	Storage StorageConfig `toml:"storage"`
	Deploy  DeployConfig  `toml:"deploy"`
	Journal JournalConfig `toml:"journal"`
	Logging LoggingConfig `toml:"logging"`
}

// RemoteConfig addresses the workflow-orchestration service.
type RemoteConfig struct {
	Endpoint        string        `toml:"endpoint"`
	Region          string        `toml:"region"`
	RequestTimeout  string        `toml:"request_timeout"`
	RequestTimeoutD time.Duration `toml:"-"`
}

// StorageConfig addresses the S3-compatible store task files are
// uploaded to.
type StorageConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

type DeployConfig struct {
	// Template is the default definition template path used when the
	// --template flag is not given.
	Template string `toml:"template"`
}

type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".pipelayer")

	return &Config{
		Remote: RemoteConfig{
			Endpoint:       "https://datapipeline.us-east-1.amazonaws.com",
			Region:         "us-east-1",
			RequestTimeout: "30s",
		},
		Storage: StorageConfig{
			Endpoint: "s3.us-east-1.amazonaws.com",
			Region:   "us-east-1",
			UseSSL:   true,
		},
		Deploy: DeployConfig{
			Template: "pipeline-definition.json",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "journal.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func LoadFromFile(path string) (*Config, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}

	return cfg, nil
}

func (c *Config) postProcess() error {
	var err error

	if c.Remote.RequestTimeoutD, err = time.ParseDuration(c.Remote.RequestTimeout); err != nil {
		return fmt.Errorf("parse remote.request_timeout: %w", err)
	}

	c.Journal.Path, err = expandPath(c.Journal.Path)
	if err != nil {
		return fmt.Errorf("expand journal.path: %w", err)
	}

	c.Deploy.Template, err = expandPath(c.Deploy.Template)
	if err != nil {
		return fmt.Errorf("expand deploy.template: %w", err)
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Remote.Endpoint == "" {
		return fmt.Errorf("remote.endpoint is required")
	}

	if c.Remote.RequestTimeoutD <= 0 {
		return fmt.Errorf("remote.request_timeout must be positive, got %s", c.Remote.RequestTimeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid logging level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid logging format: %s (valid: json, text)", c.Logging.Format)
	}

	return nil
}

func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PIPELAYER_REMOTE_ENDPOINT"); v != "" {
		cfg.Remote.Endpoint = v
	}
	if v := os.Getenv("PIPELAYER_REMOTE_REGION"); v != "" {
		cfg.Remote.Region = v
	}
	if v := os.Getenv("PIPELAYER_STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("PIPELAYER_STORAGE_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("PIPELAYER_STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("PIPELAYER_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("PIPELAYER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	// Standard AWS-style credentials apply when the PIPELAYER_* vars
	// are absent.
	if cfg.Storage.AccessKey == "" {
		cfg.Storage.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if cfg.Storage.SecretKey == "" {
		cfg.Storage.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get user home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	return path, nil
}

func Load(configPath string) (*Config, error) {
	var cfg *Config
	var err error

	if configPath != "" {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	ApplyEnvOverrides(cfg)

	if err := cfg.postProcess(); err != nil {
		return nil, fmt.Errorf("post process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
