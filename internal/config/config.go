package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	UploadsLocal  = "local"
	UploadsBucket = "bucket"
)

// Config models hireline.yml.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		BasePath       string   `yaml:"base_path"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Store struct {
		Driver      string `yaml:"driver"`
		DSN         string `yaml:"dsn"`
		RedisAddr   string `yaml:"redis_addr"`
		RedisPrefix string `yaml:"redis_prefix"`
	} `yaml:"store"`
	Uploads struct {
		Mode      string `yaml:"mode"`
		Dir       string `yaml:"dir"`
		BucketURL string `yaml:"bucket_url"`
		BucketKey string `yaml:"bucket_key"`
	} `yaml:"uploads"`
	Log struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

// Load reads and validates config from workspace. A missing file yields Default().
func Load(workspace string) (*Config, error) {
	cfg, err := FromFile(Path(workspace))
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with '/'")
	}
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("config.store.dsn is required for the postgres driver")
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("config.store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("config.store.driver must be one of memory, sqlite, postgres, redis (got %q)", c.Store.Driver)
	}
	switch c.Uploads.Mode {
	case UploadsLocal:
		if c.Uploads.Dir == "" {
			return fmt.Errorf("config.uploads.dir is required in local mode")
		}
	case UploadsBucket:
		if c.Uploads.BucketURL == "" {
			return fmt.Errorf("config.uploads.bucket_url is required in bucket mode")
		}
	default:
		return fmt.Errorf("config.uploads.mode must be local or bucket (got %q)", c.Uploads.Mode)
	}
	for _, o := range c.Server.AllowedOrigins {
		if o == "" {
			return fmt.Errorf("config.server.allowed_origins contains an empty origin")
		}
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("config.log rotation limits must not be negative")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "hireline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultTemplate), &cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing
// from data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8000
  base_path: ""
  allowed_origins:
    - http://localhost:5173

store:
  driver: sqlite
  dsn: ""
  redis_addr: ""
  redis_prefix: hireline

uploads:
  mode: local
  dir: uploads
  bucket_url: ""
  bucket_key: ""

log:
  file: ""
  max_size_mb: 50
  max_backups: 3
  max_age_days: 28
`
