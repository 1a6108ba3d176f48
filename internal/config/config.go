// Package config loads the lostfound configuration file.
//
// The file is chosen by the --config flag or the LOSTFOUND_CONFIG
// environment variable. Values in the file are merged over Default, and
// command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/lostfound/internal/blob"
	"github.com/erazemk/lostfound/internal/kv"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "LOSTFOUND_CONFIG"

// Config is the full configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Images  ImagesConfig  `yaml:"images"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
}

// StorageConfig selects the persistence adapter.
type StorageConfig struct {
	Driver kv.Driver `yaml:"driver"`
	Path   string    `yaml:"path"`
	DSN    string    `yaml:"dsn"`
}

// ImagesConfig selects the image blob store.
type ImagesConfig struct {
	Driver blob.Driver   `yaml:"driver"`
	Root   string        `yaml:"root"`
	S3     blob.S3Config `yaml:"s3"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
	// MaxUploadBytes caps image uploads.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Path is an optional log file. Logs always go to stdout/stderr too.
	Path string `yaml:"path"`
}

// AuthConfig configures password hashing.
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: kv.DriverSQLite,
			Path:   "lostfound.db",
		},
		Images: ImagesConfig{
			Driver: blob.DriverFilesystem,
			Root:   "images",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			TokenExpiry:    7 * 24 * time.Hour,
			MaxUploadBytes: 10 << 20,
		},
		Auth: AuthConfig{
			BcryptCost: 10,
		},
	}
}

// Load reads the file at path, or at $LOSTFOUND_CONFIG when path is empty.
// With neither set it returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile merges the YAML file at path over Default and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case kv.DriverSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for sqlite"))
		}
	case kv.DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for postgres"))
		}
	case kv.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid storage.driver: %s", c.Storage.Driver))
	}

	switch c.Images.Driver {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Images.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("images.s3.bucket is required for s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid images.driver: %s", c.Images.Driver))
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between 4 and 31"))
	}
	if c.Server.TokenExpiry <= 0 {
		errs = append(errs, fmt.Errorf("server.token_expiry must be positive"))
	}

	return errors.Join(errs...)
}

// KV returns the persistence adapter options.
func (c *Config) KV() kv.Options {
	return kv.Options{Driver: c.Storage.Driver, Path: c.Storage.Path, DSN: c.Storage.DSN}
}

// Blob returns the image store options.
func (c *Config) Blob() blob.Options {
	return blob.Options{Driver: c.Images.Driver, Root: c.Images.Root, S3: c.Images.S3}
}
