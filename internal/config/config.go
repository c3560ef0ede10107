package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/olehluchkiv/topicmap/internal/layout"
)

// validate is a singleton validator instance.
var validate = validator.New()

// Config holds topicmap configuration.
type Config struct {
	Service   ServiceConfig   `toml:"service"`
	Layout    layout.Config   `toml:"layout"`
	Aggregate AggregateConfig `toml:"aggregate"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// ServiceConfig locates the data service.
type ServiceConfig struct {
	Endpoint   string        `toml:"endpoint" validate:"required,url"`
	Token      string        `toml:"token"`
	Timeout    time.Duration `toml:"timeout" validate:"gt=0"`
	RetryDelay time.Duration `toml:"retry_delay" validate:"gte=0"`
	ItemSuffix string        `toml:"item_suffix"`
}

// AggregateConfig controls item resolution.
type AggregateConfig struct {
	Concurrency int `toml:"concurrency" validate:"gte=1,lte=64"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port" validate:"gte=0,lte=65535"`
	OpenBrowser bool   `toml:"open_browser"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
	File  string `toml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Endpoint:   "http://localhost:15000",
			Timeout:    30 * time.Second,
			RetryDelay: time.Second,
			ItemSuffix: ".stm",
		},
		Layout:    layout.DefaultConfig(),
		Aggregate: AggregateConfig{Concurrency: 4},
		Server:    ServerConfig{Host: "localhost", Port: 8080, OpenBrowser: true},
		Log:       LogConfig{Level: "info", File: "logs/topicmap.log"},
	}
}

// Dir returns the topicmap config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "topicmap")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path over the defaults. An empty path means
// DefaultPath, and a missing default file is not an error. The result is
// not validated; call Validate after applying overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges. It reports the first failing field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "url":
			return fmt.Errorf("%s: must be an absolute URL, got %q", field, e.Value())
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, e.Param())
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, e.Param())
		case "lte":
			return fmt.Errorf("%s: must not exceed %s", field, e.Param())
		case "oneof":
			return fmt.Errorf("%s: must be one of %s", field, e.Param())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
