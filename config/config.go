// Package config loads the entityctl YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is read.
const (
	EnvToken   = "ENTITYCACHE_TOKEN"
	EnvBaseURL = "ENTITYCACHE_BASE_URL"
)

// Config is the top-level entityctl.yml.
type Config struct {
	BaseURL          string        `yaml:"base_url" validate:"required,url"`
	Token            string        `yaml:"token,omitempty"`
	Timeout          time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
	Codec            string        `yaml:"codec,omitempty" validate:"oneof=json cbor msgpack protobuf"`
	MaxResponseBytes int           `yaml:"max_response_bytes,omitempty" validate:"gte=0"`

	Retry       RetryConfig       `yaml:"retry"`
	Log         LogConfig         `yaml:"log"`
	Generations GenerationsConfig `yaml:"generations"`
}

// RetryConfig bounds retries of transport faults.
type RetryConfig struct {
	MaxRetries      uint64        `yaml:"max_retries"` // 0 => transport default (3)
	InitialInterval time.Duration `yaml:"initial_interval,omitempty" validate:"gte=0"`
	MaxInterval     time.Duration `yaml:"max_interval,omitempty" validate:"gte=0"`
}

type LogConfig struct {
	Level   string `yaml:"level,omitempty" validate:"oneof=debug info warn error"`
	Backend string `yaml:"backend,omitempty" validate:"oneof=zap logrus slog zerolog"`
	Format  string `yaml:"format,omitempty" validate:"oneof=text json"`
}

// GenerationsConfig selects where cache generations live.
type GenerationsConfig struct {
	Backend         string        `yaml:"backend,omitempty" validate:"oneof=local redis"`
	RedisAddr       string        `yaml:"redis_addr,omitempty" validate:"required_if=Backend redis"`
	Namespace       string        `yaml:"namespace,omitempty"`
	TTL             time.Duration `yaml:"ttl,omitempty" validate:"gte=0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval,omitempty" validate:"gte=0"`
	Retention       time.Duration `yaml:"retention,omitempty" validate:"gte=0"`
}

// Default returns a config with every optional key filled in.
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Codec == "" {
		c.Codec = "json"
	}
	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = 100 * time.Millisecond
	}
	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = 2 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Backend == "" {
		c.Log.Backend = "slog"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Generations.Backend == "" {
		c.Generations.Backend = "local"
	}
	if c.Generations.Namespace == "" {
		c.Generations.Namespace = "entitycache"
	}
	if c.Generations.CleanupInterval == 0 {
		c.Generations.CleanupInterval = time.Hour
	}
	if c.Generations.Retention == 0 {
		c.Generations.Retention = 24 * time.Hour
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvToken)); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate performs strict validation on the configuration.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Namespace()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", fe.Namespace(), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Load reads and validates the config at path. An empty path means no file:
// defaults plus environment only.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		data = b
	}
	return parse(data, os.Getenv)
}

func parse(data []byte, getenv func(string) string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
