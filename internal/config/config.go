package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/zeusync/arbor/internal/core/grammar"
	"github.com/zeusync/arbor/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the service configuration, read from the environment.
type Config struct {
	Addr            string        `env:"ARBOR_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"ARBOR_LOG_LEVEL" envDefault:"info"`
	PresetDir       string        `env:"ARBOR_PRESET_DIR"`
	MaxTokens       int           `env:"ARBOR_MAX_TOKENS" envDefault:"1048576"`
	MaxIterations   int           `env:"ARBOR_MAX_ITERATIONS" envDefault:"32"`
	ForestWorkers   int           `env:"ARBOR_FOREST_WORKERS" envDefault:"4"`
	MaxForestSize   int           `env:"ARBOR_MAX_FOREST_SIZE" envDefault:"64"`
	ReadTimeout     time.Duration `env:"ARBOR_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"ARBOR_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"ARBOR_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load parses the environment into a validated Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: ARBOR_ADDR is empty", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxTokens <= 0 || c.MaxIterations <= 0 {
		return fmt.Errorf("%w: expansion limits must be positive", ErrInvalidConfig)
	}
	if c.ForestWorkers < 0 || c.MaxForestSize <= 0 {
		return fmt.Errorf("%w: forest settings out of range", ErrInvalidConfig)
	}
	return nil
}

// Level returns the parsed log level. Call Validate first.
func (c Config) Level() log.Level {
	l, _ := log.ParseLevel(c.LogLevel)
	return l
}

// Limits returns the grammar expansion limits.
func (c Config) Limits() grammar.Limits {
	return grammar.Limits{MaxTokens: c.MaxTokens, MaxIterations: c.MaxIterations}
}
