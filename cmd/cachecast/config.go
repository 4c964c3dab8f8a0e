package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v7"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "CACHECAST_"

type config struct {
	URI       string        `env:"URI"       envDefault:"redis://localhost:6379/0"`
	Namespace string        `env:"NAMESPACE" envDefault:""`
	Timeout   time.Duration `env:"TIMEOUT"   envDefault:"5s"`
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"warn"`
	Tracing   bool          `env:"TRACING"   envDefault:"false"`
}

// loadConfig reads CACHECAST_* variables. environ overrides the process
// environment when non-nil.
func loadConfig(environ map[string]string) (config, error) {
	var cfg config
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.Parse(&cfg, opts); err != nil {
		return config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds a JSON zap logger on stderr so stdout carries only command output.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.Sampling = nil
	return zc.Build()
}
