package main

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URI != "redis://localhost:6379/0" || cfg.Timeout != 5*time.Second || cfg.LogLevel != "warn" || cfg.Tracing {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	cfg, err := loadConfig(map[string]string{
		"CACHECAST_URI":       "redis://cache:6380/2",
		"CACHECAST_NAMESPACE": "prices",
		"CACHECAST_TIMEOUT":   "250ms",
		"CACHECAST_LOG_LEVEL": "debug",
		"CACHECAST_TRACING":   "true",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := config{
		URI:       "redis://cache:6380/2",
		Namespace: "prices",
		Timeout:   250 * time.Millisecond,
		LogLevel:  "debug",
		Tracing:   true,
	}
	if cfg != want {
		t.Fatalf("got %+v want %+v", cfg, want)
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	if _, err := loadConfig(map[string]string{"CACHECAST_TIMEOUT": "soon"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	if _, err := newLogger("info"); err != nil {
		t.Fatal(err)
	}
	if _, err := newLogger("loud"); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
