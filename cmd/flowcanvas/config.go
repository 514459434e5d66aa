package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all flowcanvas configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	LogLevel      string `json:"log_level" validate:"oneof=debug info warn error"`
	StepDelayMS   int    `json:"step_delay_ms" validate:"gte=0"`
	SchedulerTick int    `json:"scheduler_tick_seconds" validate:"gte=0"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:      "info",
		StepDelayMS:   1000,
		SchedulerTick: 60,
	}
}

func flowcanvasDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowcanvas"
	}
	return filepath.Join(home, ".flowcanvas")
}

func settingsPath() string {
	return filepath.Join(flowcanvasDir(), "settings.json")
}

func loadConfig() (Config, error) {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("FLOWCANVAS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLOWCANVAS_STEP_DELAY_MS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.StepDelayMS = n
		}
	}
	if v := os.Getenv("FLOWCANVAS_SCHEDULER_TICK"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.SchedulerTick = n
		}
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// StepDelay returns the simulation step delay as a duration.
func (c Config) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMS) * time.Millisecond
}

// SchedulerInterval returns the smoke-run poll interval as a duration.
func (c Config) SchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerTick) * time.Second
}
