package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/mgomes/bindcapture/capture"
)

type fileConfig struct {
	Discipline string `toml:"discipline"`
	Iterations *int   `toml:"iterations"`
	CaptureAt  *int   `toml:"capture_at"`
	StepQuota  int    `toml:"step_quota"`
}

type runConfig struct {
	Discipline capture.Discipline
	Iterations int
	CaptureAt  int
	StepQuota  int
}

func defaultRunConfig() runConfig {
	return runConfig{
		Discipline: capture.Shared,
		Iterations: 3,
		CaptureAt:  2,
	}
}

// loadConfig returns the defaults overlaid with the TOML file at path. An
// empty path skips the file.
func loadConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.Discipline != "" {
		d, err := capture.ParseDiscipline(fc.Discipline)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Discipline = d
	}
	if fc.Iterations != nil {
		cfg.Iterations = *fc.Iterations
	}
	if fc.CaptureAt != nil {
		cfg.CaptureAt = *fc.CaptureAt
	}
	cfg.StepQuota = fc.StepQuota
	return cfg, nil
}
