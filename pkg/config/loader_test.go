package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
log_level: debug
study:
  name: simddot-dse
  storage: /tmp/dse/study.db
run:
  trials: 40
  seed: 7
  parallelism: 4
  compute_budget: 16
  output_dir: /tmp/dse/out
evaluator:
  kind: command
  command: ./fake_build.sh
  timeout: 30s
`

func TestParseRunConfigYAML(t *testing.T) {
	cfg, err := ParseRunConfigYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log_level debug, got %q", cfg.LogLevel)
	}
	if cfg.Study.Name != "simddot-dse" {
		t.Errorf("expected study name simddot-dse, got %q", cfg.Study.Name)
	}
	if cfg.Run.Trials != 40 {
		t.Errorf("expected 40 trials, got %d", cfg.Run.Trials)
	}
	if cfg.Run.Parallelism != 4 {
		t.Errorf("expected parallelism 4, got %d", cfg.Run.Parallelism)
	}
	if cfg.Evaluator.Kind != "command" {
		t.Errorf("expected evaluator kind command, got %q", cfg.Evaluator.Kind)
	}

	timeout, err := cfg.Evaluator.GetTimeout()
	if err != nil {
		t.Fatalf("failed to parse timeout: %v", err)
	}
	if timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", timeout)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := ParseRunConfigYAML([]byte("study:\n  name: x\n"))
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}
	if cfg.Run.Trials != 20 {
		t.Errorf("expected default trials 20, got %d", cfg.Run.Trials)
	}
	if cfg.Run.Seed != 42 {
		t.Errorf("expected default seed 42, got %d", cfg.Run.Seed)
	}
	if cfg.Evaluator.Kind != "bazel" {
		t.Errorf("expected default evaluator kind bazel, got %q", cfg.Evaluator.Kind)
	}
}

func TestLoadRunConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Run.Seed != 7 {
		t.Errorf("expected seed 7, got %d", cfg.Run.Seed)
	}
}

func TestLoadRunConfigMissingFile(t *testing.T) {
	if _, err := LoadRunConfig("/nonexistent/run.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"bad log level", func(c *RunConfig) { c.LogLevel = "verbose" }},
		{"empty study name", func(c *RunConfig) { c.Study.Name = "" }},
		{"empty storage", func(c *RunConfig) { c.Study.Storage = "" }},
		{"zero trials", func(c *RunConfig) { c.Run.Trials = 0 }},
		{"negative parallelism", func(c *RunConfig) { c.Run.Parallelism = -1 }},
		{"zero budget", func(c *RunConfig) { c.Run.ComputeBudget = 0 }},
		{"bad evaluator kind", func(c *RunConfig) { c.Evaluator.Kind = "make" }},
		{"empty command", func(c *RunConfig) { c.Evaluator.Command = "" }},
		{"bad timeout", func(c *RunConfig) { c.Evaluator.Timeout = "soon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigError, got %T: %v", err, err)
			}
		})
	}
}

func TestEffectiveTrials(t *testing.T) {
	r := RunSettings{Trials: 50, QuickTest: true}
	if got := r.EffectiveTrials(); got != QuickTestTrials {
		t.Errorf("expected quick test to shrink trials to %d, got %d", QuickTestTrials, got)
	}

	r = RunSettings{Trials: 3, QuickTest: true}
	if got := r.EffectiveTrials(); got != 3 {
		t.Errorf("quick test should never grow the trial count, got %d", got)
	}

	r = RunSettings{Trials: 50}
	if got := r.EffectiveTrials(); got != 50 {
		t.Errorf("expected 50 trials without quick test, got %d", got)
	}
}
