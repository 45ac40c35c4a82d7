package config

import (
	"fmt"
	"os"
)

// LoadRunConfig loads, parses and validates a run configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseRunConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions. All failures are
// ConfigErrors: the run must not start with a malformed configuration.
func (c *RunConfig) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return NewConfigError("invalid log_level %q (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Study.Name == "" {
		return NewConfigError("study.name must not be empty")
	}
	if c.Study.Storage == "" {
		return NewConfigError("study.storage must not be empty")
	}

	if c.Run.Trials <= 0 {
		return NewConfigError("run.trials must be positive, got %d", c.Run.Trials)
	}
	if c.Run.Parallelism <= 0 {
		return NewConfigError("run.parallelism must be positive, got %d", c.Run.Parallelism)
	}
	if c.Run.ComputeBudget <= 0 {
		return NewConfigError("run.compute_budget must be positive, got %d", c.Run.ComputeBudget)
	}
	if c.Run.OutputDir == "" {
		return NewConfigError("run.output_dir must not be empty")
	}

	switch c.Evaluator.Kind {
	case "bazel", "command":
	default:
		return NewConfigError("invalid evaluator.kind %q (must be bazel or command)", c.Evaluator.Kind)
	}
	if c.Evaluator.Command == "" {
		return NewConfigError("evaluator.command must not be empty")
	}
	if _, err := c.Evaluator.GetTimeout(); err != nil {
		return NewConfigError("%v", err)
	}

	return nil
}
