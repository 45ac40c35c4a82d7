package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultRunConfig returns a RunConfig populated with defaults.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		LogLevel: "info",
		Study: StudyConfig{
			Name:    "dse",
			Storage: "results/study.db",
		},
		Run: RunSettings{
			Trials:        20,
			Seed:          42,
			Parallelism:   1,
			ComputeBudget: 16,
			OutputDir:     "results",
		},
		Evaluator: EvaluatorConfig{
			Kind:    "bazel",
			Command: "bazel",
			Timeout: "10m",
		},
	}
}

// ParseRunConfigYAML parses a run configuration from YAML, applying
// defaults for unset fields.
func ParseRunConfigYAML(data []byte) (*RunConfig, error) {
	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config YAML: %w", err)
	}
	return cfg, nil
}
