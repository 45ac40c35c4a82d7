package config

import (
	"fmt"
	"time"
)

// RunConfig is the top-level run configuration for a design-space
// exploration. Values left at their zero value are filled with defaults
// during parsing; command-line flags may override any of them.
type RunConfig struct {
	LogLevel  string          `yaml:"log_level"`
	Study     StudyConfig     `yaml:"study"`
	Run       RunSettings     `yaml:"run"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
}

// StudyConfig identifies the persistent study.
type StudyConfig struct {
	// Name addresses the study within the storage location. Resuming a
	// run with the same (storage, name) pair continues the trial history.
	Name string `yaml:"name"`
	// Storage is the directory holding the embedded study database.
	Storage string `yaml:"storage"`
}

// RunSettings controls the exploration loop.
type RunSettings struct {
	Trials        int    `yaml:"trials"`
	Seed          int64  `yaml:"seed"`
	Parallelism   int    `yaml:"parallelism"`
	ComputeBudget int    `yaml:"compute_budget"`
	OutputDir     string `yaml:"output_dir"`
	// QuickTest shrinks the trial count to QuickTestTrials. It changes
	// nothing else about the algorithm.
	QuickTest bool `yaml:"quick_test"`
}

// EvaluatorConfig selects and configures the external build-and-measure
// boundary.
type EvaluatorConfig struct {
	// Kind is "bazel" (one build invocation per batch) or "command"
	// (one process per batch item).
	Kind          string `yaml:"kind"`
	Command       string `yaml:"command"`
	WorkspaceRoot string `yaml:"workspace_root"`
	Timeout       string `yaml:"timeout"`
}

// QuickTestTrials is the trial count used when quick-test mode is enabled.
const QuickTestTrials = 5

// GetTimeout parses the evaluator timeout string.
func (e *EvaluatorConfig) GetTimeout() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid evaluator timeout %q: %w", e.Timeout, err)
	}
	return d, nil
}

// EffectiveTrials returns the requested trial count with quick-test mode
// applied.
func (r *RunSettings) EffectiveTrials() int {
	if r.QuickTest && r.Trials > QuickTestTrials {
		return QuickTestTrials
	}
	return r.Trials
}
