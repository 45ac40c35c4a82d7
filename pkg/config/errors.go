package config

import "fmt"

// ConfigError indicates a malformed run configuration, parameter space, or
// design adapter contract. It is fatal and raised before any batch is
// scheduled.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// NewConfigError creates a ConfigError from a format string.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
