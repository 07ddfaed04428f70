package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors raised outside the step hot path.
var (
	// ErrInvalidConfig indicates a parameter the settings layer must reject.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownIntegrator indicates an integrator name with no registration.
	ErrUnknownIntegrator = errors.New("dynamo: unknown integrator")

	// ErrUnknownScene indicates an initial-condition kind with no generator.
	ErrUnknownScene = errors.New("dynamo: unknown scene")

	// ErrUnknownPreset indicates a preset name with no entry.
	ErrUnknownPreset = errors.New("dynamo: unknown preset")

	// ErrNoParticles indicates a run was started on an empty buffer.
	ErrNoParticles = errors.New("dynamo: empty particle buffer")
)

// ConfigError names the offending field of a rejected configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
