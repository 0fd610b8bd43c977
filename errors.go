package attractor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrInvalidConfig is the sentinel wrapped by every *ConfigError.
	ErrInvalidConfig = errors.New("attractor: invalid configuration")

	// ErrComputation marks an unexpected failure inside a step/render
	// cycle. The run is terminated and reported like a convergence.
	ErrComputation = errors.New("attractor: computation failed")

	// ErrFallbackToCPU indicates a backend cannot serve this configuration.
	// The session transparently falls back to the CPU backend.
	ErrFallbackToCPU = errors.New("attractor: falling back to CPU engine")

	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("attractor: backend not available")

	// ErrSessionClosed is returned by Session methods after Shutdown.
	ErrSessionClosed = errors.New("attractor: session closed")

	// ErrEngineClosed is returned by Engine methods after Close.
	ErrEngineClosed = errors.New("attractor: engine closed")

	// ErrSizeMismatch is returned when a render target does not match the
	// canvas size of the engine.
	ErrSizeMismatch = errors.New("attractor: render target size mismatch")
)

// ConfigError describes a rejected run configuration. It is returned before
// any engine state is created.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("attractor: invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidConfig) hold for every ConfigError.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// computationError wraps a cycle failure in ErrComputation.
func computationError(op string, err error) error {
	if errors.Is(err, ErrComputation) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrComputation, op, err)
}
