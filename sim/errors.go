package sim

import (
	"errors"
	"fmt"
)

var ErrInvariant = errors.New("simulation invariant violated")

type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvariantError reports an internal logic fault. It is never retried.
type InvariantError struct {
	Agent    int
	Position Position
	Reason   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("agent %d at (%d,%d): %s", e.Agent, e.Position.Row, e.Position.Col, e.Reason)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }
