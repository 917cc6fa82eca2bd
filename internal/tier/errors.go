package tier

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a malformed boundary table.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "tier: configuration: " + e.Reason
}

// InvalidValueError reports an input value that cannot be ordered (NaN).
type InvalidValueError struct {
	Index int
	Value float64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("tier: invalid value %v at index %d", e.Value, e.Index)
}

// IsConfiguration returns true if err (or any error in its chain) is a
// ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsInvalidValue returns true if err (or any error in its chain) is an
// InvalidValueError.
func IsInvalidValue(err error) bool {
	var ie *InvalidValueError
	return errors.As(err, &ie)
}

func configErr(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
