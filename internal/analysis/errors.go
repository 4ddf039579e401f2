package analysis

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when neither the remote pipeline nor fallback
// synthesis has anything to work with.
var ErrEmptyInput = errors.New("no analyzable rows in input")

// ConfigError reports missing required configuration. It fails fast: the
// pipeline does not attempt the network and does not fall back, because
// there is nothing to retry.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("required configuration missing: %s", e.Missing)
}

// APIError reports a non-2xx response from a remote stage.
type APIError struct {
	Stage  string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stage %s returned status %d: %s", e.Stage, e.Status, e.Body)
}

// NetworkError reports a transport-level failure reaching a remote stage.
// Timeouts are treated the same as any other transport failure.
type NetworkError struct {
	Stage string
	Err   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("stage %s unreachable: %v", e.Stage, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParsingError reports a response body that could not be decoded into the
// expected shape.
type ParsingError struct {
	Stage  string
	Reason string
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("stage %s response unparsable: %s", e.Stage, e.Reason)
}

// ValidationError reports a decoded response lacking required fields.
type ValidationError struct {
	Stage  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stage %s response invalid: %s", e.Stage, e.Reason)
}

// recoverable reports whether a stage failure should degrade to fallback
// synthesis rather than surface to the caller.
func recoverable(err error) bool {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return false
	}
	if errors.Is(err, ErrEmptyInput) {
		return false
	}
	return true
}
