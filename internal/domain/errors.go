package domain

import "errors"

// UpstreamError represents a failed fetch from one of the third-party APIs.
// Any UpstreamError aborts the refresh cycle as a whole; the previous
// snapshot stays on display.
type UpstreamError struct {
	Source string // "adurite", "rolimons", "fx"
	Op     string // Operation that failed (e.g., "get", "decode")
	Status int    // HTTP status when the upstream answered, 0 otherwise
	Err    error  // Underlying error
}

func (e *UpstreamError) Error() string {
	return e.Source + " " + e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates an upstream error without an HTTP status
func NewUpstreamError(source, op string, err error) *UpstreamError {
	return &UpstreamError{Source: source, Op: op, Err: err}
}

// NewUpstreamStatusError creates an upstream error carrying the HTTP status
func NewUpstreamStatusError(source, op string, status int, err error) *UpstreamError {
	return &UpstreamError{Source: source, Op: op, Status: status, Err: err}
}

// IsUpstream reports whether err is (or wraps) an UpstreamError
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrRateMissing is returned when the FX response carries no numeric rate
	ErrRateMissing = errors.New("fx rate missing")

	// ErrEmptyPayload is returned when an upstream answers 200 with no usable items
	ErrEmptyPayload = errors.New("empty payload")

	// ErrNoSnapshot is returned when a query arrives before the first successful refresh
	ErrNoSnapshot = errors.New("no snapshot available")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
