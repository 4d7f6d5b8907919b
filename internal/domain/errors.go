package domain

import "fmt"

// The pipeline's closed error taxonomy. Each stage surfaces at most one of
// these; anything recoverable is a warning on the report instead.

// ConfigError covers missing credentials, unknown customer keys and missing
// portal group ids.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "config: " + e.Reason }

// FetchError means the case CLI is unavailable or its output was unusable
// beyond the text fallback.
type FetchError struct {
	Op     string
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Op, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError is raised only in strict mode, when the quality score is
// below threshold or the structural check failed.
type ValidationError struct {
	Score     float64
	Threshold float64
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s (score %.3f, threshold %.2f)", e.Reason, e.Score, e.Threshold)
}

// RenderError covers a missing template or missing required context.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render: %s: %v", e.Reason, e.Err)
	}
	return "render: " + e.Reason
}

func (e *RenderError) Unwrap() error { return e.Err }

// PostError means authentication failed across all portal environments or
// the post itself came back non-2xx.
type PostError struct {
	Environment string
	StatusCode  int
	Reason      string
	Err         error
}

func (e *PostError) Error() string {
	msg := "post"
	if e.Environment != "" {
		msg += " [" + e.Environment + "]"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PostError) Unwrap() error { return e.Err }
