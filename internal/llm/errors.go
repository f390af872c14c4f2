package llm

import (
	"fmt"
	"time"
)

// ErrBackend indicates the backend failed for a non-parse reason
// (transport error, 5xx, unexpected SDK failure). Never retried.
type ErrBackend struct {
	Err error
}

func (e *ErrBackend) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend call failed: %v", e.Err)
	}
	return "backend call failed"
}

func (e *ErrBackend) Unwrap() error { return e.Err }

// ErrRateLimit indicates the backend returned a rate limit error (429).
// The JSON call contract treats it like any other backend failure.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrMalformedResponse indicates the model's output could not be parsed as
// JSON after the configured number of attempts.
type ErrMalformedResponse struct {
	Attempts int
	Content  string // last raw content, after fence stripping
	Err      error  // last parse error
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("failed to parse model response as JSON after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ErrMalformedResponse) Unwrap() error { return e.Err }
