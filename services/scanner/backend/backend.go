// Package backend abstracts the generative analysis API the detectors
// talk to. The scanner core never inspects provider error codes beyond
// the transient/permanent split encoded here.
package backend

import (
	"context"
	"fmt"
)

// Backend turns a prompt into raw analysis text.
type Backend interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// TransientError wraps a failure worth retrying: rate limits, quota
// exhaustion, timeouts, upstream 5xx.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient backend error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient marks the error retryable for the retry policy.
func (e *TransientError) Transient() bool { return true }

// PermanentError wraps a failure that retrying cannot fix: malformed
// requests, authentication failures, anything 4xx that is not a rate
// limit.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent backend error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }
