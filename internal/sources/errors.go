// file: internal/sources/errors.go
// version: 1.0.0
// guid: 4c5d6e7f-8091-a2b3-c4d5-e6f7a8b9c0d1

package sources

import (
	"fmt"
	"time"
)

// SourceError describes a failed attempt against one adapter. Reason is a
// short human-readable phrase ("no results page", "malformed response",
// "timeout", "status 503") surfaced in the orchestrator's attempt log.
// Temporary failures are retried once by the controller; permanent ones
// are not.
type SourceError struct {
	Source    Kind
	Reason    string
	Temporary bool
	Err       error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *SourceError) Unwrap() error { return e.Err }

// RateLimitError signals that the provider is throttling us; the controller
// responds with exponential backoff rather than immediate failure.
type RateLimitError struct {
	Source     Kind
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Source, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Source)
}
