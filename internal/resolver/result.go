// file: internal/resolver/result.go
// version: 1.0.0
// guid: e6f7a8b9-c0d1-e2f3-a4b5-c6d7e8f9a0b1

package resolver

import (
	"fmt"
	"time"

	"github.com/jdfalk/audiobook-asin/internal/localize"
	"github.com/jdfalk/audiobook-asin/internal/sources"
)

// Attempt records one (source, variant) search and its outcome for the
// diagnostic trail. Outcome is "hit" or a human-readable failure reason.
type Attempt struct {
	Source  sources.Kind
	Variant string
	Outcome string
}

// LookupResult is the immutable outcome of one resolution. A zero ASIN
// with a populated attempt log is the normal "not found" terminal state,
// not an error.
type LookupResult struct {
	ID         string // ULID, unique per lookup
	Query      localize.BookQuery
	ASIN       string
	Source     sources.Kind
	Confidence float64
	Attempts   []Attempt
	Elapsed    time.Duration
	FromCache  bool
}

// Found reports whether the lookup produced an identifier.
func (r *LookupResult) Found() bool {
	return r.ASIN != ""
}

// ValidationError reports a malformed BookQuery. It is never retried and
// propagates to the caller as a fatal configuration-level failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}
