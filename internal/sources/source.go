// file: internal/sources/source.go
// version: 1.0.0
// guid: 3b4c5d6e-7f80-91a2-b3c4-d5e6f7a8b9c0

package sources

import (
	"context"

	"github.com/jdfalk/audiobook-asin/internal/localize"
)

// Kind identifies one external data provider. The set is closed; the
// orchestrator's priority table is defined over these values.
type Kind string

const (
	KindAmazon      Kind = "amazon"
	KindAudible     Kind = "audible"
	KindOpenLibrary Kind = "openlibrary"
)

// Candidate is an identifier proposed by a source, pending validation.
// Confidence is the fuzzy match score between the listing title and the
// query that produced it, in [0,1].
type Candidate struct {
	ASIN       string
	Source     Kind
	Confidence float64
	RawTitle   string
}

// Source is a pluggable candidate provider. Search returns an empty slice
// with a nil error when the query simply had no results, so the chain moves
// on; a non-nil error is a *SourceError or *RateLimitError describing why
// this attempt failed.
type Source interface {
	Name() string
	Kind() Kind
	Search(ctx context.Context, v localize.SearchVariant) ([]Candidate, error)
}
