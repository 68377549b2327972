// file: internal/localize/query.go
// version: 1.0.0
// guid: e6f7a8b9-c0d1-4e2f-8a3b-4c5d6e7f8091

package localize

import "strings"

// BookQuery is the normalized input to a lookup: best-effort fields pulled
// from embedded metadata, the file path, or the caller's flags.
type BookQuery struct {
	Title          string
	Author         string
	Language       string // 2-letter base code, never empty after Extract
	Series         string
	SeriesPosition int
	ISBN           string
	SourcePath     string
}

// Resolvable reports whether the query carries enough signal to search:
// at least a title or an ISBN.
func (q BookQuery) Resolvable() bool {
	return strings.TrimSpace(q.Title) != "" || strings.TrimSpace(q.ISBN) != ""
}

// VariantKind labels why a SearchVariant was generated, in priority order.
type VariantKind string

const (
	KindLocalized   VariantKind = "localized"
	KindCanonical   VariantKind = "canonical"
	KindSeries      VariantKind = "series"
	KindAuthorOnly  VariantKind = "author-only"
	KindStripped    VariantKind = "noise-stripped"
	KindCrossMarket VariantKind = "cross-marketplace"
)

// SearchVariant is one concrete (title, author, storefront) query form.
type SearchVariant struct {
	Title  string
	Author string
	Domain string // regional storefront, e.g. "amazon.de"
	Kind   VariantKind
	ISBN   string
}

// String renders the variant for attempt logs.
func (v SearchVariant) String() string {
	var b strings.Builder
	b.WriteString(string(v.Kind))
	b.WriteString(" ")
	if v.Title != "" {
		b.WriteString("\"" + v.Title + "\"")
	}
	if v.Author != "" {
		b.WriteString(" by " + v.Author)
	}
	if v.Domain != "" {
		b.WriteString(" @" + v.Domain)
	}
	return b.String()
}
