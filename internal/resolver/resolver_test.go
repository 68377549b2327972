// file: internal/resolver/resolver_test.go
// version: 1.0.0
// guid: 19c0d1e2-f3a4-b5c6-d7e8-f9a0b1c2d3e4

package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jdfalk/audiobook-asin/internal/cache"
	"github.com/jdfalk/audiobook-asin/internal/localize"
	"github.com/jdfalk/audiobook-asin/internal/ratelimit"
	"github.com/jdfalk/audiobook-asin/internal/sources"
)

// stubSource is a scripted source for orchestrator tests.
type stubSource struct {
	mu    sync.Mutex
	kind  sources.Kind
	fn    func(v localize.SearchVariant) ([]sources.Candidate, error)
	calls []localize.SearchVariant
}

func (s *stubSource) Name() string       { return "stub " + string(s.kind) }
func (s *stubSource) Kind() sources.Kind { return s.kind }

func (s *stubSource) Search(_ context.Context, v localize.SearchVariant) ([]sources.Candidate, error) {
	s.mu.Lock()
	s.calls = append(s.calls, v)
	s.mu.Unlock()
	if s.fn == nil {
		return nil, nil
	}
	return s.fn(v)
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestResolver(t *testing.T, srcs ...sources.Source) *Resolver {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "asin-cache.json"), 0)
	if err != nil {
		t.Fatal(err)
	}
	ctl := ratelimit.New(0, ratelimit.DefaultRetryPolicy())
	return New(store, ctl, srcs...)
}

func TestResolveExactMatchThenCached(t *testing.T) {
	amazon := &stubSource{kind: sources.KindAmazon} // always empty
	audible := &stubSource{kind: sources.KindAudible, fn: func(v localize.SearchVariant) ([]sources.Candidate, error) {
		return []sources.Candidate{{
			ASIN: "B002UZZ9QA", Source: sources.KindAudible,
			RawTitle: "Mistborn: The Final Empire", Confidence: 0.95,
		}}, nil
	}}
	r := newTestResolver(t, amazon, audible)

	q := localize.BookQuery{Title: "Mistborn", Author: "Brandon Sanderson", Language: "en"}
	res, err := r.Resolve(context.Background(), q, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ASIN != "B002UZZ9QA" || res.Source != sources.KindAudible {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.FromCache {
		t.Error("first resolution must not come from cache")
	}
	if res.ID == "" {
		t.Error("result must carry a lookup ID")
	}
	// The storefront was asked first (priority order), once for the variant.
	if amazon.callCount() != 1 || audible.callCount() != 1 {
		t.Errorf("call counts amazon=%d audible=%d", amazon.callCount(), audible.callCount())
	}

	// Second resolution: idempotent, answered from cache, no source calls.
	res2, err := r.Resolve(context.Background(), q, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res2.FromCache || res2.ASIN != res.ASIN {
		t.Errorf("expected cached result, got %+v", res2)
	}
	if audible.callCount() != 1 {
		t.Error("cached lookup must not hit sources again")
	}
	if res2.Elapsed > time.Second {
		t.Errorf("cached lookup should be near-instant, took %s", res2.Elapsed)
	}
}

func TestResolveLocalizationFallback(t *testing.T) {
	// German marketplace variant finds nothing; the canonical English
	// equivalent succeeds on amazon.com.
	amazon := &stubSource{kind: sources.KindAmazon, fn: func(v localize.SearchVariant) ([]sources.Candidate, error) {
		if v.Title == "Mistborn: The Final Empire" && v.Domain == "amazon.com" {
			return []sources.Candidate{{
				ASIN: "B0041JKFJW", Source: sources.KindAmazon,
				RawTitle: "Mistborn: The Final Empire", Confidence: 1.0,
			}}, nil
		}
		return nil, nil
	}}
	r := newTestResolver(t, amazon)

	q := localize.BookQuery{Title: "Kinder des Nebels", Language: "de"}
	res, err := r.Resolve(context.Background(), q, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.ASIN != "B0041JKFJW" {
		t.Fatalf("expected fallback hit, got %+v", res)
	}

	// First attempt was the localized German form on amazon.de.
	first := amazon.calls[0]
	if first.Title != "Kinder des Nebels" || first.Domain != "amazon.de" {
		t.Errorf("first variant should be the German storefront form: %+v", first)
	}
	if len(res.Attempts) < 2 {
		t.Fatalf("expected a failed attempt before the hit, got %+v", res.Attempts)
	}
	if res.Attempts[0].Outcome != "no results" {
		t.Errorf("first attempt outcome = %q", res.Attempts[0].Outcome)
	}
	if res.Attempts[len(res.Attempts)-1].Outcome != "hit" {
		t.Errorf("last attempt should be the hit: %+v", res.Attempts)
	}
}

func TestResolveTotalFailure(t *testing.T) {
	amazon := &stubSource{kind: sources.KindAmazon}
	openlib := &stubSource{kind: sources.KindOpenLibrary, fn: func(localize.SearchVariant) ([]sources.Candidate, error) {
		return nil, &sources.SourceError{Source: sources.KindOpenLibrary, Reason: "status 400"}
	}}
	r := newTestResolver(t, amazon, openlib)

	q := localize.BookQuery{Title: "Zzznonexistent Title Qqq", Author: "Nobody", Language: "en"}
	res, err := r.Resolve(context.Background(), q, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Found() {
		t.Fatalf("expected no identifier, got %q", res.ASIN)
	}

	// One attempt per (source, variant) pair, each with a reason.
	wantAttempts := len(localize.Variants(q)) * 2
	if len(res.Attempts) != wantAttempts {
		t.Errorf("attempt log has %d entries, want %d", len(res.Attempts), wantAttempts)
	}
	for _, a := range res.Attempts {
		if a.Outcome == "" || a.Outcome == "hit" {
			t.Errorf("unexpected outcome in failed lookup: %+v", a)
		}
	}

	// The negative result is cached: a re-query touches no source.
	amazonCalls := amazon.callCount()
	res2, err := r.Resolve(context.Background(), q, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res2.FromCache || res2.Found() {
		t.Errorf("expected cached negative, got %+v", res2)
	}
	if amazon.callCount() != amazonCalls {
		t.Error("cached negative must not trigger source calls")
	}

	// Forced refresh bypasses the negative entry.
	_, err = r.Resolve(context.Background(), q, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if amazon.callCount() == amazonCalls {
		t.Error("refresh must bypass the cache and search again")
	}
}

func TestResolveConfidenceThreshold(t *testing.T) {
	weak := &stubSource{kind: sources.KindAmazon, fn: func(v localize.SearchVariant) ([]sources.Candidate, error) {
		return []sources.Candidate{{
			ASIN: "B0041JKFJW", Source: sources.KindAmazon,
			RawTitle: "A Completely Different Book", Confidence: 0.3,
		}}, nil
	}}
	r := newTestResolver(t, weak)

	q := localize.BookQuery{Title: "Mistborn", Language: "en"}
	res, err := r.Resolve(context.Background(), q, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Found() {
		t.Errorf("low-confidence candidate must be discarded, got %+v", res)
	}
	for _, a := range res.Attempts {
		if a.Outcome == "hit" {
			t.Errorf("no attempt should be a hit: %+v", a)
		}
	}
}

func TestResolveStructurallyInvalidCandidateRejected(t *testing.T) {
	bogus := &stubSource{kind: sources.KindAudible, fn: func(v localize.SearchVariant) ([]sources.Candidate, error) {
		return []sources.Candidate{{
			ASIN: "0593135202", Source: sources.KindAudible, // ISBN-10, not an ASIN
			RawTitle: v.Title, Confidence: 1.0,
		}}, nil
	}}
	r := newTestResolver(t, bogus)

	res, err := r.Resolve(context.Background(), localize.BookQuery{Title: "Mistborn", Language: "en"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Found() {
		t.Errorf("ISBN-shaped candidate must fail validation, got %+v", res)
	}
}

func TestResolveInvalidQuery(t *testing.T) {
	r := newTestResolver(t)
	_, err := r.Resolve(context.Background(), localize.BookQuery{Author: "Only An Author"}, Options{})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected *ValidationError, got %T: %v", err, err)
	}
}

func TestResolveFuzzyExpandsVariants(t *testing.T) {
	plain := &stubSource{kind: sources.KindAmazon}
	r := newTestResolver(t, plain)
	q := localize.BookQuery{Title: "Mistborn: The Final Empire", Author: "Brandon Sanderson", Language: "en"}

	res, err := r.Resolve(context.Background(), q, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	baseAttempts := len(res.Attempts)

	res2, err := r.Resolve(context.Background(), q, Options{Refresh: true, Fuzzy: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res2.Attempts) <= baseAttempts {
		t.Errorf("fuzzy mode should add variants: %d <= %d", len(res2.Attempts), baseAttempts)
	}
}
