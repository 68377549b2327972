// file: internal/sources/audible_test.go
// version: 1.0.0
// guid: a2b3c4d5-e6f7-a8b9-c0d1-e2f3a4b5c6d7

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jdfalk/audiobook-asin/internal/localize"
)

func TestAudibleSearchByTitleAndAuthor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.0/catalog/products" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("title") != "Mistborn" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{
			"total_results": 2,
			"products": [
				{"asin": "B002UZZ9QA", "title": "Mistborn: The Final Empire", "authors": [{"name": "Brandon Sanderson"}], "language": "english"},
				{"asin": "not-an-asin", "title": "Bogus"}
			]
		}`))
	}))
	defer server.Close()

	s := NewAudibleSourceWithBaseURL(server.URL)
	cands, err := s.Search(context.Background(), localize.SearchVariant{
		Title: "Mistborn", Author: "Brandon Sanderson", Domain: "amazon.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 valid candidate, got %d", len(cands))
	}
	if cands[0].ASIN != "B002UZZ9QA" || cands[0].Source != KindAudible {
		t.Errorf("unexpected candidate: %+v", cands[0])
	}
	if cands[0].Confidence < 0.9 {
		t.Errorf("confidence = %v, want >= 0.9", cands[0].Confidence)
	}
}

func TestAudibleFallsBackToTitleOnly(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// First call (title+author) has no products; title-only hits.
		if r.URL.Query().Get("author") != "" {
			_, _ = w.Write([]byte(`{"total_results": 0, "products": []}`))
			return
		}
		_, _ = w.Write([]byte(`{"total_results": 1, "products": [
			{"asin": "B002UZZ9QA", "title": "Mistborn: The Final Empire"}
		]}`))
	}))
	defer server.Close()

	s := NewAudibleSourceWithBaseURL(server.URL)
	cands, err := s.Search(context.Background(), localize.SearchVariant{
		Title: "Mistborn", Author: "Misspelled Author",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 query attempts, got %d", calls)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
}

func TestAudibleRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewAudibleSourceWithBaseURL(server.URL)
	_, err := s.Search(context.Background(), localize.SearchVariant{Title: "x"})
	if _, ok := err.(*RateLimitError); !ok {
		t.Errorf("expected *RateLimitError, got %T: %v", err, err)
	}
}

func TestAudibleMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products": [`))
	}))
	defer server.Close()

	s := NewAudibleSourceWithBaseURL(server.URL)
	_, err := s.Search(context.Background(), localize.SearchVariant{Title: "x"})
	se, ok := err.(*SourceError)
	if !ok {
		t.Fatalf("expected *SourceError, got %T: %v", err, err)
	}
	if se.Reason != "malformed response" {
		t.Errorf("reason = %q", se.Reason)
	}
}

func TestAudibleHostForDomain(t *testing.T) {
	s := NewAudibleSource()
	if got := s.hostFor("amazon.de"); got != "https://api.audible.de" {
		t.Errorf("hostFor(amazon.de) = %q", got)
	}
	if got := s.hostFor("amazon.xx"); got != "https://api.audible.com" {
		t.Errorf("unknown domain should fall back to .com, got %q", got)
	}
}

// Verify interface compliance
var _ Source = (*AudibleSource)(nil)
