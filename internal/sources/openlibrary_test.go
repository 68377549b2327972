// file: internal/sources/openlibrary_test.go
// version: 2.0.0
// guid: b3c4d5e6-f7a8-b9c0-d1e2-f3a4b5c6d7e8

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jdfalk/audiobook-asin/internal/localize"
)

func TestOpenLibraryByISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/isbn/9780765311788.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{
			"title": "Mistborn: The Final Empire",
			"identifiers": {"amazon": ["B0041JKFJW"]}
		}`))
	}))
	defer server.Close()

	s := NewOpenLibrarySourceWithBaseURL(server.URL)
	cands, err := s.Search(context.Background(), localize.SearchVariant{ISBN: "9780765311788"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].ASIN != "B0041JKFJW" || cands[0].Confidence != 1.0 {
		t.Errorf("unexpected candidate: %+v", cands[0])
	}
}

func TestOpenLibraryUnknownISBNIsAMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewOpenLibrarySourceWithBaseURL(server.URL)
	cands, err := s.Search(context.Background(), localize.SearchVariant{ISBN: "0000000000"})
	if err != nil {
		t.Fatalf("404 on ISBN should not be an error: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates, got %d", len(cands))
	}
}

func TestOpenLibrarySearchThenResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search.json":
			if r.URL.Query().Get("title") != "Mistborn" {
				_, _ = w.Write([]byte(`{"numFound": 0, "docs": []}`))
				return
			}
			_, _ = w.Write([]byte(`{
				"numFound": 1,
				"docs": [{"title": "Mistborn", "author_name": ["Brandon Sanderson"], "edition_key": ["OL123M", "OL456M"]}]
			}`))
		case "/books/OL123M.json":
			// First edition has no Amazon identifier.
			_, _ = w.Write([]byte(`{"title": "Mistborn (hardcover)", "identifiers": {}}`))
		case "/books/OL456M.json":
			_, _ = w.Write([]byte(`{"title": "Mistborn: The Final Empire", "identifiers": {"amazon": ["B0041JKFJW"]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	s := NewOpenLibrarySourceWithBaseURL(server.URL)
	cands, err := s.Search(context.Background(), localize.SearchVariant{
		Title: "Mistborn", Author: "Brandon Sanderson",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(cands), cands)
	}
	if cands[0].ASIN != "B0041JKFJW" || cands[0].Source != KindOpenLibrary {
		t.Errorf("unexpected candidate: %+v", cands[0])
	}
}

func TestOpenLibraryAuthorOnlySkipped(t *testing.T) {
	s := NewOpenLibrarySourceWithBaseURL("http://127.0.0.1:1")
	cands, err := s.Search(context.Background(), localize.SearchVariant{Author: "Brandon Sanderson"})
	if err != nil || cands != nil {
		t.Errorf("author-only should be a silent no-op, got %v, %v", cands, err)
	}
}

func TestOpenLibraryServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewOpenLibrarySourceWithBaseURL(server.URL)
	_, err := s.Search(context.Background(), localize.SearchVariant{Title: "x"})
	se, ok := err.(*SourceError)
	if !ok {
		t.Fatalf("expected *SourceError, got %T: %v", err, err)
	}
	if !se.Temporary {
		t.Error("5xx must be classified as temporary")
	}
}

// Verify interface compliance
var _ Source = (*OpenLibrarySource)(nil)
