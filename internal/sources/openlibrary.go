// file: internal/sources/openlibrary.go
// version: 2.0.0
// guid: 8091a2b3-c4d5-e6f7-a8b9-c0d1e2f3a4b5

package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jdfalk/audiobook-asin/internal/asin"
	"github.com/jdfalk/audiobook-asin/internal/localize"
	"github.com/jdfalk/audiobook-asin/internal/matcher"
)

// OpenLibrarySource resolves identifiers through the Open Library API.
// An ISBN resolves directly to an edition record; title/author queries go
// through a search-then-resolve two-step, because only edition detail
// records carry Amazon identifiers.
type OpenLibrarySource struct {
	httpClient *http.Client
	baseURL    string
}

// NewOpenLibrarySource creates an Open Library API client.
func NewOpenLibrarySource() *OpenLibrarySource {
	baseURL := os.Getenv("OPENLIBRARY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://openlibrary.org"
	}
	return NewOpenLibrarySourceWithBaseURL(baseURL)
}

// NewOpenLibrarySourceWithBaseURL creates a client with a custom base URL (for testing).
func NewOpenLibrarySourceWithBaseURL(baseURL string) *OpenLibrarySource {
	return &OpenLibrarySource{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (s *OpenLibrarySource) Name() string { return "Open Library" }
func (s *OpenLibrarySource) Kind() Kind   { return KindOpenLibrary }

type olSearchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Title      string   `json:"title"`
		AuthorName []string `json:"author_name"`
		EditionKey []string `json:"edition_key"`
	} `json:"docs"`
}

type olEdition struct {
	Title       string `json:"title"`
	Identifiers struct {
		Amazon []string `json:"amazon"`
	} `json:"identifiers"`
}

// Search resolves by ISBN when the variant carries one, otherwise searches
// for a matching work and fetches edition details for identifiers.
func (s *OpenLibrarySource) Search(ctx context.Context, v localize.SearchVariant) ([]Candidate, error) {
	if v.ISBN != "" {
		return s.byISBN(ctx, v)
	}
	if v.Title == "" {
		// Author-only queries return far too many works to resolve edition
		// by edition; leave those to the other sources.
		return nil, nil
	}
	return s.byTitleAuthor(ctx, v)
}

func (s *OpenLibrarySource) byISBN(ctx context.Context, v localize.SearchVariant) ([]Candidate, error) {
	var ed olEdition
	path := fmt.Sprintf("%s/isbn/%s.json", s.baseURL, url.PathEscape(v.ISBN))
	if err := s.getJSON(ctx, path, &ed); err != nil {
		var se *SourceError
		if errors.As(err, &se) && se.Reason == "status 404" {
			// Unknown ISBN is a miss, not a failure.
			return nil, nil
		}
		return nil, err
	}
	return s.editionCandidates(&ed, v), nil
}

func (s *OpenLibrarySource) byTitleAuthor(ctx context.Context, v localize.SearchVariant) ([]Candidate, error) {
	params := url.Values{}
	params.Set("title", v.Title)
	if v.Author != "" {
		params.Set("author", v.Author)
	}
	params.Set("fields", "title,author_name,edition_key")
	params.Set("limit", "3")

	var sr olSearchResponse
	searchURL := fmt.Sprintf("%s/search.json?%s", s.baseURL, params.Encode())
	if err := s.getJSON(ctx, searchURL, &sr); err != nil {
		return nil, err
	}
	if sr.NumFound == 0 || len(sr.Docs) == 0 {
		return nil, nil
	}

	// Second step: fetch edition details for the best-matching work. Only a
	// handful of editions are checked to keep the two-step cheap.
	var cands []Candidate
	for _, doc := range sr.Docs {
		for i, key := range doc.EditionKey {
			if i >= 3 {
				break
			}
			var ed olEdition
			edURL := fmt.Sprintf("%s/books/%s.json", s.baseURL, url.PathEscape(key))
			if err := s.getJSON(ctx, edURL, &ed); err != nil {
				continue
			}
			if ed.Title == "" {
				ed.Title = doc.Title
			}
			cands = append(cands, s.editionCandidates(&ed, v)...)
		}
		if len(cands) > 0 {
			break
		}
	}
	return cands, nil
}

func (s *OpenLibrarySource) editionCandidates(ed *olEdition, v localize.SearchVariant) []Candidate {
	var cands []Candidate
	for _, raw := range ed.Identifiers.Amazon {
		code := asin.Normalize(raw)
		if !asin.Valid(code) {
			continue
		}
		c := Candidate{ASIN: code, Source: KindOpenLibrary, RawTitle: ed.Title}
		if v.Title != "" {
			c.Confidence = matcher.Confidence(v.Title, ed.Title)
		} else if v.ISBN != "" {
			// A direct ISBN hit is as good as an exact title match.
			c.Confidence = 1.0
		}
		cands = append(cands, c)
	}
	return cands
}

func (s *OpenLibrarySource) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &SourceError{Source: KindOpenLibrary, Reason: "bad request", Err: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return classifyFetchErr(KindOpenLibrary, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyFetchErr(KindOpenLibrary, &StatusError{Code: resp.StatusCode})
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &SourceError{Source: KindOpenLibrary, Reason: "malformed response", Err: err}
	}
	return nil
}
