// file: internal/sources/audible.go
// version: 1.0.0
// guid: 7f8091a2-b3c4-d5e6-f7a8-b9c0d1e2f3a4

package sources

import (
	"context"
	"encoding/json"
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

// Audible catalog API hosts per storefront. The catalog endpoint is public
// and returns ASINs in structured JSON, unlike the storefront HTML.
var audibleHosts = map[string]string{
	"amazon.com":    "api.audible.com",
	"amazon.co.uk":  "api.audible.co.uk",
	"amazon.de":     "api.audible.de",
	"amazon.fr":     "api.audible.fr",
	"amazon.it":     "api.audible.it",
	"amazon.es":     "api.audible.es",
	"amazon.co.jp":  "api.audible.co.jp",
	"amazon.com.br": "api.audible.com.br",
}

// AudibleSource issues structured queries against the Audible catalog
// products API. Three query shapes are tried in order: title+author,
// title-only, author-only.
type AudibleSource struct {
	httpClient *http.Client
	baseURL    string // overrides per-domain host resolution when set
}

// NewAudibleSource creates a catalog API client.
func NewAudibleSource() *AudibleSource {
	s := &AudibleSource{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if base := os.Getenv("AUDIBLE_API_BASE_URL"); base != "" {
		s.baseURL = strings.TrimRight(base, "/")
	}
	return s
}

// NewAudibleSourceWithBaseURL creates a client with a fixed base URL (for testing).
func NewAudibleSourceWithBaseURL(baseURL string) *AudibleSource {
	return &AudibleSource{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (s *AudibleSource) Name() string { return "Audible catalog API" }
func (s *AudibleSource) Kind() Kind   { return KindAudible }

type audibleProduct struct {
	ASIN     string `json:"asin"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Language string `json:"language"`
}

type audibleResponse struct {
	Products     []audibleProduct `json:"products"`
	TotalResults int              `json:"total_results"`
}

// Search queries the catalog with progressively looser field combinations.
func (s *AudibleSource) Search(ctx context.Context, v localize.SearchVariant) ([]Candidate, error) {
	type querySet struct{ title, author string }
	attempts := []querySet{}
	if v.Title != "" && v.Author != "" {
		attempts = append(attempts, querySet{v.Title, v.Author})
	}
	if v.Title != "" {
		attempts = append(attempts, querySet{v.Title, ""})
	}
	if v.Author != "" && v.Title == "" {
		attempts = append(attempts, querySet{"", v.Author})
	}
	if len(attempts) == 0 {
		return nil, nil
	}

	var lastErr error
	for _, qs := range attempts {
		cands, err := s.query(ctx, v, qs.title, qs.author)
		if err != nil {
			if _, ok := err.(*RateLimitError); ok {
				return nil, err
			}
			lastErr = err
			continue
		}
		if len(cands) > 0 {
			return cands, nil
		}
	}
	return nil, lastErr
}

func (s *AudibleSource) query(ctx context.Context, v localize.SearchVariant, title, author string) ([]Candidate, error) {
	params := url.Values{}
	if title != "" {
		params.Set("title", title)
	}
	if author != "" {
		params.Set("author", author)
	}
	params.Set("num_results", "10")
	params.Set("products_sort_by", "Relevance")

	searchURL := fmt.Sprintf("%s/1.0/catalog/products?%s", s.hostFor(v.Domain), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, &SourceError{Source: KindAudible, Reason: "bad request", Err: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, classifyFetchErr(KindAudible, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyFetchErr(KindAudible, &StatusError{Code: resp.StatusCode})
	}

	var ar audibleResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, &SourceError{Source: KindAudible, Reason: "malformed response", Err: err}
	}

	cands := make([]Candidate, 0, len(ar.Products))
	for _, p := range ar.Products {
		code := asin.Normalize(p.ASIN)
		if !asin.Valid(code) {
			continue
		}
		c := Candidate{ASIN: code, Source: KindAudible, RawTitle: p.Title}
		if v.Title != "" {
			c.Confidence = matcher.Confidence(v.Title, p.Title)
		}
		cands = append(cands, c)
	}
	return cands, nil
}

// hostFor resolves the API host for a storefront domain.
func (s *AudibleSource) hostFor(domain string) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	host, ok := audibleHosts[domain]
	if !ok {
		host = "api.audible.com"
	}
	return "https://" + host
}
