// file: internal/sources/amazon.go
// version: 1.0.0
// guid: 6e7f8091-a2b3-c4d5-e6f7-a8b9c0d1e2f3

package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/jdfalk/audiobook-asin/internal/asin"
	"github.com/jdfalk/audiobook-asin/internal/localize"
	"github.com/jdfalk/audiobook-asin/internal/matcher"
)

// ASIN embedded in a product link: /dp/B0... or /gp/product/B0...
var reProductASIN = regexp.MustCompile(`/(?:dp|gp/product)/(B[0-9A-Z]{9})`)

// Search scopes tried in order on a single query. Digital editions first,
// because audiobook/Kindle listings carry the ASINs this tool is after.
var amazonScopes = []string{"digital-text", "stripbooks"}

// AmazonSource queries a regional storefront search page and scrapes
// candidate ASINs from the result listing. The page fetch is pluggable.
type AmazonSource struct {
	fetcher Fetcher
}

// NewAmazonSource creates a storefront source using the given page fetcher.
func NewAmazonSource(f Fetcher) *AmazonSource {
	return &AmazonSource{fetcher: f}
}

func (s *AmazonSource) Name() string { return "Amazon storefront" }
func (s *AmazonSource) Kind() Kind   { return KindAmazon }

// Search runs the variant's query against the variant's storefront domain,
// trying each scope in order until one yields candidates.
func (s *AmazonSource) Search(ctx context.Context, v localize.SearchVariant) ([]Candidate, error) {
	query := strings.TrimSpace(strings.TrimSpace(v.Title) + " " + strings.TrimSpace(v.Author))
	if query == "" {
		return nil, nil
	}
	domain := v.Domain
	if domain == "" {
		domain = "amazon.com"
	}

	var lastErr error
	for _, scope := range amazonScopes {
		q := url.Values{}
		q.Set("k", query)
		q.Set("i", scope)
		searchURL := fmt.Sprintf("https://www.%s/s?%s", domain, q.Encode())

		page, err := s.fetcher.Fetch(ctx, searchURL)
		if err != nil {
			classified := classifyFetchErr(KindAmazon, err)
			if _, ok := classified.(*RateLimitError); ok {
				// Throttled: stop trying scopes and let the controller back off.
				return nil, classified
			}
			lastErr = classified
			continue
		}

		cands, err := s.parseResults(page, v)
		if err != nil {
			lastErr = err
			continue
		}
		if len(cands) > 0 {
			return cands, nil
		}
	}
	return nil, lastErr
}

// parseResults extracts (ASIN, listing title) pairs from a search page.
// Result cards carry a data-asin attribute with the listing title in the
// first heading underneath; product links are a fallback for markup drift.
func (s *AmazonSource) parseResults(page string, v localize.SearchVariant) ([]Candidate, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, &SourceError{Source: KindAmazon, Reason: "malformed response", Err: err}
	}

	seen := make(map[string]bool)
	var cands []Candidate
	add := func(code, rawTitle string) {
		code = asin.Normalize(code)
		if code == "" || seen[code] || !asin.Valid(code) {
			return
		}
		seen[code] = true
		c := Candidate{ASIN: code, Source: KindAmazon, RawTitle: rawTitle}
		if v.Title != "" {
			c.Confidence = matcher.Confidence(v.Title, rawTitle)
		}
		cands = append(cands, c)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if code := attr(n, "data-asin"); code != "" {
				add(code, headingText(n))
			}
			if n.Data == "a" {
				if m := reProductASIN.FindStringSubmatch(attr(n, "href")); m != nil {
					add(m[1], nodeText(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return cands, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// headingText returns the text of the first h2/h3 under n, or the first
// anchor text when no heading exists.
func headingText(n *html.Node) string {
	var heading, anchor string
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if heading != "" {
			return
		}
		if c.Type == html.ElementNode {
			switch c.Data {
			case "h2", "h3":
				heading = nodeText(c)
				return
			case "a":
				if anchor == "" {
					anchor = nodeText(c)
				}
			}
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	if heading != "" {
		return heading
	}
	return anchor
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
