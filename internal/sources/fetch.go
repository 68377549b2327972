// file: internal/sources/fetch.go
// version: 1.0.0
// guid: 5d6e7f80-91a2-b3c4-d5e6-f7a8b9c0d1e2

package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Fetcher retrieves the raw HTML of a search-results page. The production
// implementation is a plain HTTP client; a browser-automation frontend can
// satisfy the same contract for storefronts that gate plain requests.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// StatusError reports a non-200 response so adapters can classify it.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// HTTPFetcher is the default Fetcher. Storefronts reject the Go default
// user agent outright, so a browser UA is sent.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with a sane timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		userAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) " +
			"Gecko/20100101 Firefox/128.0",
	}
}

// Fetch performs a GET and returns the body, or a *StatusError on non-200.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "*")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// classifyFetchErr maps a transport failure onto the source error taxonomy:
// throttling statuses become RateLimitError, timeouts and 5xx are temporary,
// other HTTP statuses are permanent.
func classifyFetchErr(kind Kind, err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusTooManyRequests || se.Code == http.StatusServiceUnavailable:
			return &RateLimitError{Source: kind}
		case se.Code >= 500:
			return &SourceError{Source: kind, Reason: fmt.Sprintf("status %d", se.Code), Temporary: true, Err: err}
		default:
			return &SourceError{Source: kind, Reason: fmt.Sprintf("status %d", se.Code), Temporary: false, Err: err}
		}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &SourceError{Source: kind, Reason: "timeout", Temporary: true, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &SourceError{Source: kind, Reason: "timeout", Temporary: true, Err: err}
	}
	return &SourceError{Source: kind, Reason: "request failed", Temporary: true, Err: err}
}
