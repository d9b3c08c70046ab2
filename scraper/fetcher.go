package scraper

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// PageFetcher retrieves the raw markup behind a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatusError is returned when the upstream answered with a non-success status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// HTTPFetcher fetches pages with a plain HTTP GET.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher wraps a client built by NewHTTPClient.
func NewHTTPFetcher(client *resty.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if !res.IsSuccess() {
		return nil, &StatusError{URL: url, Code: res.StatusCode()}
	}
	return res.Body(), nil
}
