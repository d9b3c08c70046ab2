package services

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// LivenessChecker confirms a detail page still resolves.
type LivenessChecker interface {
	Check(ctx context.Context, url string) error
}

// HTTPLiveness probes with HEAD so no body is transferred.
type HTTPLiveness struct {
	client *resty.Client
}

// NewHTTPLiveness wraps a client that already carries the site user agent.
func NewHTTPLiveness(client *resty.Client) *HTTPLiveness {
	return &HTTPLiveness{client: client}
}

func (h *HTTPLiveness) Check(ctx context.Context, url string) error {
	res, err := h.client.R().
		SetContext(ctx).
		Head(url)
	if err != nil {
		return fmt.Errorf("HEAD %s: %w", url, err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("HEAD %s: status %d", url, res.StatusCode())
	}
	return nil
}
