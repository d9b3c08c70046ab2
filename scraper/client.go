package scraper

import (
	"fmt"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fipe-garimpo/utils"
)

// ClientOptions configures the shared HTTP client.
type ClientOptions struct {
	// UserAgent is sent on every request when non-empty.
	UserAgent string
	// Timeout bounds each individual request.
	Timeout time.Duration
	// CloudflareBypass wraps the transport with browser-like TLS and headers.
	CloudflareBypass bool
	// TracerName names the otel tracer used for request spans.
	TracerName string
	Logger     *utils.Logger
}

// NewHTTPClient builds a resty client with the user agent, timeout and
// request tracing every outbound call of the pipeline relies on.
func NewHTTPClient(opts ClientOptions) *resty.Client {
	client := resty.New()
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Logger != nil {
		client.SetLogger(opts.Logger)
	}

	name := opts.TracerName
	if name == "" {
		name = "fipe-garimpo/http"
	}
	instrument(client, otel.Tracer(name))
	return client
}

func instrument(client *resty.Client, tracer trace.Tracer) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		span := trace.SpanFromContext(res.Request.Context())
		defer span.End()

		span.SetAttributes(
			attribute.String("http.url", res.Request.URL),
			attribute.Int("http.status_code", res.StatusCode()),
		)
		if !res.IsSuccess() {
			span.SetStatus(codes.Error, res.Status())
		}
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		span := trace.SpanFromContext(req.Context())
		defer span.End()

		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		span.SetAttributes(attribute.String("http.url", req.URL))
	})
}
