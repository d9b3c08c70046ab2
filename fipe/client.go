// Package fipe is a client for the public FIPE vehicle price service. A
// price is reached through a chain of lookups: brand list, model list for a
// brand, year list for a model, then the priced year-variant.
package fipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"fipe-garimpo/models"
)

var tracer = otel.Tracer("fipe-garimpo/fipe")

// ErrNoMatch is returned when a lookup step finds no matching entry.
var ErrNoMatch = errors.New("fipe: no match")

// DefaultBaseURL is the public, unauthenticated service root.
const DefaultBaseURL = "https://parallelum.com.br/fipe/api/v1"

// Client talks to the reference-price service.
type Client struct {
	http        *resty.Client
	baseURL     string
	vehicleType string
}

// NewClient creates a Client. vehicleType is the path segment selecting the
// vehicle catalogue, "carros" for cars.
func NewClient(http *resty.Client, baseURL, vehicleType string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if vehicleType == "" {
		vehicleType = "carros"
	}
	return &Client{
		http:        http,
		baseURL:     strings.TrimRight(baseURL, "/"),
		vehicleType: vehicleType,
	}
}

func (c *Client) endpoint(segments ...string) string {
	parts := []string{c.baseURL, url.PathEscape(c.vehicleType), "marcas"}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}

func (c *Client) getJSON(ctx context.Context, link string, out any) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(link)
	if err != nil {
		return fmt.Errorf("fipe: GET %s: %w", link, err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("fipe: GET %s: unexpected status %d", link, res.StatusCode())
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("fipe: decode %s: %w", link, err)
	}
	return nil
}

// Brands lists every brand of the vehicle type.
func (c *Client) Brands(ctx context.Context) ([]Entry, error) {
	var out []Entry
	err := c.getJSON(ctx, c.endpoint(), &out)
	return out, err
}

// Models lists the models of a brand.
func (c *Client) Models(ctx context.Context, brand Code) ([]Entry, error) {
	var out modelsResponse
	err := c.getJSON(ctx, c.endpoint(string(brand), "modelos"), &out)
	return out.Models, err
}

// Years lists the year-variants of a model.
func (c *Client) Years(ctx context.Context, brand, model Code) ([]Entry, error) {
	var out []Entry
	err := c.getJSON(ctx, c.endpoint(string(brand), "modelos", string(model), "anos"), &out)
	return out, err
}

// Price fetches the priced year-variant.
func (c *Client) Price(ctx context.Context, brand, model, year Code) (Quote, error) {
	var out Quote
	err := c.getJSON(ctx, c.endpoint(string(brand), "modelos", string(model), "anos", string(year)), &out)
	if err == nil && strings.TrimSpace(out.Value) == "" {
		err = fmt.Errorf("fipe: quote for %s/%s/%s has no value", brand, model, year)
	}
	return out, err
}

// Lookup walks the brand -> model -> year -> price chain for q. Brand and
// model must match by name, ignoring case; the year must appear in the
// year-variant label.
func (c *Client) Lookup(ctx context.Context, q models.ReferencePriceQuery) (Quote, error) {
	ctx, span := tracer.Start(ctx, "Lookup")
	defer span.End()
	span.SetAttributes(
		attribute.String("brand", q.Brand),
		attribute.String("model", q.Model),
		attribute.String("year", q.Year),
	)

	quote, err := c.lookup(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
	}
	return quote, err
}

func (c *Client) lookup(ctx context.Context, q models.ReferencePriceQuery) (Quote, error) {
	if !q.Complete() {
		return Quote{}, fmt.Errorf("%w: incomplete query %+v", ErrNoMatch, q)
	}

	brands, err := c.Brands(ctx)
	if err != nil {
		return Quote{}, err
	}
	brand, ok := matchName(brands, q.Brand)
	if !ok {
		return Quote{}, fmt.Errorf("%w: brand %q%s", ErrNoMatch, q.Brand, closest(brands, q.Brand))
	}

	modelList, err := c.Models(ctx, brand.Code)
	if err != nil {
		return Quote{}, err
	}
	model, ok := matchName(modelList, q.Model)
	if !ok {
		return Quote{}, fmt.Errorf("%w: model %q of %s%s", ErrNoMatch, q.Model, brand.Name, closest(modelList, q.Model))
	}

	years, err := c.Years(ctx, brand.Code, model.Code)
	if err != nil {
		return Quote{}, err
	}
	year, ok := matchYear(years, q.Year)
	if !ok {
		return Quote{}, fmt.Errorf("%w: year %s of %s %s", ErrNoMatch, q.Year, brand.Name, model.Name)
	}

	return c.Price(ctx, brand.Code, model.Code, year.Code)
}

func matchName(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if strings.EqualFold(strings.TrimSpace(e.Name), name) {
			return e, true
		}
	}
	return Entry{}, false
}

func matchYear(entries []Entry, year string) (Entry, bool) {
	for _, e := range entries {
		if strings.Contains(e.Name, year) {
			return e, true
		}
	}
	return Entry{}, false
}

// closest names the most similar entry for diagnostics; it never changes
// which entry matches.
func closest(entries []Entry, name string) string {
	best := ""
	bestScore := 0.85
	for _, e := range entries {
		score := matchr.JaroWinkler(strings.ToLower(e.Name), name, false)
		if score > bestScore {
			best = e.Name
			bestScore = score
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (closest: %q)", best)
}
