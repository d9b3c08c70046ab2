package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"

	"fipe-garimpo/fipe"
	"fipe-garimpo/fipe/fipetest"
	"fipe-garimpo/models"
	"fipe-garimpo/utils"
)

type fakeLiveness struct {
	mu   sync.Mutex
	dead map[string]bool
	hits []string
}

func (f *fakeLiveness) Check(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits = append(f.hits, url)
	if f.dead[url] {
		return errors.New("status 404")
	}
	return nil
}

type fakeResolver struct {
	calls  atomic.Int64
	prices map[string]int
}

func (f *fakeResolver) Resolve(_ context.Context, cand models.ListingCandidate) (int, error) {
	f.calls.Add(1)
	p, ok := f.prices[cand.DetailURL]
	if !ok {
		return 0, fipe.ErrNoMatch
	}
	return p, nil
}

type blockingResolver struct{}

func (blockingResolver) Resolve(ctx context.Context, _ models.ListingCandidate) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func candidate(title, price, url string) models.ListingCandidate {
	return models.ListingCandidate{Title: title, RawPriceText: price, DetailURL: url, ImageURL: url + ".jpg"}
}

func TestEnrichAllDropsDeadLinks(t *testing.T) {
	live := &fakeLiveness{dead: map[string]bool{"https://olx/dead": true}}
	res := &fakeResolver{prices: map[string]int{
		"https://olx/alive": 30000,
		"https://olx/dead":  30000,
	}}
	e := NewEnricher(EnricherOptions{Liveness: live, Resolver: res, Region: "PR", Logger: newTestLogger()})

	got := e.EnrichAll(context.Background(), []models.ListingCandidate{
		candidate("Fiat Uno 2012", "R$ 20.000", "https://olx/alive"),
		candidate("Fiat Uno 2010", "R$ 15.000", "https://olx/dead"),
	})

	require.Len(t, got, 1)
	require.Equal(t, "https://olx/alive", got[0].DetailURL)
	require.Equal(t, 20000, got[0].ListPrice)
	require.Equal(t, 30000, *got[0].ReferencePrice)
	require.Equal(t, "PR", got[0].Region)
	require.EqualValues(t, 1, res.calls.Load(), "dead listing must not reach the resolver")
}

func TestEnrichLivenessGating(t *testing.T) {
	cands := []models.ListingCandidate{
		candidate("A a 2001", "R$ 1.000", "https://olx/1"),
		candidate("B b 2002", "R$ 2.000", "https://olx/2"),
		candidate("C c 2003", "R$ 3.000", "https://olx/3"),
	}
	prices := map[string]int{}
	for _, c := range cands {
		prices[c.DetailURL] = 99000
	}

	for _, dead := range cands {
		live := &fakeLiveness{dead: map[string]bool{dead.DetailURL: true}}
		e := NewEnricher(EnricherOptions{Liveness: live, Resolver: &fakeResolver{prices: prices}})
		for _, l := range e.EnrichAll(context.Background(), cands) {
			require.NotEqual(t, dead.DetailURL, l.DetailURL)
		}
	}
}

func TestEnrichRejectionWrapsSentinel(t *testing.T) {
	e := NewEnricher(EnricherOptions{
		Liveness: &fakeLiveness{dead: map[string]bool{"https://olx/1": true}},
		Resolver: &fakeResolver{},
	})

	_, err := e.Enrich(context.Background(), candidate("Fiat Uno 2012", "R$ 1.000", "https://olx/1"))
	require.ErrorIs(t, err, models.ErrEnrichmentRejected)
	require.ErrorContains(t, err, "liveness")

	_, err = e.Enrich(context.Background(), candidate("Fiat Uno 2012", "N/D", "https://olx/2"))
	require.ErrorIs(t, err, models.ErrEnrichmentRejected)
	require.ErrorIs(t, err, models.ErrPriceParse)

	_, err = e.Enrich(context.Background(), candidate("Fiat Uno 2012", "R$ 1.000", "https://olx/3"))
	require.ErrorIs(t, err, models.ErrEnrichmentRejected)
	require.ErrorIs(t, err, fipe.ErrNoMatch)
}

func TestEnrichUnparseablePriceSkipsNetwork(t *testing.T) {
	live := &fakeLiveness{}
	res := &fakeResolver{}
	e := NewEnricher(EnricherOptions{Liveness: live, Resolver: res})

	got := e.EnrichAll(context.Background(), []models.ListingCandidate{
		candidate("Fiat Uno 2012", "N/D", "https://olx/1"),
	})

	require.Empty(t, got)
	require.Empty(t, live.hits)
	require.Zero(t, res.calls.Load())
}

func TestEnrichTimeoutRejects(t *testing.T) {
	e := NewEnricher(EnricherOptions{Resolver: blockingResolver{}, Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := e.Enrich(context.Background(), candidate("Fiat Uno 2012", "R$ 1.000", "https://olx/1"))

	require.ErrorIs(t, err, models.ErrEnrichmentRejected)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestEnrichAllKeepsInputOrderAndDedupes(t *testing.T) {
	prices := map[string]int{}
	var cands []models.ListingCandidate
	for _, u := range []string{"https://olx/3", "https://olx/1", "https://olx/2"} {
		prices[u] = 50000
		cands = append(cands, candidate("Fiat Uno 2012", "R$ 10.000", u))
	}
	cands = append(cands, candidate("Fiat Uno 2012", "R$ 10.000", "https://olx/1"))

	var logs bytes.Buffer
	res := &fakeResolver{prices: prices}
	e := NewEnricher(EnricherOptions{
		Resolver:       res,
		MaxConcurrency: 2,
		Logger:         utils.NewLoggerTo(&logs, &logs, utils.LevelInfo),
	})
	got := e.EnrichAll(context.Background(), cands)

	require.Len(t, got, 3)
	require.Equal(t, "https://olx/3", got[0].DetailURL)
	require.Equal(t, "https://olx/1", got[1].DetailURL)
	require.Equal(t, "https://olx/2", got[2].DetailURL)
	require.EqualValues(t, 3, res.calls.Load())
	require.Contains(t, logs.String(), "Enriched 3 of 4 candidates (3 unique)")
}

func TestEnrichAllBrandMissContinuesBatch(t *testing.T) {
	srv := fipetest.NewServer([]fipetest.Brand{
		{Name: "Fiat", Code: "21", Models: []fipetest.Model{
			{Name: "Uno", Code: 100, Years: []fipetest.Variant{
				{Name: "2012 Gasolina", Code: "2012-1", Value: "R$ 25.000,00"},
			}},
		}},
	})
	defer srv.Close()

	client := fipe.NewClient(resty.New().SetTimeout(time.Second), srv.URL, "carros")
	e := NewEnricher(EnricherOptions{Resolver: NewAPIResolver(client), Logger: newTestLogger()})

	got := e.EnrichAll(context.Background(), []models.ListingCandidate{
		candidate("Tesla Model3 2012", "R$ 10.000", "https://olx/tesla"),
		candidate("Fiat Uno 2012", "R$ 18.000", "https://olx/uno"),
	})

	require.Len(t, got, 1)
	require.Equal(t, "https://olx/uno", got[0].DetailURL)
	require.Equal(t, 25000, *got[0].ReferencePrice)
}

func TestHTTPLiveness(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	l := NewHTTPLiveness(resty.New().SetTimeout(time.Second))
	require.NoError(t, l.Check(context.Background(), srv.URL+"/ok"))
	require.Error(t, l.Check(context.Background(), srv.URL+"/gone"))
	require.Error(t, l.Check(context.Background(), "http://127.0.0.1:1/unreachable"))
}
