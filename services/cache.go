package services

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"fipe-garimpo/models"
)

// CachedResolver remembers resolved reference prices per detail URL for a
// bounded time. Failures are not cached.
type CachedResolver struct {
	next  ReferencePriceResolver
	cache *expirable.LRU[string, int]
}

func NewCachedResolver(next ReferencePriceResolver, size int, ttl time.Duration) *CachedResolver {
	if size <= 0 {
		size = 1024
	}
	return &CachedResolver{
		next:  next,
		cache: expirable.NewLRU[string, int](size, nil, ttl),
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, cand models.ListingCandidate) (int, error) {
	if price, hit := c.cache.Get(cand.DetailURL); hit {
		return price, nil
	}
	price, err := c.next.Resolve(ctx, cand)
	if err != nil {
		return 0, err
	}
	c.cache.Add(cand.DetailURL, price)
	return price, nil
}
