package utils

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// WorkerPool runs submitted jobs on their own goroutines with an optional
// cap on concurrent jobs and an optional start rate.
type WorkerPool struct {
	semaphore chan struct{}
	limiter   *rate.Limiter
	wg        sync.WaitGroup
}

// NewWorkerPool creates a WorkerPool. maxWorkers <= 0 means no cap and
// ratePerSecond <= 0 disables rate limiting.
func NewWorkerPool(maxWorkers int, ratePerSecond float64) *WorkerPool {
	wp := &WorkerPool{}
	if maxWorkers > 0 {
		wp.semaphore = make(chan struct{}, maxWorkers)
	}
	if ratePerSecond > 0 {
		wp.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return wp
}

// Submit enqueues a job for execution in the pool. It blocks while the pool
// is at capacity. The job receives ctx; if ctx ends while waiting on the
// rate limiter the job still runs and is expected to observe ctx itself.
func (wp *WorkerPool) Submit(ctx context.Context, job func(ctx context.Context)) {
	wp.wg.Add(1)
	if wp.semaphore != nil {
		wp.semaphore <- struct{}{}
	}

	go func() {
		defer wp.wg.Done()
		if wp.semaphore != nil {
			defer func() { <-wp.semaphore }()
		}

		if wp.limiter != nil {
			_ = wp.limiter.Wait(ctx)
		}
		job(ctx)
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// URLSet is a thread-safe set for tracking seen URLs.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
