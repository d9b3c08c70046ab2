package pipeline

import (
	"context"
	"slices"
	"sync"

	"fipe-garimpo/models"
	"fipe-garimpo/services"
)

// Phase is the lifecycle state of a Run.
type Phase int

const (
	NotStarted Phase = iota
	InProgress
	Completed
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not started"
	case InProgress:
		return "in progress"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Run is one asynchronous build whose listings can be re-filtered at any
// threshold once it completes.
type Run struct {
	pipeline *Pipeline

	mu       sync.Mutex
	phase    Phase
	listings []models.NormalizedListing
	done     chan struct{}
}

func (p *Pipeline) NewRun() *Run {
	return &Run{pipeline: p, done: make(chan struct{})}
}

// Start begins the build in the background. It returns false if the run
// was already started.
func (r *Run) Start(ctx context.Context) bool {
	r.mu.Lock()
	if r.phase != NotStarted {
		r.mu.Unlock()
		return false
	}
	r.phase = InProgress
	r.mu.Unlock()

	go func() {
		listings := r.pipeline.Build(ctx)

		r.mu.Lock()
		r.listings = listings
		r.phase = Completed
		r.mu.Unlock()
		close(r.done)
	}()
	return true
}

func (r *Run) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Wait blocks until the run completes or ctx ends.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results filters the completed listings at threshold without rebuilding.
// ok is false until the run has completed.
func (r *Run) Results(threshold int) (result models.Result, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != Completed {
		return models.Result{Threshold: threshold}, false
	}
	return models.Result{
		Listings:  services.Qualify(r.listings, threshold),
		Threshold: threshold,
	}, true
}

// Listings returns the normalized set of a completed run.
func (r *Run) Listings() []models.NormalizedListing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.listings)
}
