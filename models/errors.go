package models

import "errors"

var (
	// ErrSourceUnavailable marks a failed or non-success listing index fetch.
	ErrSourceUnavailable = errors.New("listing source unavailable")
	// ErrCandidateIncomplete marks a markup node missing a required field.
	ErrCandidateIncomplete = errors.New("candidate incomplete")
	// ErrEnrichmentRejected marks a candidate dropped during enrichment.
	ErrEnrichmentRejected = errors.New("enrichment rejected")
	// ErrPriceParse marks price text that does not reduce to a non-negative integer.
	ErrPriceParse = errors.New("price does not parse")
)
