package domain

import (
	"context"
	"errors"
)

var ErrInvalidAffiliate = errors.New("invalid_affiliate")

// Metrics is the read-side projection served to the affiliate dashboard.
// The JSON keys are the contract the storefront UI consumes.
type Metrics struct {
	Cliques       int64   `json:"cliques"`
	Conversoes    int64   `json:"conversoes"`
	TotalVendas   int64   `json:"totalVendas"`
	TotalGanhos   int64   `json:"totalGanhos"`
	TaxaConversao float64 `json:"taxaConversao"`
}

type Service interface {
	// Project reads the incrementally maintained counters.
	Project(ctx context.Context, affiliateID string) (*Metrics, error)

	// Recompute rebuilds the same numbers from the full event log. The
	// two must always agree; divergence means a broken write path.
	Recompute(ctx context.Context, affiliateID string) (*Metrics, error)
}
