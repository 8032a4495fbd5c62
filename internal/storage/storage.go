// Package storage persists detected opportunities and execution results.
package storage

import (
	"context"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/execution"
)

// Storage is the sink for trading records.
type Storage interface {
	// StoreOpportunity records an accepted opportunity.
	StoreOpportunity(ctx context.Context, opp *arbitrage.Opportunity) error

	// StoreResult records the final state of a paired execution.
	StoreResult(ctx context.Context, result *execution.Result) error

	// Close closes the storage connection.
	Close() error
}
