// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/cecompare/cecompare/schema"
)

// DatasetSource yields the raw dataset one engine produced for a date.
// This allows the comparison to run against HTTP endpoints, files or fakes.
type DatasetSource interface {
	// Fetch returns the dataset of the given engine for the given date (YYYY-MM-DD).
	Fetch(ctx context.Context, side schema.Side, date string) (schema.Dataset, error)
}

// OutcomeSink receives every date outcome of a run, compared or skipped.
type OutcomeSink interface {
	Consume(ctx context.Context, tenant string, outcome schema.DateOutcome) error
}

// OutcomeSinkFunc adapts a plain function to OutcomeSink.
type OutcomeSinkFunc func(ctx context.Context, tenant string, outcome schema.DateOutcome) error

// Consume calls f.
func (f OutcomeSinkFunc) Consume(ctx context.Context, tenant string, outcome schema.DateOutcome) error {
	return f(ctx, tenant, outcome)
}

// ArchiveStore defines the interface for persisting outcomes for trend tracking.
type ArchiveStore interface {
	// RecordOutcome stores one date outcome and returns the run ID.
	RecordOutcome(ctx context.Context, tenant string, outcome schema.DateOutcome) (int64, error)

	// GetStatus returns status information about the archive.
	GetStatus(ctx context.Context) (schema.ArchiveStatus, error)

	// GetAllRuns returns all archived runs ordered by run ID.
	GetAllRuns(ctx context.Context) ([]schema.RunRecord, error)

	// GetAllEndpointDeltas returns all archived endpoint deltas ordered by run ID and endpoint.
	GetAllEndpointDeltas(ctx context.Context) ([]schema.EndpointDeltaRecord, error)

	// Close releases the underlying database handle.
	Close() error
}
