// Package store persists the enrichment cache and prediction runs behind a
// driver-agnostic interface (sqlite for local runs, postgres for shared
// deployments).
package store

import (
	"context"

	"github.com/klug-labs/closing-cli/internal/model"
)

// Store is the persistence interface for the prediction pipeline.
//
// The enrichment cache is write-once per identifier: entries are never
// evicted or updated in place. A cached "not found" is a real entry (the
// not-found outcome is terminal per identifier), so GetEnrichment
// distinguishes "no entry" from "cached miss" via the found flag.
type Store interface {
	// GetEnrichment returns the cached registry attributes for a cleaned
	// CNPJ. found is false when no cache entry exists; a nil Enrichment
	// with found=true is a cached not-found.
	GetEnrichment(ctx context.Context, cnpj string) (e *model.Enrichment, found bool, err error)

	// SetEnrichment caches the lookup outcome for a cleaned CNPJ. A nil
	// Enrichment records a terminal not-found.
	SetEnrichment(ctx context.Context, cnpj string, e *model.Enrichment) error

	// Prediction runs, for operator visibility and the serving surface.
	SavePredictionRun(ctx context.Context, run *model.PredictionRun) error
	GetPredictionRun(ctx context.Context, id string) (*model.PredictionRun, error)
	LatestPredictionRun(ctx context.Context) (*model.PredictionRun, error)
	ListPredictionRuns(ctx context.Context, limit int) ([]model.PredictionRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
