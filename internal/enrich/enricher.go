// Package enrich joins company-registry attributes onto opportunity records
// by CNPJ, with a persistent cache and polite pacing toward the public API.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/klug-labs/closing-cli/internal/model"
	"github.com/klug-labs/closing-cli/internal/store"
	"github.com/klug-labs/closing-cli/pkg/brasilapi"
)

// Stats summarizes one enrichment run.
type Stats struct {
	Records     int // records in the batch
	Distinct    int // distinct valid identifiers needing a lookup
	Invalid     int // records whose CNPJ failed cleaning
	Skipped     int // records already carrying registry attributes
	CacheHits   int // identifiers served from the cache
	LookedUp    int // identifiers fetched from the API
	NotFound    int // identifiers the registry does not know
	RateLimited int // identifiers that hit the rate limit even after backing off
	Failed      int // identifiers that failed with a transport error
}

// Enricher populates registry attributes on opportunity records.
type Enricher struct {
	store   store.Store
	client  brasilapi.Client
	limiter *rate.Limiter
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithDelay sets the pause between consecutive API requests.
func WithDelay(d time.Duration) Option {
	return func(e *Enricher) { e.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithBackoff sets how long to wait before the single retry after a
// rate-limit response.
func WithBackoff(d time.Duration) Option {
	return func(e *Enricher) { e.backoff = d }
}

// New creates an Enricher with the default 3s request spacing and 60s
// rate-limit backoff.
func New(st store.Store, client brasilapi.Client, opts ...Option) *Enricher {
	e := &Enricher{
		store:   st,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
		backoff: 60 * time.Second,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CleanCNPJ strips everything but digits and validates the length. The
// registry keys companies by exactly 14 digits; anything else is
// unidentifiable and returns ok=false.
func CleanCNPJ(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if len(cleaned) != 14 {
		return "", false
	}
	return cleaned, true
}

// Run enriches records in place and returns run statistics. Each distinct
// valid identifier is looked up at most once; records sharing a CNPJ share
// the result. Individual lookup failures degrade to null attributes and
// never abort the batch.
func Run(ctx context.Context, e *Enricher, records []model.Opportunity) (Stats, error) {
	stats := Stats{Records: len(records)}

	// Collect distinct identifiers that actually need a lookup.
	need := make(map[string][]int) // cleaned cnpj -> record indexes
	var order []string
	for i := range records {
		if records[i].Enrichment.Populated() {
			stats.Skipped++
			continue
		}
		if records[i].CNPJ == nil {
			stats.Invalid++
			continue
		}
		cleaned, ok := CleanCNPJ(*records[i].CNPJ)
		if !ok {
			stats.Invalid++
			zap.L().Debug("enrich: unusable cnpj", zap.String("raw", *records[i].CNPJ))
			continue
		}
		if _, seen := need[cleaned]; !seen {
			order = append(order, cleaned)
		}
		need[cleaned] = append(need[cleaned], i)
	}
	stats.Distinct = len(order)

	results := make(map[string]*model.Enrichment, len(order))
	for _, cnpj := range order {
		if err := ctx.Err(); err != nil {
			return stats, eris.Wrap(err, "enrich: canceled")
		}

		cached, found, err := e.store.GetEnrichment(ctx, cnpj)
		if err != nil {
			return stats, eris.Wrap(err, "enrich: read cache")
		}
		if found {
			stats.CacheHits++
			results[cnpj] = cached
			continue
		}

		enrichment, cacheable, err := e.lookup(ctx, cnpj, &stats)
		if err != nil {
			// Transport-level failure: leave this identifier null and
			// uncached so a later run can try again.
			stats.Failed++
			zap.L().Warn("enrich: lookup failed",
				zap.String("cnpj", cnpj), zap.Error(err))
			continue
		}
		if !cacheable {
			continue
		}
		// Cache the outcome, including terminal not-founds (nil).
		if err := e.store.SetEnrichment(ctx, cnpj, enrichment); err != nil {
			return stats, eris.Wrap(err, "enrich: write cache")
		}
		results[cnpj] = enrichment
	}

	for cnpj, indexes := range need {
		enrichment, ok := results[cnpj]
		if !ok || enrichment == nil {
			continue
		}
		for _, i := range indexes {
			records[i].Enrichment.Merge(*enrichment)
		}
	}

	zap.L().Info("enrich: run complete",
		zap.Int("records", stats.Records),
		zap.Int("distinct", stats.Distinct),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Int("looked_up", stats.LookedUp),
		zap.Int("not_found", stats.NotFound),
		zap.Int("invalid", stats.Invalid),
		zap.Int("failed", stats.Failed+stats.RateLimited),
	)
	return stats, nil
}

// lookup fetches one identifier with request spacing and a single backoff
// retry on rate limiting. cacheable reports whether the outcome is final
// for this identifier; a nil result that is cacheable is a terminal
// not-found.
func (e *Enricher) lookup(ctx context.Context, cnpj string, stats *Stats) (enrichment *model.Enrichment, cacheable bool, err error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, false, eris.Wrap(err, "enrich: wait")
	}
	stats.LookedUp++

	enrichment, err = e.client.Lookup(ctx, cnpj)
	if eris.Is(err, brasilapi.ErrRateLimited) {
		zap.L().Warn("enrich: rate limited, backing off",
			zap.String("cnpj", cnpj), zap.Duration("backoff", e.backoff))
		if err := e.sleep(ctx, e.backoff); err != nil {
			return nil, false, eris.Wrap(err, "enrich: backoff")
		}
		enrichment, err = e.client.Lookup(ctx, cnpj)
		if eris.Is(err, brasilapi.ErrRateLimited) {
			// Still throttled after the one retry; give up on this
			// identifier without caching so a later run can fetch it.
			stats.RateLimited++
			zap.L().Warn("enrich: still rate limited, skipping",
				zap.String("cnpj", cnpj))
			return nil, false, nil
		}
	}
	if eris.Is(err, brasilapi.ErrNotFound) {
		stats.NotFound++
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return enrichment, true, nil
}
