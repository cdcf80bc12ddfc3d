// Package dataset turns normalized opportunity records into the fixed-width
// numeric matrix and label vector the estimator consumes. The feature
// contract (column set and order) is identical at training and inference.
package dataset

import (
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/model"
)

// TargetStats counts records dropped while extracting labels.
type TargetStats struct {
	Closed       int // records with a sale date
	MissingStart int // closed but no parseable search-cycle start
	Negative     int // sale date earlier than cycle start
	Kept         int
}

// ExtractTarget filters to closed records (non-null sale date) and computes
// the closing-duration label in whole days. Records with a missing cycle
// start or an inverted interval are dropped and counted.
//
// Zero-day labels are kept: a same-day close is a real historical outcome,
// not an invalid interval.
func ExtractTarget(records []model.Opportunity) ([]model.Opportunity, []float64, TargetStats) {
	var stats TargetStats
	kept := make([]model.Opportunity, 0, len(records))
	labels := make([]float64, 0, len(records))

	for _, o := range records {
		if o.SaleDate == nil {
			continue
		}
		stats.Closed++

		if o.SearchCycleStart == nil {
			stats.MissingStart++
			continue
		}

		days := int(o.SaleDate.Sub(*o.SearchCycleStart).Hours() / 24)
		if days < 0 {
			stats.Negative++
			continue
		}

		kept = append(kept, o)
		labels = append(labels, float64(days))
		stats.Kept++
	}

	if stats.MissingStart > 0 || stats.Negative > 0 {
		zap.L().Warn("dataset: dropped closed records while extracting labels",
			zap.Int("closed", stats.Closed),
			zap.Int("missing_start", stats.MissingStart),
			zap.Int("negative_interval", stats.Negative),
			zap.Int("kept", stats.Kept),
		)
	}

	return kept, labels, stats
}
