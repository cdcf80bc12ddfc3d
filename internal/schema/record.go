package schema

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/model"
)

// BuildStats counts record-level degradations during table conversion.
// These are logged, never fatal: a bad cell leaves the field nil.
type BuildStats struct {
	Rows            int
	BadDates        int
	BadNumbers      int
	EmptyRowsSkipped int
}

// RequireColumns verifies that every named canonical column is present in
// the (normalized) header. Used on the training path, where a missing
// required column is a batch-level input error.
func RequireColumns(headers []string, required ...string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("schema: missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// BuildRecords converts normalized header + raw rows into typed opportunity
// records. Unparseable dates and numbers become nil fields and are counted;
// fully empty rows are skipped.
func BuildRecords(headers []string, rows [][]string) ([]model.Opportunity, BuildStats) {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}

	cell := func(row []string, col string) (string, bool) {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		return v, v != ""
	}

	var stats BuildStats
	records := make([]model.Opportunity, 0, len(rows))

	for _, row := range rows {
		if rowEmpty(row) {
			stats.EmptyRowsSkipped++
			continue
		}
		stats.Rows++

		var o model.Opportunity
		setString := func(dst **string, col string) {
			if v, ok := cell(row, col); ok {
				*dst = &v
			}
		}
		setDate := func(dst **time.Time, col string) {
			v, ok := cell(row, col)
			if !ok {
				return
			}
			if t, ok := ParseDate(v); ok {
				*dst = &t
			} else {
				stats.BadDates++
			}
		}
		setNumber := func(dst **float64, col string) {
			v, ok := cell(row, col)
			if !ok {
				return
			}
			if f, ok := ParseNumber(v); ok {
				*dst = &f
			} else {
				stats.BadNumbers++
			}
		}

		setString(&o.Name, model.ColName)
		setString(&o.Origin, model.ColOrigin)
		setString(&o.Stage, model.ColStage)
		setString(&o.ESN, model.ColESN)
		setString(&o.GSN, model.ColGSN)
		setString(&o.ActivityType, model.ColActivityType)
		setString(&o.Product, model.ColProduct)
		setString(&o.SuggestedProduct, model.ColSuggestedProduct)
		setNumber(&o.SuggestedValue, model.ColSuggestedValue)
		setNumber(&o.SoldValue, model.ColSoldValue)
		setDate(&o.SearchCycleStart, model.ColSearchCycleDate)
		setDate(&o.SaleDate, model.ColSaleDate)
		setString(&o.CNPJ, model.ColCNPJ)
		setDate(&o.HumanForecast, model.ColHumanForecast)

		if v, ok := cell(row, model.ColHumanFeeling); ok {
			if f, ok := ParsePercent(v); ok {
				o.HumanFeeling = &f
			} else {
				stats.BadNumbers++
			}
		}

		// Pre-populated registry columns survive round trips through the
		// enriched CSV, so re-runs skip the external lookup.
		setString(&o.Enrichment.CNAE, model.ColCNAE)
		setString(&o.Enrichment.CompanySize, model.ColCompanySize)
		setString(&o.Enrichment.LegalNature, model.ColLegalNature)
		setString(&o.Enrichment.ActivityStart, model.ColActivityStart)
		setString(&o.Enrichment.RegistrationStatus, model.ColRegistrationStatus)
		setString(&o.Enrichment.State, model.ColState)
		setString(&o.Enrichment.Municipality, model.ColMunicipality)

		records = append(records, o)
	}

	if stats.BadDates > 0 || stats.BadNumbers > 0 || stats.EmptyRowsSkipped > 0 {
		zap.L().Warn("schema: degraded cells during record build",
			zap.Int("rows", stats.Rows),
			zap.Int("bad_dates", stats.BadDates),
			zap.Int("bad_numbers", stats.BadNumbers),
			zap.Int("empty_rows_skipped", stats.EmptyRowsSkipped),
		)
	}

	return records, stats
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
