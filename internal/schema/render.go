package schema

import (
	"strconv"
	"time"

	"github.com/klug-labs/closing-cli/internal/model"
)

// renderColumns is the canonical column order of the enriched CSV: the CRM
// columns followed by the registry columns.
var renderColumns = []string{
	model.ColName,
	model.ColOrigin,
	model.ColStage,
	model.ColESN,
	model.ColGSN,
	model.ColActivityType,
	model.ColProduct,
	model.ColSuggestedProduct,
	model.ColSuggestedValue,
	model.ColSoldValue,
	model.ColSearchCycleDate,
	model.ColSaleDate,
	model.ColCNPJ,
	model.ColHumanForecast,
	model.ColHumanFeeling,
	model.ColCNAE,
	model.ColCompanySize,
	model.ColLegalNature,
	model.ColActivityStart,
	model.ColRegistrationStatus,
	model.ColState,
	model.ColMunicipality,
}

// RenderRecords converts typed records back into a normalized table, the
// inverse of BuildRecords. Dates render as ISO so a re-read parses them
// losslessly; nil fields render empty.
func RenderRecords(records []model.Opportunity) (headers []string, rows [][]string) {
	headers = append(headers, renderColumns...)

	rows = make([][]string, len(records))
	for i, o := range records {
		row := make([]string, len(renderColumns))
		for j, col := range renderColumns {
			row[j] = renderCell(o, col)
		}
		rows[i] = row
	}
	return headers, rows
}

func renderCell(o model.Opportunity, col string) string {
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	num := func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	date := func(p *time.Time) string {
		if p == nil {
			return ""
		}
		return p.Format("2006-01-02")
	}

	switch col {
	case model.ColName:
		return str(o.Name)
	case model.ColOrigin:
		return str(o.Origin)
	case model.ColStage:
		return str(o.Stage)
	case model.ColESN:
		return str(o.ESN)
	case model.ColGSN:
		return str(o.GSN)
	case model.ColActivityType:
		return str(o.ActivityType)
	case model.ColProduct:
		return str(o.Product)
	case model.ColSuggestedProduct:
		return str(o.SuggestedProduct)
	case model.ColSuggestedValue:
		return num(o.SuggestedValue)
	case model.ColSoldValue:
		return num(o.SoldValue)
	case model.ColSearchCycleDate:
		return date(o.SearchCycleStart)
	case model.ColSaleDate:
		return date(o.SaleDate)
	case model.ColCNPJ:
		return str(o.CNPJ)
	case model.ColHumanForecast:
		return date(o.HumanForecast)
	case model.ColHumanFeeling:
		return num(o.HumanFeeling)
	case model.ColCNAE:
		return str(o.Enrichment.CNAE)
	case model.ColCompanySize:
		return str(o.Enrichment.CompanySize)
	case model.ColLegalNature:
		return str(o.Enrichment.LegalNature)
	case model.ColActivityStart:
		return str(o.Enrichment.ActivityStart)
	case model.ColRegistrationStatus:
		return str(o.Enrichment.RegistrationStatus)
	case model.ColState:
		return str(o.Enrichment.State)
	case model.ColMunicipality:
		return str(o.Enrichment.Municipality)
	}
	return ""
}
