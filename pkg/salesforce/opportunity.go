package salesforce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/model"
)

// Opportunity mirrors the CRM object. CNPJ lives on a custom field; the
// standard fields map onto the spreadsheet schema.
type Opportunity struct {
	ID          string   `json:"Id"`
	Name        string   `json:"Name"`
	StageName   string   `json:"StageName"`
	LeadSource  string   `json:"LeadSource"`
	Amount      *float64 `json:"Amount"`
	CloseDate   string   `json:"CloseDate"`   // date, set by the rep as the expected close
	CreatedDate string   `json:"CreatedDate"` // datetime
	IsClosed    bool     `json:"IsClosed"`
	CNPJ        string   `json:"CNPJ__c"`
}

var opportunityFields = []string{
	"Id", "Name", "StageName", "LeadSource", "Amount",
	"CloseDate", "CreatedDate", "IsClosed", "CNPJ__c",
}

// FetchOpenOpportunities queries the CRM for the open pipeline and converts
// it to the canonical record shape.
func FetchOpenOpportunities(ctx context.Context, c Client) ([]model.Opportunity, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Opportunity WHERE IsClosed = false ORDER BY CreatedDate",
		strings.Join(opportunityFields, ", "),
	)

	var raw []Opportunity
	if err := c.Query(ctx, soql, &raw); err != nil {
		return nil, eris.Wrap(err, "sf: fetch open opportunities")
	}

	records := make([]model.Opportunity, 0, len(raw))
	for _, o := range raw {
		records = append(records, o.ToRecord())
	}
	zap.L().Info("sf: fetched open pipeline", zap.Int("records", len(records)))
	return records, nil
}

// ToRecord maps a CRM opportunity onto the canonical record. Unparseable
// dates degrade to nil the same way bad spreadsheet cells do.
func (o Opportunity) ToRecord() model.Opportunity {
	rec := model.Opportunity{}
	if o.Name != "" {
		rec.Name = &o.Name
	}
	if o.StageName != "" {
		rec.Stage = &o.StageName
	}
	if o.LeadSource != "" {
		rec.Origin = &o.LeadSource
	}
	if o.CNPJ != "" {
		rec.CNPJ = &o.CNPJ
	}
	rec.SuggestedValue = o.Amount

	if t, ok := parseSFDatetime(o.CreatedDate); ok {
		rec.SearchCycleStart = &t
	}
	if t, ok := parseSFDate(o.CloseDate); ok {
		rec.HumanForecast = &t
	}
	return rec
}

// Salesforce datetimes come back as "2006-01-02T15:04:05.000+0000".
func parseSFDatetime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	zap.L().Warn("sf: unparseable datetime", zap.String("value", s))
	return time.Time{}, false
}

func parseSFDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		zap.L().Warn("sf: unparseable date", zap.String("value", s))
		return time.Time{}, false
	}
	return t, true
}
