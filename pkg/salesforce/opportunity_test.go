package salesforce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns canned query results.
type fakeClient struct {
	soql    string
	records []Opportunity
	err     error
}

func (f *fakeClient) Query(_ context.Context, soql string, out any) error {
	f.soql = soql
	if f.err != nil {
		return f.err
	}
	*(out.(*[]Opportunity)) = f.records
	return nil
}

func fPtr(f float64) *float64 { return &f }

func TestFetchOpenOpportunities(t *testing.T) {
	client := &fakeClient{records: []Opportunity{
		{
			ID:          "006xx0001",
			Name:        "Acme rollout",
			StageName:   "Proposta",
			LeadSource:  "Inbound",
			Amount:      fPtr(15000),
			CloseDate:   "2026-05-01",
			CreatedDate: "2026-02-10T09:30:00.000+0000",
			CNPJ:        "12.345.678/0001-95",
		},
	}}

	records, err := FetchOpenOpportunities(context.Background(), client)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Contains(t, client.soql, "FROM Opportunity")
	assert.Contains(t, client.soql, "IsClosed = false")

	rec := records[0]
	assert.Equal(t, "Acme rollout", *rec.Name)
	assert.Equal(t, "Proposta", *rec.Stage)
	assert.Equal(t, "Inbound", *rec.Origin)
	assert.Equal(t, "12.345.678/0001-95", *rec.CNPJ)
	assert.Equal(t, 15000.0, *rec.SuggestedValue)
	require.NotNil(t, rec.SearchCycleStart)
	assert.Equal(t, time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC).Unix(), rec.SearchCycleStart.Unix())
	require.NotNil(t, rec.HumanForecast)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), *rec.HumanForecast)
	assert.True(t, rec.Open())
}

func TestToRecord_EmptyFieldsStayNil(t *testing.T) {
	rec := Opportunity{}.ToRecord()

	assert.Nil(t, rec.Name)
	assert.Nil(t, rec.Stage)
	assert.Nil(t, rec.Origin)
	assert.Nil(t, rec.CNPJ)
	assert.Nil(t, rec.SuggestedValue)
	assert.Nil(t, rec.SearchCycleStart)
	assert.Nil(t, rec.HumanForecast)
}

func TestToRecord_BadDatesDegradeToNil(t *testing.T) {
	rec := Opportunity{CreatedDate: "not-a-date", CloseDate: "05/2026"}.ToRecord()

	assert.Nil(t, rec.SearchCycleStart)
	assert.Nil(t, rec.HumanForecast)
}
