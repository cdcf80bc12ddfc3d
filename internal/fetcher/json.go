package fetcher

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/klug-labs/closing-cli/internal/model"
)

// ReadOpportunities decodes a JSON array of canonical opportunity records.
// This is the shape the HTTP API accepts; keys are the canonical column
// names, dates are RFC 3339.
func ReadOpportunities(r io.Reader) ([]model.Opportunity, error) {
	var records []model.Opportunity
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, eris.Wrap(err, "json: decode records")
	}
	return records, nil
}
