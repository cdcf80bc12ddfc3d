package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/model"
)

// Database property names the exporter writes. The target database must
// declare them with matching types.
const (
	propName           = "Name"
	propStage          = "Stage"
	propSuggestedValue = "Suggested Value"
	propPredictedDays  = "Predicted Days"
	propClosingDate    = "Closing Date"
	propRunID          = "Run"
)

// ExportRun creates one page per prediction in the target database. Pages
// are appended, not upserted; each run is distinguishable by its Run
// property. A page-level failure aborts the export so a partial grid is
// never mistaken for a full one.
func ExportRun(ctx context.Context, c Client, dbID string, run *model.PredictionRun) (int, error) {
	if run == nil || len(run.Predictions) == 0 {
		return 0, eris.New("notion: nothing to export")
	}

	for i, p := range run.Predictions {
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: predictionProperties(run.ID, p),
		}
		if _, err := c.CreatePage(ctx, req); err != nil {
			return i, eris.Wrapf(err, "notion: export prediction %d of %d", i+1, len(run.Predictions))
		}
	}

	zap.L().Info("notion: run exported",
		zap.String("run_id", run.ID),
		zap.Int("pages", len(run.Predictions)),
	)
	return len(run.Predictions), nil
}

func predictionProperties(runID string, p model.Prediction) notionapi.Properties {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("record #%d", p.Index)
	}

	days := float64(p.PredictedDays)
	value := p.SuggestedValue
	closing := notionapi.Date(p.ClosingDate)

	props := notionapi.Properties{
		propName: notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: name}}},
		},
		propSuggestedValue: notionapi.NumberProperty{Number: value},
		propPredictedDays:  notionapi.NumberProperty{Number: days},
		propClosingDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &closing},
		},
		propRunID: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: runID}}},
		},
	}
	if p.Stage != "" {
		props[propStage] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: p.Stage},
		}
	}
	return props
}
