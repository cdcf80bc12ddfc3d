// Package assistant answers operator questions about a prediction run in
// natural language, grounded on the run's actual numbers.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/klug-labs/closing-cli/internal/model"
	"github.com/klug-labs/closing-cli/pkg/anthropic"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1024

	// maxPromptRows caps how many predictions go into the prompt so a big
	// batch does not blow the context window.
	maxPromptRows = 200
)

const systemPreamble = `You are a sales operations analyst. You are given the ` +
	`output of a closing-time prediction run over a sales pipeline: per-deal ` +
	`predicted closing dates and a monthly revenue projection. Answer the ` +
	`user's question using only this data. Be concise, cite deal names and ` +
	`months when relevant, and say so plainly when the data cannot answer ` +
	`the question. Currency values are BRL.`

// Assistant wraps the model client with prompt construction.
type Assistant struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithModel overrides the default model.
func WithModel(m string) Option {
	return func(a *Assistant) {
		if m != "" {
			a.model = m
		}
	}
}

// New creates an Assistant.
func New(client anthropic.Client, opts ...Option) *Assistant {
	a := &Assistant{client: client, model: defaultModel, maxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer responds to one question about a prediction run.
func (a *Assistant) Answer(ctx context.Context, question string, run *model.PredictionRun, projection []model.ProjectionPoint) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", eris.New("assistant: empty question")
	}
	if run == nil {
		return "", eris.New("assistant: no prediction run to answer about")
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPreamble + "\n\n" + renderRun(run, projection),
		Messages:  []anthropic.Message{{Role: "user", Content: question}},
	})
	if err != nil {
		return "", eris.Wrap(err, "assistant: answer")
	}
	resp.Usage.LogCost(a.model, "assistant")

	if resp.Text == "" {
		return "", eris.New("assistant: model returned no text")
	}
	return resp.Text, nil
}

// renderRun flattens the run into a compact plain-text table the model can
// read reliably.
func renderRun(run *model.PredictionRun, projection []model.ProjectionPoint) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Prediction run %s (%s): %d records in, %d excluded, %d predictions.\n\n",
		run.ID, run.CreatedAt.Format("2006-01-02"), run.Total, run.Excluded, len(run.Predictions))

	b.WriteString("Predictions (name | stage | suggested value | days to close | closing date):\n")
	rows := run.Predictions
	truncated := 0
	if len(rows) > maxPromptRows {
		truncated = len(rows) - maxPromptRows
		rows = rows[:maxPromptRows]
	}
	for _, p := range rows {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("record #%d", p.Index)
		}
		fmt.Fprintf(&b, "- %s | %s | %.2f | %d | %s\n",
			name, p.Stage, p.SuggestedValue, p.PredictedDays, p.ClosingDate.Format("2006-01-02"))
	}
	if truncated > 0 {
		fmt.Fprintf(&b, "(and %d more predictions omitted)\n", truncated)
	}

	if len(projection) > 0 {
		b.WriteString("\nMonthly revenue projection (month | projected suggested value):\n")
		for _, pt := range projection {
			fmt.Fprintf(&b, "- %s | %.2f\n", pt.Month, pt.SuggestedValue)
		}
	}
	return b.String()
}
