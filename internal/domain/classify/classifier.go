// Package classify turns free-text job descriptions into structured,
// trade-tagged job fields.
package classify

import (
	"context"

	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/adapter"
)

const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Classifier is satisfied by the keyword rules, the LLM-backed strategy and
// any caching decorator around them.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}

// Result is the output contract shared by every strategy.
type Result struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	TradeTags      []model.TradeTag `json:"trade_tags"`
	PrimaryTrade   model.TradeTag   `json:"primary_trade,omitempty"`
	Urgency        model.Urgency    `json:"urgency,omitempty"`
	BudgetEstimate *float64         `json:"budget_estimate"`
	LocationHint   *string          `json:"location_hint"`
	Keywords       []string         `json:"keywords,omitempty"`
	Reasoning      string           `json:"reasoning,omitempty"`
	Confidence     float64          `json:"confidence"`
	Source         string           `json:"source"`

	// Raw is the untouched model reply (remote only).
	Raw string `json:"-"`
	// Dropped holds model-suggested trades that are not in the taxonomy.
	Dropped []string `json:"-"`
	Model   string        `json:"-"`
	Usage   adapter.Usage `json:"-"`
	// Cached marks a result replayed from cache; no model call was made.
	Cached bool `json:"-"`
}

// JobInput maps a result onto job creation fields.
func (r *Result) JobInput(originalText string) model.JobInput {
	in := model.JobInput{
		Title:           r.Title,
		Description:     r.Description,
		OriginalText:    originalText,
		SuggestedTrades: model.TradeStrings(r.TradeTags),
		PrimaryTrade:    string(r.PrimaryTrade),
		Budget:          r.BudgetEstimate,
		Urgency:         string(r.Urgency),
		AIGenerated:     r.Source == SourceRemote,
		AISummary:       r.Description,
	}
	if r.LocationHint != nil {
		in.Location = *r.LocationHint
	}
	return in
}
