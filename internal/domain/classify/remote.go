package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/adapter"
)

// RemoteConfig bounds one LLM classification call.
type RemoteConfig struct {
	Model           string
	Timeout         time.Duration
	MaxInputTokens  int
	MaxOutputTokens int
}

// Remote delegates classification to a language model and re-validates
// everything it returns.
type Remote struct {
	ai  adapter.AIServiceAdapter
	cfg RemoteConfig
}

var _ Classifier = (*Remote)(nil)

func NewRemote(ai adapter.AIServiceAdapter, cfg RemoteConfig) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 450
	}
	if cfg.MaxInputTokens <= 0 {
		cfg.MaxInputTokens = 1500
	}
	return &Remote{ai: ai, cfg: cfg}
}

// remoteReply is what the prompt asks the model to emit. Fields are lenient
// because models drift from the schema.
type remoteReply struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	TradeTypes      flexStrings       `json:"trade_types"`
	Trades          flexStrings       `json:"trades"`
	PrimaryTrade    string            `json:"primary_trade"`
	Urgency         string            `json:"urgency"`
	EstimatedBudget model.BudgetInput `json:"estimated_budget"`
	LocationHint    *string           `json:"location_hint"`
	Tags            flexStrings       `json:"tags"`
}

// Classify fails with domain.ErrUpstream on transport errors, empty replies
// and output that stays unparsable after one repair pass. In the last case
// the returned Result still carries Raw for diagnostics.
func (r *Remote) Classify(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	input := r.truncate(ctx, text)
	temp := 0.0
	raw, usage, err := r.ai.ChatWithUsage(ctx, r.cfg.Model, []adapter.Message{
		{Role: "system", Content: SystemPrompt()},
		{Role: "user", Content: input},
	}, adapter.ChatOptions{Temperature: &temp, MaxTokens: r.cfg.MaxOutputTokens, JSONOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUpstream, r.ai.Provider(), err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty model output", domain.ErrUpstream)
	}

	reply, err := decodeLenient[remoteReply](raw)
	if err != nil {
		return &Result{Raw: raw, Source: SourceRemote}, fmt.Errorf("%w: unparsable model output: %v", domain.ErrUpstream, err)
	}

	res := &Result{
		Title:          strings.TrimSpace(reply.Title),
		Description:    strings.TrimSpace(reply.Description),
		BudgetEstimate: reply.EstimatedBudget.Value,
		Keywords:       reply.Tags,
		Source:         SourceRemote,
		Raw:            raw,
		Model:          r.cfg.Model,
		Usage:          usage,
	}
	if res.Description == "" {
		res.Description = text
	}
	if res.Title == "" {
		res.Title = deriveTitle(res.Description)
	} else if utf8.RuneCountInString(res.Title) > maxTitleRunes {
		res.Title = strings.TrimSpace(string([]rune(res.Title)[:maxTitleRunes]))
	}
	if u, ok := model.ParseUrgency(reply.Urgency); ok {
		res.Urgency = u
	}
	if reply.LocationHint != nil {
		if loc := strings.TrimSpace(*reply.LocationHint); loc != "" {
			res.LocationHint = &loc
		}
	}

	suggested := append(append([]string{}, reply.TradeTypes...), reply.Trades...)
	res.TradeTags, res.PrimaryTrade, res.Dropped = model.NormalizeTradeSelection(suggested, reply.PrimaryTrade)
	if res.PrimaryTrade == "" && len(res.TradeTags) > 0 {
		res.PrimaryTrade = res.TradeTags[0]
	}
	res.Confidence = Score(res)
	return res, nil
}

// truncate keeps the user text inside the input token budget. Counting is
// best effort: when the provider cannot count, text is sent as is.
func (r *Remote) truncate(ctx context.Context, text string) string {
	n, err := r.ai.CountTokens(ctx, r.cfg.Model, []adapter.Message{{Role: "user", Content: text}})
	if err != nil || n <= r.cfg.MaxInputTokens || n == 0 {
		return text
	}
	runes := []rune(text)
	keep := len(runes) * r.cfg.MaxInputTokens / n
	if keep <= 0 || keep >= len(runes) {
		return text
	}
	return string(runes[:keep])
}

// SystemPrompt instructs the model to stay inside the taxonomy and emit JSON only.
func SystemPrompt() string {
	var b strings.Builder
	b.WriteString("You convert a customer's description of household or building work into a JSON object.\n")
	b.WriteString("Return ONLY the JSON object, no prose and no code fences, with these keys:\n")
	b.WriteString(`{"title": string (max 60 chars), "description": string, "trade_types": [string], ` +
		`"primary_trade": string, "urgency": "low"|"medium"|"high", "estimated_budget": number|null, ` +
		`"location_hint": string|null, "tags": [string]}` + "\n")
	b.WriteString("trade_types and primary_trade must be chosen from this list and nothing else: ")
	tags := model.TradeStrings(model.ListTrades())
	b.WriteString(strings.Join(tags, ", "))
	b.WriteString(".\nUse null for anything the text does not state.")
	return b.String()
}

// flexStrings decodes either a JSON array of strings or a single
// comma-separated string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var arr []any
	if err := json.Unmarshal(data, &arr); err == nil {
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		var out []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*f = out
		return nil
	}
	*f = nil
	return nil
}
