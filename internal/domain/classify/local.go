package classify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
)

const (
	maxTitleRunes     = 60
	defaultConfidence = 0.3
)

type rule struct {
	trade model.TradeTag
	words []string
}

// rules is the keyword table. Single words match a token exactly or, when at
// least four letters long, as a token prefix ("leak" matches "leaking").
// Multi-word entries match as phrases.
var rules = []rule{
	{model.TradePlumbing, []string{"tap", "taps", "leak", "pipe", "water", "sink", "toilet", "drain", "drip", "shower", "plumb"}},
	{model.TradeElectrical, []string{"electric", "socket", "plug", "light", "switch", "wire", "wiring", "fuse", "circuit"}},
	{model.TradeCarpentry, []string{"wood", "door", "cabinet", "shelf", "shelves", "deck", "skirting", "wardrobe", "joinery"}},
	{model.TradePaintingDecorating, []string{"paint", "decor", "wallpaper", "wall colour", "wall color"}},
	{model.TradeRoofing, []string{"roof", "gutter", "slate", "chimney"}},
	{model.TradeTiling, []string{"tile", "tiling", "grout", "bathroom floor", "kitchen floor"}},
	{model.TradePlastering, []string{"plaster", "ceiling", "render", "skim"}},
	{model.TradeGeneralBuilding, []string{"build", "extension", "wall", "brick", "renovation"}},
	{model.TradeLocksmith, []string{"lock", "key", "keys", "locked out"}},
	{model.TradeHeating, []string{"boiler", "heating", "heater", "radiator", "gas"}},
	{model.TradeApplianceRepair, []string{"appliance", "washing machine", "dishwasher", "fridge", "freezer", "oven", "tumble dryer"}},
	{model.TradeLandscaping, []string{"garden", "lawn", "patio", "fence", "hedge", "tree"}},
	{model.TradeFlooring, []string{"floor", "laminate", "carpet", "parquet"}},
	{model.TradeGlazing, []string{"window", "glass", "glazing", "pane"}},
}

var (
	highUrgency = []string{"urgent", "urgently", "asap", "emergency", "immediately", "right away"}
	lowUrgency  = []string{"no rush", "whenever", "flexible", "no hurry"}

	budgetBefore = regexp.MustCompile(`(?i)(?:€|\$|£|\beur\b|\beuro\b)\s*([0-9][0-9.,]*)`)
	budgetAfter  = regexp.MustCompile(`(?i)\b([0-9][0-9.,]*)\s*(?:€|euros?\b|eur\b|dollars?\b|pounds?\b|quid\b)`)
	locationRe   = regexp.MustCompile(`\b(?:in|near|around)\s+([A-Z][a-zA-Z'\-]+(?:\s+[A-Z][a-zA-Z'\-]+)?)`)
)

// Local is the deterministic keyword strategy. It never performs I/O.
type Local struct{}

var _ Classifier = Local{}

func NewLocal() Local { return Local{} }

func (Local) Classify(_ context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidArgument)
	}
	return ClassifyText(text), nil
}

// ClassifyText runs the keyword rules over already-trimmed text.
func ClassifyText(text string) *Result {
	tokens := tokenize(text)
	phrase := " " + strings.Join(tokens, " ") + " "

	hits := make(map[model.TradeTag]int)
	var matched []string
	for _, r := range rules {
		for _, w := range r.words {
			if matchWord(w, tokens, phrase) {
				hits[r.trade]++
				matched = append(matched, w)
			}
		}
	}

	res := &Result{
		Title:       deriveTitle(text),
		Description: text,
		Urgency:     detectUrgency(phrase),
		Source:      SourceLocal,
	}
	res.BudgetEstimate = detectBudget(text)
	if m := locationRe.FindStringSubmatch(text); m != nil {
		loc := m[1]
		res.LocationHint = &loc
	}

	if len(hits) == 0 {
		res.TradeTags = []model.TradeTag{model.DefaultTrade}
		res.PrimaryTrade = model.DefaultTrade
		res.Reasoning = "no trade keywords matched; defaulted to " + string(model.DefaultTrade)
		res.Confidence = min(Score(res), defaultConfidence)
		return res
	}

	tags := make([]model.TradeTag, 0, len(hits))
	for t := range hits {
		tags = append(tags, t)
	}
	model.SortTrades(tags)
	// Most hits first; taxonomy order breaks ties.
	sort.SliceStable(tags, func(i, j int) bool { return hits[tags[i]] > hits[tags[j]] })

	res.TradeTags = tags
	res.PrimaryTrade = tags[0]
	res.Keywords = matched
	res.Reasoning = "matched keywords: " + strings.Join(matched, ", ")
	res.Confidence = Score(res)
	return res
}

func matchWord(w string, tokens []string, phrase string) bool {
	if strings.Contains(w, " ") {
		return strings.Contains(phrase, " "+w)
	}
	for _, tok := range tokens {
		if tok == w {
			return true
		}
		if len(w) >= 4 && strings.HasPrefix(tok, w) {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func detectUrgency(phrase string) model.Urgency {
	for _, w := range highUrgency {
		if strings.Contains(phrase, " "+w+" ") {
			return model.UrgencyHigh
		}
	}
	for _, w := range lowUrgency {
		if strings.Contains(phrase, " "+w+" ") {
			return model.UrgencyLow
		}
	}
	return ""
}

func detectBudget(text string) *float64 {
	for _, re := range []*regexp.Regexp{budgetBefore, budgetAfter} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v := model.ParseBudget(strings.TrimRight(m[1], ".,")); v != nil {
				return v
			}
		}
	}
	return nil
}

// deriveTitle takes the first sentence, capped at 60 runes.
func deriveTitle(text string) string {
	first := text
	if i := strings.IndexAny(text, ".!?\n"); i > 0 {
		first = text[:i]
	}
	first = strings.TrimSpace(first)
	if first == "" {
		return "Untitled"
	}
	if utf8.RuneCountInString(first) > maxTitleRunes {
		r := []rune(first)
		first = strings.TrimSpace(string(r[:maxTitleRunes]))
	}
	return first
}
