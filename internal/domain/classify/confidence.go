package classify

import "unicode/utf8"

const maxConfidence = 0.99

// Score computes confidence from the fields actually present. Any confidence
// reported by a model is ignored.
func Score(r *Result) float64 {
	c := 0.5
	if len(r.TradeTags) > 0 {
		c += 0.2
	}
	if utf8.RuneCountInString(r.Description) > 30 {
		c += 0.1
	}
	if utf8.RuneCountInString(r.Title) > 3 {
		c += 0.05
	}
	if r.Urgency != "" {
		c += 0.05
	}
	if r.BudgetEstimate != nil {
		c += 0.1
	}
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}
