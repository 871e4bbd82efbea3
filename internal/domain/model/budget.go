package model

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxBudget is the largest value a NUMERIC(12,2) budget or quote amount holds.
const MaxBudget = 9_999_999_999.99

var (
	budgetStrip     = regexp.MustCompile(`[^0-9.,\-]`)
	thousandsComma  = regexp.MustCompile(`,(\d{3})(?:[^\d]|$)`)
	plainDecimalRun = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ParseBudget coerces a numeric-ish string into a budget. Everything except
// digits, comma, period and dash is discarded first. A comma followed by
// exactly three digits is a thousands separator, any other comma a decimal
// point. What remains must be a plain non-negative decimal, so ranges such as
// "100-200" yield nil, as do values above MaxBudget.
func ParseBudget(raw string) *float64 {
	s := budgetStrip.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return nil
	}
	for thousandsComma.MatchString(s) {
		s = thousandsComma.ReplaceAllStringFunc(s, func(m string) string {
			return strings.TrimPrefix(m, ",")
		})
	}
	s = strings.Replace(s, ",", ".", 1)
	if !plainDecimalRun.MatchString(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !budgetInRange(v) {
		return nil
	}
	return &v
}

func budgetInRange(v float64) bool {
	return v >= 0 && v <= MaxBudget && !math.IsNaN(v)
}

// BudgetInput accepts a JSON number, a numeric-ish string or null. Garbage
// degrades to an absent budget; it never fails decoding.
type BudgetInput struct {
	Value *float64
}

func (b *BudgetInput) UnmarshalJSON(data []byte) error {
	b.Value = nil
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if budgetInRange(n) {
			b.Value = &n
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Value = ParseBudget(s)
	}
	return nil
}

func (b BudgetInput) MarshalJSON() ([]byte, error) {
	if b.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*b.Value)
}
