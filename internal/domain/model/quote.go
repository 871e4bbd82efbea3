package model

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"trades-marketplace/internal/domain"
)

type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusAccepted, QuoteStatusDeclined:
		return true
	}
	return false
}

const DefaultCurrency = "EUR"

// Quote is one contractor's priced bid on a job.
type Quote struct {
	ID                string      `json:"id"`
	JobID             string      `json:"job_id"`
	TradespersonID    string      `json:"tradesperson_id"`
	Amount            float64     `json:"amount"`
	Currency          string      `json:"currency"`
	Description       string      `json:"description"`
	EstimatedDuration string      `json:"estimated_duration,omitempty"`
	ProposedStartDate *time.Time  `json:"proposed_start_date"`
	ValidUntil        *time.Time  `json:"valid_until"`
	Status            QuoteStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// QuoteInput carries caller-supplied quote fields.
type QuoteInput struct {
	Amount            float64
	Currency          string
	Description       string
	EstimatedDuration string
	ProposedStartDate *time.Time
	ValidUntil        *time.Time
}

func NewQuote(jobID, tradespersonID string, in QuoteInput) (*Quote, error) {
	if jobID == "" || tradespersonID == "" || in.Amount < 0 || in.Amount > MaxBudget || math.IsNaN(in.Amount) {
		return nil, domain.ErrInvalidArgument
	}
	cur := strings.ToUpper(strings.TrimSpace(in.Currency))
	if cur == "" {
		cur = DefaultCurrency
	}
	now := time.Now().UTC()
	return &Quote{
		ID:                uuid.NewString(),
		JobID:             jobID,
		TradespersonID:    tradespersonID,
		Amount:            in.Amount,
		Currency:          cur,
		Description:       strings.TrimSpace(in.Description),
		EstimatedDuration: strings.TrimSpace(in.EstimatedDuration),
		ProposedStartDate: in.ProposedStartDate,
		ValidUntil:        in.ValidUntil,
		Status:            QuoteStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// ExpiredAt reports whether the quote's validity window closed before t.
func (q *Quote) ExpiredAt(t time.Time) bool {
	return q.ValidUntil != nil && q.ValidUntil.Before(t)
}
