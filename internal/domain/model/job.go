package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"trades-marketplace/internal/domain"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency accepts the three canonical levels plus the four-level
// vocabulary some clients still send.
func ParseUrgency(s string) (Urgency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "flexible":
		return UrgencyLow, true
	case "medium", "normal":
		return UrgencyMedium, true
	case "high", "urgent", "emergency":
		return UrgencyHigh, true
	}
	return "", false
}

// Job is one requested task posted by a customer.
type Job struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customer_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	OriginalText    string     `json:"original_text,omitempty"`
	SuggestedTrades []TradeTag `json:"suggested_trades"`
	PrimaryTrade    TradeTag   `json:"primary_trade,omitempty"`
	Budget          *float64   `json:"budget"`
	Location        *string    `json:"location"`
	Urgency         Urgency    `json:"urgency,omitempty"`
	Status          JobStatus  `json:"status"`
	AssignedTo      *string    `json:"assigned_to"`
	AcceptedAt      *time.Time `json:"accepted_at"`
	SelectedQuoteID *string    `json:"selected_quote_id"`
	AIGenerated     bool       `json:"ai_generated"`
	AISummary       string     `json:"ai_summary,omitempty"`
	Images          []string   `json:"images"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// JobInput carries caller-supplied fields before normalization.
type JobInput struct {
	Title           string
	Description     string
	OriginalText    string
	SuggestedTrades []string
	PrimaryTrade    string
	Budget          *float64
	Location        string
	Urgency         string
	AIGenerated     bool
	AISummary       string
}

// JobFilter narrows List queries. Zero values mean "no constraint".
type JobFilter struct {
	Statuses   []JobStatus
	CustomerID string
	Trades     []TradeTag
	Limit      int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// ClampLimit bounds a requested page size.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// NewJob validates and normalizes input into a fresh job in pending_quotes.
// dropped lists trade inputs that are not part of the taxonomy.
func NewJob(customerID string, in JobInput) (job *Job, dropped []string, err error) {
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if strings.TrimSpace(customerID) == "" {
		return nil, nil, domain.ErrInvalidArgument
	}
	if title == "" || desc == "" {
		return nil, nil, domain.ErrInvalidArgument
	}

	tags, primary, dropped := NormalizeTradeSelection(in.SuggestedTrades, in.PrimaryTrade)

	var budget *float64
	if in.Budget != nil && budgetInRange(*in.Budget) {
		b := *in.Budget
		budget = &b
	}
	var loc *string
	if l := strings.TrimSpace(in.Location); l != "" {
		loc = &l
	}
	urg, _ := ParseUrgency(in.Urgency)

	original := in.OriginalText
	if original == "" {
		original = desc
	}

	now := time.Now().UTC()
	return &Job{
		ID:              uuid.NewString(),
		CustomerID:      customerID,
		Title:           title,
		Description:     desc,
		OriginalText:    original,
		SuggestedTrades: tags,
		PrimaryTrade:    primary,
		Budget:          budget,
		Location:        loc,
		Urgency:         urg,
		Status:          JobStatusPendingQuotes,
		AIGenerated:     in.AIGenerated,
		AISummary:       in.AISummary,
		Images:          []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, dropped, nil
}

// NormalizeTradeSelection applies the write-time trade rules: dedup + filter
// to the taxonomy, prepend a primary trade missing from the set, and promote a
// lone suggested trade to primary.
func NormalizeTradeSelection(suggested []string, primaryRaw string) (tags []TradeTag, primary TradeTag, dropped []string) {
	tags, dropped = NormalizeTrades(suggested)
	if strings.TrimSpace(primaryRaw) != "" {
		p, ok := NormalizeTrade(primaryRaw)
		if !ok {
			dropped = append(dropped, primaryRaw)
		} else {
			primary = p
			if !ContainsTrade(tags, p) {
				tags = append([]TradeTag{p}, tags...)
			}
		}
	}
	if primary == "" && len(tags) == 1 {
		primary = tags[0]
	}
	if tags == nil {
		tags = []TradeTag{}
	}
	return tags, primary, dropped
}

// HasTrades reports whether the job carries at least one classification tag.
func (j *Job) HasTrades() bool { return j != nil && len(j.SuggestedTrades) > 0 }

// IsOwnedBy reports whether userID created the job.
func (j *Job) IsOwnedBy(userID string) bool { return j != nil && j.CustomerID == userID }

// IsAssignedTo reports whether userID is the contractor holding the job.
func (j *Job) IsAssignedTo(userID string) bool {
	return j != nil && j.AssignedTo != nil && *j.AssignedTo == userID
}

// OverlapsTrades reports whether the job's tags intersect set.
func (j *Job) OverlapsTrades(set []TradeTag) bool {
	for _, t := range set {
		if ContainsTrade(j.SuggestedTrades, t) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.SuggestedTrades = append([]TradeTag(nil), j.SuggestedTrades...)
	cp.Images = append([]string(nil), j.Images...)
	if j.Budget != nil {
		b := *j.Budget
		cp.Budget = &b
	}
	if j.Location != nil {
		l := *j.Location
		cp.Location = &l
	}
	if j.AssignedTo != nil {
		a := *j.AssignedTo
		cp.AssignedTo = &a
	}
	if j.AcceptedAt != nil {
		t := *j.AcceptedAt
		cp.AcceptedAt = &t
	}
	if j.SelectedQuoteID != nil {
		q := *j.SelectedQuoteID
		cp.SelectedQuoteID = &q
	}
	return &cp
}
