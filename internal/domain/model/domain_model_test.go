//go:build !integration

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"trades-marketplace/internal/domain"
)

// --- Taxonomy Tests ---

func TestTaxonomy(t *testing.T) {
	t.Run("every listed trade is valid", func(t *testing.T) {
		for _, tag := range ListTrades() {
			if !IsValid(tag) {
				t.Errorf("expected %q to be valid", tag)
			}
		}
	})

	t.Run("ListTrades returns a copy", func(t *testing.T) {
		a := ListTrades()
		a[0] = "mutated"
		if ListTrades()[0] != TradePlumbing {
			t.Fatal("taxonomy was mutated through the returned slice")
		}
	})

	t.Run("unknown strings are not valid", func(t *testing.T) {
		for _, s := range []TradeTag{"", "Plumbing", "astrology", "plumbing "} {
			if IsValid(s) {
				t.Errorf("expected %q to be invalid", s)
			}
		}
	})

	t.Run("NormalizeTrade maps aliases and spellings", func(t *testing.T) {
		cases := map[string]TradeTag{
			"Plumber":               TradePlumbing,
			"  ELECTRICAL ":         TradeElectrical,
			"Painting & Decorating": TradePaintingDecorating,
			"painter_decorator":     TradePaintingDecorating,
			"Heating Engineer":      TradeHeating,
			"general-builder":       TradeGeneralBuilding,
		}
		for in, want := range cases {
			got, ok := NormalizeTrade(in)
			if !ok || got != want {
				t.Errorf("NormalizeTrade(%q) = %q,%v want %q", in, got, ok, want)
			}
		}
	})

	t.Run("NormalizeTrades dedups case-insensitively and reports drops", func(t *testing.T) {
		tags, dropped := NormalizeTrades([]string{"Plumbing", "plumber", "PLUMBING", "unicorn", "", "electrical"})
		if len(tags) != 2 || tags[0] != TradePlumbing || tags[1] != TradeElectrical {
			t.Fatalf("unexpected tags %v", tags)
		}
		if len(dropped) != 1 || dropped[0] != "unicorn" {
			t.Fatalf("unexpected dropped %v", dropped)
		}
	})
}

// --- Lifecycle Tests ---

func TestLifecycle(t *testing.T) {
	t.Run("allowed edges", func(t *testing.T) {
		edges := [][2]JobStatus{
			{JobStatusDraft, JobStatusPendingQuotes},
			{JobStatusPendingQuotes, JobStatusQuotesReceived},
			{JobStatusPendingQuotes, JobStatusContractorSelected},
			{JobStatusQuotesReceived, JobStatusContractorSelected},
			{JobStatusContractorSelected, JobStatusInProgress},
			{JobStatusInProgress, JobStatusCompleted},
			{JobStatusCompleted, JobStatusReviewed},
			{JobStatusInProgress, JobStatusCancelled},
		}
		for _, e := range edges {
			if !CanTransition(e[0], e[1]) {
				t.Errorf("expected %s -> %s to be allowed", e[0], e[1])
			}
		}
	})

	t.Run("backward and terminal moves are rejected", func(t *testing.T) {
		edges := [][2]JobStatus{
			{JobStatusContractorSelected, JobStatusPendingQuotes},
			{JobStatusCompleted, JobStatusInProgress},
			{JobStatusCompleted, JobStatusCancelled},
			{JobStatusCancelled, JobStatusPendingQuotes},
			{JobStatusReviewed, JobStatusCancelled},
			{JobStatusPendingQuotes, JobStatusCompleted},
		}
		for _, e := range edges {
			if CanTransition(e[0], e[1]) {
				t.Errorf("expected %s -> %s to be rejected", e[0], e[1])
			}
		}
	})

	t.Run("predecessors of contractor_selected are the open states", func(t *testing.T) {
		got := Predecessors(JobStatusContractorSelected)
		if len(got) != 2 || got[0] != JobStatusPendingQuotes || got[1] != JobStatusQuotesReceived {
			t.Fatalf("unexpected predecessors %v", got)
		}
	})

	t.Run("persisted statuses are exactly the lifecycle states", func(t *testing.T) {
		all := JobStatuses()
		if len(all) != len(transitions) {
			t.Fatalf("JobStatuses has %d entries, lifecycle has %d", len(all), len(transitions))
		}
		for _, st := range all {
			if !st.Valid() {
				t.Errorf("%s is listed but not valid", st)
			}
		}
		if JobStatus("assigned").Valid() {
			t.Error("assigned is an alias, not a stored status")
		}
	})

	t.Run("open aliases", func(t *testing.T) {
		if !JobStatusOpen.IsOpen() || JobStatusAssigned.IsOpen() {
			t.Fatal("open/assigned aliases map to the wrong states")
		}
	})
}

// --- Budget Tests ---

func TestParseBudget(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"250", f(250)},
		{"€1,500", f(1500)},
		{"1,234,567.50", f(1234567.5)},
		{"12,50", f(12.5)},
		{"  300 euro ", f(300)},
		{"100-200", nil},
		{"-50", nil},
		{"abc", nil},
		{"", nil},
		{"1.2.3", nil},
		{"9999999999.99", f(MaxBudget)},
		{"10000000000", nil},
	}
	for _, c := range cases {
		got := ParseBudget(c.in)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("ParseBudget(%q) = %v, want nil", c.in, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Errorf("ParseBudget(%q) = %v, want %v", c.in, got, *c.want)
		}
	}
}

func TestBudgetInput_UnmarshalJSON(t *testing.T) {
	var body struct {
		A BudgetInput `json:"a"`
		B BudgetInput `json:"b"`
		C BudgetInput `json:"c"`
		D BudgetInput `json:"d"`
	}
	var huge BudgetInput
	if err := json.Unmarshal([]byte(`1e15`), &huge); err != nil || huge.Value != nil {
		t.Errorf("out of range budget should degrade to nil, got %v (%v)", huge.Value, err)
	}
	err := json.Unmarshal([]byte(`{"a": 120.5, "b": "€2,000", "c": "100-200", "d": {"x": 1}}`), &body)
	if err != nil {
		t.Fatalf("garbage budget must not fail decoding: %v", err)
	}
	if body.A.Value == nil || *body.A.Value != 120.5 {
		t.Errorf("numeric budget lost: %v", body.A.Value)
	}
	if body.B.Value == nil || *body.B.Value != 2000 {
		t.Errorf("string budget not coerced: %v", body.B.Value)
	}
	if body.C.Value != nil || body.D.Value != nil {
		t.Error("non-numeric budgets should degrade to nil")
	}
}

// --- Job Tests ---

func TestNewJob(t *testing.T) {
	t.Run("budget above the column range is dropped", func(t *testing.T) {
		huge := MaxBudget * 10
		job, _, err := NewJob("cust-1", JobInput{Title: "t", Description: "d", Budget: &huge})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if job.Budget != nil {
			t.Fatalf("expected nil budget, got %v", *job.Budget)
		}
	})

	t.Run("primary trade stays in the suggested set", func(t *testing.T) {
		job, _, err := NewJob("cust-1", JobInput{
			Title:           "Rewire kitchen",
			Description:     "Old fuse box",
			SuggestedTrades: []string{"plumbing", "electrical"},
			PrimaryTrade:    "electrical",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.PrimaryTrade != TradeElectrical || !ContainsTrade(job.SuggestedTrades, TradeElectrical) {
			t.Fatalf("primary not preserved: %+v", job)
		}
		if job.Status != JobStatusPendingQuotes {
			t.Errorf("expected new job in pending_quotes, got %s", job.Status)
		}
		if job.OriginalText != "Old fuse box" {
			t.Errorf("original text should default to the description, got %q", job.OriginalText)
		}
	})

	t.Run("missing primary is prepended", func(t *testing.T) {
		job, _, err := NewJob("cust-1", JobInput{
			Title: "Fix roof", Description: "Slates missing",
			SuggestedTrades: []string{"carpentry"}, PrimaryTrade: "Roofer",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(job.SuggestedTrades) != 2 || job.SuggestedTrades[0] != TradeRoofing {
			t.Fatalf("expected roofing prepended, got %v", job.SuggestedTrades)
		}
	})

	t.Run("lone suggested trade becomes primary", func(t *testing.T) {
		job, _, _ := NewJob("cust-1", JobInput{Title: "t", Description: "d", SuggestedTrades: []string{"Tiler"}})
		if job.PrimaryTrade != TradeTiling {
			t.Fatalf("expected tiling primary, got %q", job.PrimaryTrade)
		}
	})

	t.Run("unknown tags are dropped and reported", func(t *testing.T) {
		job, dropped, _ := NewJob("cust-1", JobInput{Title: "t", Description: "d", SuggestedTrades: []string{"wizardry", "glazier"}})
		if len(job.SuggestedTrades) != 1 || job.SuggestedTrades[0] != TradeGlazing {
			t.Fatalf("unexpected tags %v", job.SuggestedTrades)
		}
		if len(dropped) != 1 || dropped[0] != "wizardry" {
			t.Fatalf("unexpected dropped %v", dropped)
		}
	})

	t.Run("title and description are required", func(t *testing.T) {
		for _, in := range []JobInput{{Title: " ", Description: "d"}, {Title: "t", Description: ""}} {
			if _, _, err := NewJob("cust-1", in); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument for %+v, got %v", in, err)
			}
		}
	})
}

func TestQuoteAndReviewConstructors(t *testing.T) {
	t.Run("negative quote amount is rejected", func(t *testing.T) {
		if _, err := NewQuote("j", "c", QuoteInput{Amount: -1}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("quote amount above the column range is rejected", func(t *testing.T) {
		if _, err := NewQuote("j", "c", QuoteInput{Amount: MaxBudget + 1}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := NewQuote("j", "c", QuoteInput{Amount: MaxBudget}); err != nil {
			t.Fatalf("max amount should be accepted, got %v", err)
		}
	})

	t.Run("quote expiry", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		q, _ := NewQuote("j", "c", QuoteInput{Amount: 10, ValidUntil: &past})
		if !q.ExpiredAt(time.Now()) {
			t.Fatal("expected quote to be expired")
		}
		if q.Currency != DefaultCurrency {
			t.Errorf("expected default currency, got %s", q.Currency)
		}
	})

	t.Run("rating bounds", func(t *testing.T) {
		for _, r := range []int{0, 6} {
			if _, err := NewReview("j", "a", "b", r, ""); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("rating %d: expected ErrInvalidArgument, got %v", r, err)
			}
		}
		if _, err := NewReview("j", "a", "a", 5, ""); err == nil {
			t.Error("self review should be rejected")
		}
	})

	t.Run("message ids sort by creation", func(t *testing.T) {
		m1, _ := NewMessage("j", "a", "b", "hello")
		time.Sleep(2 * time.Millisecond)
		m2, _ := NewMessage("j", "b", "a", "hi")
		if m1.ID >= m2.ID {
			t.Fatalf("expected %s < %s", m1.ID, m2.ID)
		}
		if !m1.IsBetween("b", "a") {
			t.Fatal("IsBetween should be symmetric")
		}
	})
}

func TestContractorProfile_TradeSet(t *testing.T) {
	p, dropped := NewContractorProfile("u1", "Electrician", []string{"electrical", "Carpenter", "dragon taming"}, "Cork")
	set := p.TradeSet()
	if len(set) != 2 || set[0] != TradeElectrical || set[1] != TradeCarpentry {
		t.Fatalf("unexpected trade set %v", set)
	}
	if len(dropped) != 1 {
		t.Fatalf("expected one dropped trade, got %v", dropped)
	}
}

func f(v float64) *float64 { return &v }
