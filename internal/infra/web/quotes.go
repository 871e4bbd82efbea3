package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trades-marketplace/internal/domain/model"
)

type createQuoteRequest struct {
	Amount            float64    `json:"amount" validate:"gte=0"`
	Currency          string     `json:"currency" validate:"omitempty,len=3"`
	Description       string     `json:"description" validate:"max=5000"`
	EstimatedDuration string     `json:"estimated_duration" validate:"max=100"`
	ProposedStartDate *time.Time `json:"proposed_start_date"`
	ValidUntil        *time.Time `json:"valid_until"`
}

func (s *Server) createQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	q, err := s.d.Quotes.Create(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), model.QuoteInput{
		Amount:            req.Amount,
		Currency:          req.Currency,
		Description:       req.Description,
		EstimatedDuration: req.EstimatedDuration,
		ProposedStartDate: req.ProposedStartDate,
		ValidUntil:        req.ValidUntil,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) listJobQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.d.Quotes.ListByJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) myQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.d.Quotes.ListByTradesperson(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) acceptQuote(w http.ResponseWriter, r *http.Request) {
	q, job, err := s.d.Quotes.Accept(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quote": q, "job": job})
}

func (s *Server) declineQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.d.Quotes.Decline(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
