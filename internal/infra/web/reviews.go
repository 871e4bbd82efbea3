package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createReviewRequest struct {
	RevieweeID string `json:"reviewee_id" validate:"required"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	Comment    string `json:"comment" validate:"max=5000"`
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	rv, err := s.d.Reviews.Create(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.RevieweeID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (s *Server) listUserReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.d.Reviews.ListForUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) userRating(w http.ResponseWriter, r *http.Request) {
	avg, n, err := s.d.Reviews.AverageRating(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Average float64 `json:"average"`
		Count   int     `json:"count"`
	}{avg, n})
}
