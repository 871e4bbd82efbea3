package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trades-marketplace/internal/domain"
)

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	m, err := s.d.Messages.Send(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.ReceiverID, req.Content)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	other := r.URL.Query().Get("with")
	if other == "" {
		writeError(w, r, s.log, fmt.Errorf("%w: query param with is required", domain.ErrInvalidArgument))
		return
	}
	msgs, err := s.d.Messages.ListByJobAndPair(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), other)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) markJobMessagesRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.d.Messages.MarkAllRead(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}

func (s *Server) markMessageRead(w http.ResponseWriter, r *http.Request) {
	if err := s.d.Messages.MarkRead(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.d.Messages.UnreadCountForUser(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}
