package web

import (
	"net/http"

	"trades-marketplace/internal/domain/classify"
	"trades-marketplace/internal/domain/model"
)

type classifyRequest struct {
	Text      string `json:"text" validate:"required,max=20000"`
	WriteToDB bool   `json:"write_to_db"`
}

type classifyResponse struct {
	Parsed   *classify.Result `json:"parsed"`
	Raw      string           `json:"raw,omitempty"`
	Inserted *model.Job       `json:"inserted,omitempty"`
}

// classifyText returns 502 with the raw model reply when the upstream output
// could not be used.
func (s *Server) classifyText(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out, err := s.d.Classify.Classify(r.Context(), UserID(r.Context()), req.Text, req.WriteToDB)
	if err != nil {
		raw := ""
		if out != nil {
			raw = out.Raw
		}
		writeErrorRaw(w, r, s.log, err, raw)
		return
	}
	writeJSON(w, http.StatusOK, classifyResponse{Parsed: out.Parsed, Raw: out.Raw, Inserted: out.Inserted})
}
