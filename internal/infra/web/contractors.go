package web

import "net/http"

type saveProfileRequest struct {
	PrimaryTrade    string   `json:"primary_trade"`
	SecondaryTrades []string `json:"secondary_trades" validate:"max=20"`
	County          string   `json:"county" validate:"max=100"`
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.d.Contractors.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	var req saveProfileRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	p, err := s.d.Contractors.Save(r.Context(), UserID(r.Context()), req.PrimaryTrade, req.SecondaryTrades, req.County)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// searchContractors is the directory: ?county=&trades=a,b&limit=.
func (s *Server) searchContractors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listings, err := s.d.Contractors.Search(r.Context(), q.Get("county"), splitCSV(q["trades"]), queryInt(q.Get("limit")))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}
