package web

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/infra/logging"
)

type createJobRequest struct {
	Title           string            `json:"title" validate:"required,max=200"`
	Description     string            `json:"description" validate:"required,max=10000"`
	SuggestedTrades []string          `json:"suggested_trades" validate:"max=20"`
	PrimaryTrade    string            `json:"primary_trade"`
	Budget          model.BudgetInput `json:"budget"`
	Location        string            `json:"location" validate:"max=200"`
	Urgency         string            `json:"urgency"`
}

type acceptJobRequest struct {
	JobID        string `json:"jobId" validate:"required"`
	ContractorID string `json:"contractorId"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	job, err := s.d.Jobs.Create(r.Context(), UserID(r.Context()), model.JobInput{
		Title:           req.Title,
		Description:     req.Description,
		SuggestedTrades: req.SuggestedTrades,
		PrimaryTrade:    req.PrimaryTrade,
		Budget:          req.Budget.Value,
		Location:        req.Location,
		Urgency:         req.Urgency,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// listJobs accepts comma separated or repeated status and trades params.
// mine=true restricts to the caller's own jobs.
func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.JobFilter{Limit: queryInt(q.Get("limit"))}
	for _, st := range splitCSV(q["status"]) {
		filter.Statuses = append(filter.Statuses, model.JobStatus(st))
	}
	if trades := splitCSV(q["trades"]); len(trades) > 0 {
		tags, _ := model.NormalizeTrades(trades)
		if len(tags) == 0 {
			writeJSON(w, http.StatusOK, []*model.Job{})
			return
		}
		filter.Trades = tags
	}
	if mine, _ := strconv.ParseBool(q.Get("mine")); mine {
		filter.CustomerID = UserID(r.Context())
	}

	jobs, err := s.d.Jobs.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.d.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// deleteJob serves both DELETE /jobs/{id} and DELETE /jobs?id=.
func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("id"))
	}
	if id == "" {
		writeError(w, r, s.log, fmt.Errorf("%w: job id is required", domain.ErrInvalidArgument))
		return
	}
	if err := s.d.Jobs.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// acceptJob lets a contractor claim an open job. contractorId defaults to the
// caller and may not name anyone else.
func (s *Server) acceptJob(w http.ResponseWriter, r *http.Request) {
	var req acceptJobRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	caller := UserID(r.Context())
	if req.ContractorID == "" {
		req.ContractorID = caller
	}
	if req.ContractorID != caller {
		writeError(w, r, s.log, fmt.Errorf("%w: cannot accept on behalf of another contractor", domain.ErrForbidden))
		return
	}
	ctx := logging.WithJobID(r.Context(), req.JobID)
	job, err := s.d.Jobs.AcceptJob(ctx, req.JobID, req.ContractorID)
	if err != nil {
		writeError(w, r.WithContext(ctx), s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) updateJobStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	job, err := s.d.Jobs.UpdateStatus(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), model.JobStatus(req.Status))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// matchingJobs lists open jobs for the given trades, or for the caller's
// contractor profile when no trades are passed.
func (s *Server) matchingJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"))
	trades := splitCSV(q["trades"])

	var (
		jobs []*model.Job
		err  error
	)
	if len(trades) > 0 {
		jobs, err = s.d.Jobs.FindOpenJobsForTrades(r.Context(), trades, limit)
	} else {
		jobs, err = s.d.Jobs.MatchForContractor(r.Context(), UserID(r.Context()), limit)
	}
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, r, s.log, fmt.Errorf("%w: photo upload must be multipart and under %d bytes", domain.ErrInvalidArgument, s.opts.MaxUploadBytes))
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, r, s.log, fmt.Errorf("%w: form field photo is required", domain.ErrInvalidArgument))
		return
	}
	defer file.Close()

	url, err := s.d.Jobs.AttachPhoto(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"),
		filepath.Base(header.Filename), file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func queryInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
