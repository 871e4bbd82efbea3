package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/ports/adapter"
	red "trades-marketplace/internal/infra/redis"
	"trades-marketplace/internal/usecase"
)

// Deps are the collaborators the HTTP surface dispatches to.
type Deps struct {
	Jobs        usecase.JobUseCase
	Quotes      usecase.QuoteUseCase
	Messages    usecase.MessageUseCase
	Reviews     usecase.ReviewUseCase
	Contractors usecase.ContractorUseCase
	Classify    usecase.ClassifyUseCase

	Identity adapter.IdentityProvider
	Limiter  red.Limiter
	// Health reports storage reachability for /healthz; nil means always healthy.
	Health func(ctx context.Context) error
}

type Options struct {
	RequestTimeout time.Duration
	MaxUploadBytes int64
	// UserHeader, when set, carries the credential instead of a bearer token.
	UserHeader string

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type Server struct {
	d    Deps
	opts Options
	log  *zerolog.Logger
}

func NewServer(d Deps, opts Options, logger *zerolog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Server{d: d, opts: opts, log: logger}
}

// Router builds the chi handler tree. Unsupported methods on a known path
// get chi's 405 with an Allow header.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, s.log, domain.ErrNotFound)
	})

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			Timeout(s.opts.RequestTimeout),
			Auth(s.d.Identity, s.opts.UserHeader, s.log),
			RateLimit(s.d.Limiter, "api", s.opts.RateLimitRequests, s.opts.RateLimitWindow, s.log),
		)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.createJob)
			r.Get("/", s.listJobs)
			r.Delete("/", s.deleteJob)
			r.Post("/accept", s.acceptJob)
			r.Get("/matching", s.matchingJobs)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getJob)
				r.Delete("/", s.deleteJob)
				r.Post("/status", s.updateJobStatus)
				r.Post("/photos", s.uploadPhoto)

				r.Post("/quotes", s.createQuote)
				r.Get("/quotes", s.listJobQuotes)

				r.Post("/messages", s.sendMessage)
				r.Get("/messages", s.listMessages)
				r.Post("/messages/read", s.markJobMessagesRead)

				r.Post("/reviews", s.createReview)
			})
		})

		r.Post("/quotes/{id}/accept", s.acceptQuote)
		r.Post("/quotes/{id}/decline", s.declineQuote)

		r.Post("/messages/{id}/read", s.markMessageRead)
		r.Get("/messages/unread-count", s.unreadCount)

		r.Get("/users/{id}/reviews", s.listUserReviews)
		r.Get("/users/{id}/rating", s.userRating)

		r.Get("/contractors", s.searchContractors)
		r.Get("/contractors/me", s.getProfile)
		r.Put("/contractors/me", s.saveProfile)
		r.Get("/contractors/me/quotes", s.myQuotes)

		r.With(RateLimit(s.d.Limiter, "classify", s.classifyLimit(), s.opts.RateLimitWindow, s.log)).
			Post("/ai/classify", s.classifyText)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.d.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.d.Health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// classifyLimit gives model calls a quarter of the general budget.
func (s *Server) classifyLimit() int {
	if s.opts.RateLimitRequests <= 0 {
		return 0
	}
	return s.opts.RateLimitRequests/4 + 1
}
