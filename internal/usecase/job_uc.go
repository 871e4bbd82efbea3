package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/classify"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/adapter"
	"trades-marketplace/internal/domain/ports/repository"
	"trades-marketplace/internal/infra/logging"
	"trades-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// JobUseCase covers the job record lifecycle, matching and the accept guard.
type JobUseCase interface {
	// Create normalizes input and stores a job in pending_quotes. When no valid
	// trade survives normalization the keyword classifier fills the set.
	Create(ctx context.Context, customerID string, in model.JobInput) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, filter model.JobFilter) ([]*model.Job, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]*model.Job, error)
	// UpdateStatus applies a manual lifecycle transition on behalf of actorID.
	UpdateStatus(ctx context.Context, actorID, id string, to model.JobStatus) (*model.Job, error)
	Delete(ctx context.Context, actorID, id string) error

	// AcceptJob claims an open job. Exactly one of several concurrent callers
	// wins; the others get domain.ErrConflict. The job's own customer gets
	// domain.ErrForbidden. Pending quotes are declined with the claim.
	AcceptJob(ctx context.Context, jobID, contractorID string) (*model.Job, error)
	// FindOpenJobsForTrades lists open jobs overlapping trades. An empty set
	// returns every open job.
	FindOpenJobsForTrades(ctx context.Context, trades []string, limit int) ([]*model.Job, error)
	MatchForContractor(ctx context.Context, userID string, limit int) ([]*model.Job, error)

	AttachPhoto(ctx context.Context, actorID, jobID, filename string, r io.Reader, size int64, contentType string) (string, error)
}

type jobUC struct {
	jobs     repository.JobRepository
	quotes   repository.QuoteRepository
	profiles repository.ContractorProfileRepository
	photos   adapter.PhotoStorage
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

// NewJobUseCase wires the job use case. photos may be nil, in which case
// AttachPhoto fails with domain.ErrOperationFailed.
func NewJobUseCase(
	jobs repository.JobRepository,
	quotes repository.QuoteRepository,
	profiles repository.ContractorProfileRepository,
	photos adapter.PhotoStorage,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *jobUC {
	return &jobUC{
		jobs:     jobs,
		quotes:   quotes,
		profiles: profiles,
		photos:   photos,
		tm:       tm,
		log:      logger,
	}
}

func (u *jobUC) Create(ctx context.Context, customerID string, in model.JobInput) (*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.Create")()

	job, dropped, err := model.NewJob(customerID, in)
	if err != nil {
		return nil, fmt.Errorf("%w: customer, title and description are required", err)
	}
	u.reportDropped(ctx, "manual", dropped)

	if !job.HasTrades() {
		res := classify.ClassifyText(job.Title + ". " + job.Description)
		job.SuggestedTrades = res.TradeTags
		job.PrimaryTrade = res.PrimaryTrade
		logging.With(ctx, u.log).Debug().
			Strs("trades", model.TradeStrings(res.TradeTags)).
			Msg("trades inferred from job text")
	}

	if err := u.jobs.Save(ctx, repository.NoTX, job); err != nil {
		return nil, err
	}
	logging.With(logging.WithJobID(ctx, job.ID), u.log).Info().
		Str("primary_trade", string(job.PrimaryTrade)).
		Msg("job created")
	return job, nil
}

func (u *jobUC) Get(ctx context.Context, id string) (*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.Get")()
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.jobs.FindByID(ctx, repository.NoTX, id)
}

func (u *jobUC) List(ctx context.Context, filter model.JobFilter) ([]*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.List")()
	for _, s := range filter.Statuses {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, s)
		}
	}
	filter.Limit = model.ClampLimit(filter.Limit)
	return u.jobs.List(ctx, repository.NoTX, filter)
}

func (u *jobUC) ListByCustomer(ctx context.Context, customerID string, limit int) ([]*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.ListByCustomer")()
	if customerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.jobs.List(ctx, repository.NoTX, model.JobFilter{CustomerID: customerID, Limit: model.ClampLimit(limit)})
}

// UpdateStatus rules:
//   - quotes_received, contractor_selected and reviewed are reached only
//     through quoting, accepting and reviewing;
//   - in_progress may be set by the assigned contractor or the customer;
//   - every other target is customer only.
func (u *jobUC) UpdateStatus(ctx context.Context, actorID, id string, to model.JobStatus) (*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.UpdateStatus")()

	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, to)
	}
	switch to {
	case model.JobStatusQuotesReceived, model.JobStatusContractorSelected, model.JobStatusReviewed:
		return nil, fmt.Errorf("%w: %s is set by the workflow, not directly", domain.ErrInvalidArgument, to)
	}

	job, err := u.jobs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	allowed := job.IsOwnedBy(actorID)
	if to == model.JobStatusInProgress {
		allowed = allowed || job.IsAssignedTo(actorID)
	}
	if !allowed {
		return nil, domain.ErrForbidden
	}
	if !model.CanTransition(job.Status, to) {
		return nil, fmt.Errorf("%w: cannot move job from %s to %s", domain.ErrConflict, job.Status, to)
	}

	// Conditional on the status we just read; a concurrent change surfaces as a conflict.
	updated, err := u.jobs.TransitionStatus(ctx, repository.NoTX, id, []model.JobStatus{job.Status}, to)
	if err != nil {
		return nil, err
	}
	metrics.IncJobTransition(string(to))
	logging.With(logging.WithJobID(ctx, id), u.log).Info().
		Str("from", string(job.Status)).
		Str("to", string(to)).
		Msg("job status changed")
	return updated, nil
}

func (u *jobUC) Delete(ctx context.Context, actorID, id string) error {
	defer logging.TraceDuration(u.log, "JobUC.Delete")()
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidArgument
	}
	job, err := u.jobs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if !job.IsOwnedBy(actorID) {
		return domain.ErrForbidden
	}
	return u.jobs.Delete(ctx, repository.NoTX, id)
}

func (u *jobUC) AcceptJob(ctx context.Context, jobID, contractorID string) (*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.AcceptJob")()
	if strings.TrimSpace(jobID) == "" || strings.TrimSpace(contractorID) == "" {
		return nil, fmt.Errorf("%w: jobId and contractorId are required", domain.ErrInvalidArgument)
	}

	var (
		job      *model.Job
		declined int64
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if job, err = u.jobs.Accept(ctx, tx, jobID, contractorID, time.Now().UTC()); err != nil {
			return err
		}
		// Quotes still pending can never be accepted once the job is claimed.
		declined, err = u.quotes.DeclineSiblings(ctx, tx, jobID, "")
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.IncAcceptConflict("job")
		}
		return nil, err
	}
	metrics.IncJobTransition(string(job.Status))
	logging.With(logging.WithJobID(ctx, jobID), u.log).Info().
		Str("contractor_id", contractorID).
		Int64("declined_quotes", declined).
		Msg("job accepted")
	return job, nil
}

func (u *jobUC) FindOpenJobsForTrades(ctx context.Context, trades []string, limit int) ([]*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.FindOpenJobsForTrades")()

	tags, dropped := model.NormalizeTrades(trades)
	u.reportDropped(ctx, "manual", dropped)
	if len(trades) > 0 && len(tags) == 0 {
		// Every requested trade was unknown; nothing can overlap.
		return []*model.Job{}, nil
	}
	return u.jobs.ListOpen(ctx, repository.NoTX, tags, model.ClampLimit(limit))
}

// MatchForContractor resolves the trade set from the contractor's profile. A
// contractor without a profile sees every open job.
func (u *jobUC) MatchForContractor(ctx context.Context, userID string, limit int) ([]*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.MatchForContractor")()

	var set []model.TradeTag
	p, err := u.profiles.FindByUserID(ctx, repository.NoTX, userID)
	switch {
	case err == nil:
		set = p.TradeSet()
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, err
	}
	return u.jobs.ListOpen(ctx, repository.NoTX, set, model.ClampLimit(limit))
}

func (u *jobUC) AttachPhoto(ctx context.Context, actorID, jobID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	defer logging.TraceDuration(u.log, "JobUC.AttachPhoto")()
	if u.photos == nil {
		return "", fmt.Errorf("%w: photo storage is not configured", domain.ErrOperationFailed)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: only images can be attached", domain.ErrInvalidArgument)
	}

	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return "", err
	}
	if !job.IsOwnedBy(actorID) {
		return "", domain.ErrForbidden
	}

	object := fmt.Sprintf("jobs/%s/%s%s", jobID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	url, err := u.photos.Upload(ctx, object, r, size, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: upload photo: %v", domain.ErrUpstream, err)
	}
	if err := u.jobs.AddImage(ctx, repository.NoTX, jobID, url); err != nil {
		return "", err
	}
	return url, nil
}

func (u *jobUC) reportDropped(ctx context.Context, origin string, dropped []string) {
	if len(dropped) == 0 {
		return
	}
	metrics.AddDroppedTags(origin, len(dropped))
	logging.With(ctx, u.log).Warn().
		Str("origin", origin).
		Strs("dropped", dropped).
		Msg("unknown trade tags dropped")
}
