package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
	"trades-marketplace/internal/infra/logging"
	"trades-marketplace/internal/infra/metrics"
)

var _ QuoteUseCase = (*quoteUC)(nil)

type QuoteUseCase interface {
	// Create records a tradesperson's bid on an open job. The first quote moves
	// the job from pending_quotes to quotes_received in the same transaction.
	Create(ctx context.Context, tradespersonID, jobID string, in model.QuoteInput) (*model.Quote, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.Quote, error)
	ListByTradesperson(ctx context.Context, tradespersonID string) ([]*model.Quote, error)
	// UpdateStatus routes accepted to Accept and declined to Decline.
	UpdateStatus(ctx context.Context, actorID, quoteID string, status model.QuoteStatus) (*model.Quote, error)
	Decline(ctx context.Context, actorID, quoteID string) (*model.Quote, error)
	// Accept atomically accepts one quote, declines its pending siblings and
	// moves the job to contractor_selected.
	Accept(ctx context.Context, actorID, quoteID string) (*model.Quote, *model.Job, error)
}

type quoteUC struct {
	quotes repository.QuoteRepository
	jobs   repository.JobRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewQuoteUseCase(quotes repository.QuoteRepository, jobs repository.JobRepository, tm repository.TransactionManager, logger *zerolog.Logger) *quoteUC {
	return &quoteUC{quotes: quotes, jobs: jobs, tm: tm, log: logger}
}

func (u *quoteUC) Create(ctx context.Context, tradespersonID, jobID string, in model.QuoteInput) (*model.Quote, error) {
	defer logging.TraceDuration(u.log, "QuoteUC.Create")()

	q, err := model.NewQuote(jobID, tradespersonID, in)
	if err != nil {
		return nil, fmt.Errorf("%w: job, tradesperson and an amount between 0 and %.2f are required", err, model.MaxBudget)
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		job, err := u.jobs.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job.IsOwnedBy(tradespersonID) {
			return fmt.Errorf("%w: customers cannot quote on their own job", domain.ErrForbidden)
		}
		if !job.Status.IsOpen() {
			return fmt.Errorf("%w: job is %s and no longer takes quotes", domain.ErrConflict, job.Status)
		}
		if err := u.quotes.Save(ctx, tx, q); err != nil {
			return err
		}
		if job.Status == model.JobStatusPendingQuotes {
			if _, err := u.jobs.TransitionStatus(ctx, tx, jobID,
				[]model.JobStatus{model.JobStatusPendingQuotes}, model.JobStatusQuotesReceived); err != nil {
				return err
			}
			metrics.IncJobTransition(string(model.JobStatusQuotesReceived))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.With(logging.WithJobID(ctx, jobID), u.log).Info().
		Str("quote_id", q.ID).
		Float64("amount", q.Amount).
		Msg("quote submitted")
	return q, nil
}

func (u *quoteUC) ListByJob(ctx context.Context, jobID string) ([]*model.Quote, error) {
	defer logging.TraceDuration(u.log, "QuoteUC.ListByJob")()
	if _, err := u.jobs.FindByID(ctx, repository.NoTX, jobID); err != nil {
		return nil, err
	}
	return u.quotes.ListByJob(ctx, repository.NoTX, jobID)
}

func (u *quoteUC) ListByTradesperson(ctx context.Context, tradespersonID string) ([]*model.Quote, error) {
	defer logging.TraceDuration(u.log, "QuoteUC.ListByTradesperson")()
	if tradespersonID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.quotes.ListByTradesperson(ctx, repository.NoTX, tradespersonID)
}

func (u *quoteUC) UpdateStatus(ctx context.Context, actorID, quoteID string, status model.QuoteStatus) (*model.Quote, error) {
	switch status {
	case model.QuoteStatusAccepted:
		q, _, err := u.Accept(ctx, actorID, quoteID)
		return q, err
	case model.QuoteStatusDeclined:
		return u.Decline(ctx, actorID, quoteID)
	default:
		return nil, fmt.Errorf("%w: quote status %q cannot be set", domain.ErrInvalidArgument, status)
	}
}

func (u *quoteUC) Decline(ctx context.Context, actorID, quoteID string) (*model.Quote, error) {
	defer logging.TraceDuration(u.log, "QuoteUC.Decline")()

	q, err := u.quotes.FindByID(ctx, repository.NoTX, quoteID)
	if err != nil {
		return nil, err
	}
	job, err := u.jobs.FindByID(ctx, repository.NoTX, q.JobID)
	if err != nil {
		return nil, err
	}
	if !job.IsOwnedBy(actorID) {
		return nil, domain.ErrForbidden
	}
	if err := u.quotes.UpdateStatus(ctx, repository.NoTX, quoteID, model.QuoteStatusDeclined); err != nil {
		return nil, err
	}
	return u.quotes.FindByID(ctx, repository.NoTX, quoteID)
}

func (u *quoteUC) Accept(ctx context.Context, actorID, quoteID string) (*model.Quote, *model.Job, error) {
	defer logging.TraceDuration(u.log, "QuoteUC.Accept")()

	var (
		accepted *model.Quote
		job      *model.Job
		declined int64
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		q, err := u.quotes.FindByID(ctx, tx, quoteID)
		if err != nil {
			return err
		}
		// Locking the job row serializes competing acceptances on the same job.
		j, err := u.jobs.FindByIDForUpdate(ctx, tx, q.JobID)
		if err != nil {
			return err
		}
		if !j.IsOwnedBy(actorID) {
			return domain.ErrForbidden
		}
		now := time.Now().UTC()
		switch {
		case q.Status != model.QuoteStatusPending:
			return fmt.Errorf("%w: quote is %s", domain.ErrConflict, q.Status)
		case q.ExpiredAt(now):
			return fmt.Errorf("%w: quote expired", domain.ErrConflict)
		case !j.Status.IsOpen():
			return fmt.Errorf("%w: job is %s", domain.ErrConflict, j.Status)
		}

		if err := u.quotes.UpdateStatus(ctx, tx, q.ID, model.QuoteStatusAccepted); err != nil {
			return err
		}
		if declined, err = u.quotes.DeclineSiblings(ctx, tx, q.JobID, q.ID); err != nil {
			return err
		}
		if job, err = u.jobs.SelectQuote(ctx, tx, q.JobID, q.ID, q.TradespersonID, now); err != nil {
			return err
		}
		q.Status = model.QuoteStatusAccepted
		q.UpdatedAt = now
		accepted = q
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.IncAcceptConflict("quote")
		}
		return nil, nil, err
	}

	metrics.IncJobTransition(string(job.Status))
	logging.With(logging.WithJobID(ctx, job.ID), u.log).Info().
		Str("quote_id", accepted.ID).
		Str("contractor_id", accepted.TradespersonID).
		Int64("declined", declined).
		Msg("quote accepted")
	return accepted, job, nil
}
