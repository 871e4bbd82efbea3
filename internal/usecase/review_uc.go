package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
	"trades-marketplace/internal/infra/logging"
	"trades-marketplace/internal/infra/metrics"
)

var _ ReviewUseCase = (*reviewUC)(nil)

type ReviewUseCase interface {
	// Create stores a review of a completed job. The first review moves the
	// job to reviewed in the same transaction.
	Create(ctx context.Context, reviewerID, jobID, revieweeID string, rating int, comment string) (*model.Review, error)
	AverageRating(ctx context.Context, userID string) (float64, int, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Review, error)
	CanReview(ctx context.Context, reviewerID, jobID string) (bool, error)
}

type reviewUC struct {
	reviews repository.ReviewRepository
	jobs    repository.JobRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewReviewUseCase(reviews repository.ReviewRepository, jobs repository.JobRepository, tm repository.TransactionManager, logger *zerolog.Logger) *reviewUC {
	return &reviewUC{reviews: reviews, jobs: jobs, tm: tm, log: logger}
}

func (u *reviewUC) Create(ctx context.Context, reviewerID, jobID, revieweeID string, rating int, comment string) (*model.Review, error) {
	defer logging.TraceDuration(u.log, "ReviewUC.Create")()

	rv, err := model.NewReview(jobID, reviewerID, revieweeID, rating, comment)
	if err != nil {
		return nil, fmt.Errorf("%w: rating must be %d..%d and reviewer must differ from reviewee",
			err, model.MinRating, model.MaxRating)
	}

	var moved bool
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		job, err := u.jobs.FindByIDForUpdate(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if !isParticipant(job, reviewerID) || !isParticipant(job, revieweeID) {
			return fmt.Errorf("%w: only the customer and the assigned contractor can review each other", domain.ErrForbidden)
		}
		if job.Status != model.JobStatusCompleted && job.Status != model.JobStatusReviewed {
			return fmt.Errorf("%w: job is %s, reviews open once it is completed", domain.ErrConflict, job.Status)
		}
		if err := u.reviews.Save(ctx, tx, rv); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return fmt.Errorf("%w: job already reviewed by this user", domain.ErrConflict)
			}
			return err
		}
		if job.Status == model.JobStatusCompleted {
			if _, err := u.jobs.TransitionStatus(ctx, tx, jobID,
				[]model.JobStatus{model.JobStatusCompleted}, model.JobStatusReviewed); err != nil {
				return err
			}
			moved = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if moved {
		metrics.IncJobTransition(string(model.JobStatusReviewed))
	}
	logging.With(logging.WithJobID(ctx, jobID), u.log).Info().
		Str("reviewee_id", revieweeID).
		Int("rating", rating).
		Msg("review created")
	return rv, nil
}

func (u *reviewUC) AverageRating(ctx context.Context, userID string) (float64, int, error) {
	defer logging.TraceDuration(u.log, "ReviewUC.AverageRating")()
	return u.reviews.AverageRating(ctx, repository.NoTX, userID)
}

func (u *reviewUC) ListForUser(ctx context.Context, userID string) ([]*model.Review, error) {
	defer logging.TraceDuration(u.log, "ReviewUC.ListForUser")()
	return u.reviews.ListByReviewee(ctx, repository.NoTX, userID)
}

// CanReview reports whether reviewerID may still post a review for jobID.
func (u *reviewUC) CanReview(ctx context.Context, reviewerID, jobID string) (bool, error) {
	defer logging.TraceDuration(u.log, "ReviewUC.CanReview")()

	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return false, err
	}
	if !isParticipant(job, reviewerID) {
		return false, nil
	}
	if job.Status != model.JobStatusCompleted && job.Status != model.JobStatusReviewed {
		return false, nil
	}
	_, err = u.reviews.FindByJobAndReviewer(ctx, repository.NoTX, jobID, reviewerID)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
		return true, nil
	default:
		return false, err
	}
}

func isParticipant(job *model.Job, userID string) bool {
	return job.IsOwnedBy(userID) || job.IsAssignedTo(userID)
}
