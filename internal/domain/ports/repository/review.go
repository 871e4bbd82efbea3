package repository

import (
	"context"

	"trades-marketplace/internal/domain/model"
)

type ReviewRepository interface {
	// Save yields domain.ErrAlreadyExists for a second review of the same job by the same reviewer.
	Save(ctx context.Context, tx Tx, r *model.Review) error
	FindByJobAndReviewer(ctx context.Context, tx Tx, jobID, reviewerID string) (*model.Review, error)
	ListByReviewee(ctx context.Context, tx Tx, revieweeID string) ([]*model.Review, error)
	// AverageRating returns 0 when the user has no reviews.
	AverageRating(ctx context.Context, tx Tx, revieweeID string) (float64, int, error)
}
