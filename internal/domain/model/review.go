package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"trades-marketplace/internal/domain"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	ReviewerID string    `json:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewReview(jobID, reviewerID, revieweeID string, rating int, comment string) (*Review, error) {
	if jobID == "" || reviewerID == "" || revieweeID == "" || reviewerID == revieweeID {
		return nil, domain.ErrInvalidArgument
	}
	if rating < MinRating || rating > MaxRating {
		return nil, domain.ErrInvalidArgument
	}
	return &Review{
		ID:         uuid.NewString(),
		JobID:      jobID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
		CreatedAt:  time.Now().UTC(),
	}, nil
}
