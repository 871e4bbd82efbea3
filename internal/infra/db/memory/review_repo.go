package memory

import (
	"context"
	"sort"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.ReviewRepository = (*reviewRepo)(nil)

type reviewRepo struct{ s *Store }

func NewReviewRepo(s *Store) *reviewRepo { return &reviewRepo{s: s} }

func (r *reviewRepo) Save(ctx context.Context, tx repository.Tx, rv *model.Review) error {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.jobs[rv.JobID]; !ok {
		return domain.ErrNotFound
	}
	for _, other := range r.s.reviews {
		if other.JobID == rv.JobID && other.ReviewerID == rv.ReviewerID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *rv
	r.s.reviews[rv.ID] = &cp
	return nil
}

func (r *reviewRepo) FindByJobAndReviewer(ctx context.Context, tx repository.Tx, jobID, reviewerID string) (*model.Review, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, rv := range r.s.reviews {
		if rv.JobID == jobID && rv.ReviewerID == reviewerID {
			cp := *rv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *reviewRepo) ListByReviewee(ctx context.Context, tx repository.Tx, revieweeID string) ([]*model.Review, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make([]*model.Review, 0)
	for _, rv := range r.s.reviews {
		if rv.RevieweeID == revieweeID {
			cp := *rv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *reviewRepo) AverageRating(ctx context.Context, tx repository.Tx, revieweeID string) (float64, int, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return 0, 0, err
	}
	defer unlock()
	sum, n := 0, 0
	for _, rv := range r.s.reviews {
		if rv.RevieweeID == revieweeID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}
