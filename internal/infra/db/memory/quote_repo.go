package memory

import (
	"context"
	"sort"
	"time"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.QuoteRepository = (*quoteRepo)(nil)

type quoteRepo struct{ s *Store }

func NewQuoteRepo(s *Store) *quoteRepo { return &quoteRepo{s: s} }

func (r *quoteRepo) Save(ctx context.Context, tx repository.Tx, q *model.Quote) error {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.jobs[q.JobID]; !ok {
		return domain.ErrNotFound
	}
	for _, other := range r.s.quotes {
		if other.ID != q.ID && other.JobID == q.JobID && other.TradespersonID == q.TradespersonID &&
			other.Status != model.QuoteStatusDeclined {
			return domain.ErrAlreadyExists
		}
	}
	cp := *q
	r.s.quotes[q.ID] = &cp
	return nil
}

func (r *quoteRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Quote, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	q, ok := r.s.quotes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *quoteRepo) ListByJob(ctx context.Context, tx repository.Tx, jobID string) ([]*model.Quote, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := r.filter(func(q *model.Quote) bool { return q.JobID == jobID })
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Amount == out[b].Amount {
			return out[a].CreatedAt.Before(out[b].CreatedAt)
		}
		return out[a].Amount < out[b].Amount
	})
	return out, nil
}

func (r *quoteRepo) ListByTradesperson(ctx context.Context, tx repository.Tx, tradespersonID string) ([]*model.Quote, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := r.filter(func(q *model.Quote) bool { return q.TradespersonID == tradespersonID })
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *quoteRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.QuoteStatus) error {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return err
	}
	defer unlock()
	q, ok := r.s.quotes[id]
	if !ok {
		return domain.ErrNotFound
	}
	if q.Status != model.QuoteStatusPending {
		return domain.ErrConflict
	}
	q.Status = status
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *quoteRepo) DeclineSiblings(ctx context.Context, tx repository.Tx, jobID, keepID string) (int64, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return 0, err
	}
	defer unlock()
	var n int64
	now := time.Now().UTC()
	for _, q := range r.s.quotes {
		if q.JobID == jobID && q.ID != keepID && q.Status == model.QuoteStatusPending {
			q.Status = model.QuoteStatusDeclined
			q.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *quoteRepo) filter(keep func(*model.Quote) bool) []*model.Quote {
	out := make([]*model.Quote, 0)
	for _, q := range r.s.quotes {
		if keep(q) {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out
}
