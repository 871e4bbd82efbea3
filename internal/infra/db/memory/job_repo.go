package memory

import (
	"context"
	"sort"
	"time"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct{ s *Store }

func NewJobRepo(s *Store) *jobRepo { return &jobRepo{s: s} }

func (r *jobRepo) Save(ctx context.Context, tx repository.Tx, job *model.Job) error {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return err
	}
	defer unlock()
	r.s.jobs[job.ID] = job.Clone()
	return nil
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j.Clone(), nil
}

// FindByIDForUpdate needs no extra locking: a transaction already owns the store.
func (r *jobRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *jobRepo) List(ctx context.Context, tx repository.Tx, filter model.JobFilter) ([]*model.Job, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.collect(func(j *model.Job) bool {
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, j.Status) {
			return false
		}
		if filter.CustomerID != "" && j.CustomerID != filter.CustomerID {
			return false
		}
		if len(filter.Trades) > 0 && !j.OverlapsTrades(filter.Trades) {
			return false
		}
		return true
	}, filter.Limit), nil
}

func (r *jobRepo) ListOpen(ctx context.Context, tx repository.Tx, trades []model.TradeTag, limit int) ([]*model.Job, error) {
	return r.List(ctx, tx, model.JobFilter{Statuses: model.OpenStatuses(), Trades: trades, Limit: limit})
}

// collect must be called with the store locked.
func (r *jobRepo) collect(keep func(*model.Job) bool, limit int) []*model.Job {
	out := make([]*model.Job, 0)
	for _, j := range r.s.jobs {
		if keep(j) {
			out = append(out, j.Clone())
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	if limit = model.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *jobRepo) Accept(ctx context.Context, tx repository.Tx, jobID, contractorID string, at time.Time) (*model.Job, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	j, ok := r.s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if j.IsOwnedBy(contractorID) {
		return nil, domain.ErrForbidden
	}
	if !j.Status.IsOpen() {
		return nil, domain.ErrConflict
	}
	assignee := contractorID
	accepted := at
	j.Status = model.JobStatusAssigned
	j.AssignedTo = &assignee
	j.AcceptedAt = &accepted
	j.UpdatedAt = at
	return j.Clone(), nil
}

func (r *jobRepo) TransitionStatus(ctx context.Context, tx repository.Tx, jobID string, from []model.JobStatus, to model.JobStatus) (*model.Job, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	j, ok := r.s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !hasStatus(from, j.Status) {
		return nil, domain.ErrConflict
	}
	j.Status = to
	j.UpdatedAt = time.Now().UTC()
	return j.Clone(), nil
}

func (r *jobRepo) SelectQuote(ctx context.Context, tx repository.Tx, jobID, quoteID, contractorID string, at time.Time) (*model.Job, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	j, ok := r.s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !j.Status.IsOpen() {
		return nil, domain.ErrConflict
	}
	qid, assignee, accepted := quoteID, contractorID, at
	j.Status = model.JobStatusContractorSelected
	j.SelectedQuoteID = &qid
	j.AssignedTo = &assignee
	j.AcceptedAt = &accepted
	j.UpdatedAt = at
	return j.Clone(), nil
}

func (r *jobRepo) AddImage(ctx context.Context, tx repository.Tx, jobID, url string) error {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return err
	}
	defer unlock()
	j, ok := r.s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Images = append(j.Images, url)
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes the job together with its quotes, messages and reviews.
func (r *jobRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.jobs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.jobs, id)
	for k, q := range r.s.quotes {
		if q.JobID == id {
			delete(r.s.quotes, k)
		}
	}
	for k, m := range r.s.messages {
		if m.JobID == id {
			delete(r.s.messages, k)
		}
	}
	for k, rv := range r.s.reviews {
		if rv.JobID == id {
			delete(r.s.reviews, k)
		}
	}
	return nil
}

func hasStatus(set []model.JobStatus, s model.JobStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}
