package memory

import (
	"context"
	"sort"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.MessageRepository = (*messageRepo)(nil)

type messageRepo struct{ s *Store }

func NewMessageRepo(s *Store) *messageRepo { return &messageRepo{s: s} }

func (r *messageRepo) Save(ctx context.Context, tx repository.Tx, m *model.Message) error {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.jobs[m.JobID]; !ok {
		return domain.ErrNotFound
	}
	cp := *m
	r.s.messages[m.ID] = &cp
	return nil
}

func (r *messageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Message, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *messageRepo) ListByJobAndPair(ctx context.Context, tx repository.Tx, jobID, userA, userB string) ([]*model.Message, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make([]*model.Message, 0)
	for _, m := range r.s.messages {
		if m.JobID == jobID && m.IsBetween(userA, userB) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

func (r *messageRepo) MarkRead(ctx context.Context, tx repository.Tx, id string) error {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return err
	}
	defer unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Read = true
	return nil
}

func (r *messageRepo) MarkAllRead(ctx context.Context, tx repository.Tx, jobID, receiverID string) (int64, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return 0, err
	}
	defer unlock()
	var n int64
	for _, m := range r.s.messages {
		if m.JobID == jobID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (r *messageRepo) CountUnread(ctx context.Context, tx repository.Tx, receiverID string) (int, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return 0, err
	}
	defer unlock()
	n := 0
	for _, m := range r.s.messages {
		if m.ReceiverID == receiverID && !m.Read {
			n++
		}
	}
	return n, nil
}
