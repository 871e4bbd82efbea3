package memory

import (
	"context"
	"sort"
	"strings"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
)

var _ repository.ContractorProfileRepository = (*contractorRepo)(nil)

type contractorRepo struct{ s *Store }

func NewContractorProfileRepo(s *Store) *contractorRepo { return &contractorRepo{s: s} }

func (r *contractorRepo) Save(ctx context.Context, tx repository.Tx, p *model.ContractorProfile) error {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return err
	}
	defer unlock()
	r.s.profiles[p.UserID] = cloneProfile(p)
	return nil
}

func (r *contractorRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.ContractorProfile, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (r *contractorRepo) Search(ctx context.Context, tx repository.Tx, county string, trades []model.TradeTag, limit int) ([]*model.ContractorProfile, error) {
	unlock, err := r.s.acquire(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	county = strings.TrimSpace(county)
	out := make([]*model.ContractorProfile, 0)
	for _, p := range r.s.profiles {
		if county != "" && !strings.EqualFold(p.County, county) {
			continue
		}
		if len(trades) > 0 && !p.OverlapsTrades(trades) {
			continue
		}
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].UpdatedAt.Equal(out[b].UpdatedAt) {
			return out[a].UserID < out[b].UserID
		}
		return out[a].UpdatedAt.After(out[b].UpdatedAt)
	})
	if limit = model.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
