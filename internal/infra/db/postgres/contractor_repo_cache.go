package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/domain/ports/repository"
	"trades-marketplace/internal/infra/metrics"
	red "trades-marketplace/internal/infra/redis"
)

var _ repository.ContractorProfileRepository = (*contractorRepoCacheDecorator)(nil)

type contractorRepoCacheDecorator struct {
	inner repository.ContractorProfileRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewContractorRepoCacheDecorator(inner repository.ContractorProfileRepository, cache red.RedisClient, ttl time.Duration) repository.ContractorProfileRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &contractorRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func contractorKey(userID string) string { return fmt.Sprintf("contractor:%s", userID) }

// FindByUserID reads through the cache. Reads inside a transaction skip it.
func (d *contractorRepoCacheDecorator) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.ContractorProfile, error) {
	if tx != nil {
		return d.inner.FindByUserID(ctx, tx, userID)
	}
	key := contractorKey(userID)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var p model.ContractorProfile
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("contractor", metrics.CacheHit)
			return &p, nil
		}
	}

	metrics.IncCacheRequest("contractor", metrics.CacheMiss)
	p, err := d.inner.FindByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

// Save writes through and then drops the cached copy.
func (d *contractorRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.ContractorProfile) error {
	if err := d.inner.Save(ctx, tx, p); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, contractorKey(p.UserID))
	return nil
}

// Search always hits the backing store.
func (d *contractorRepoCacheDecorator) Search(ctx context.Context, tx repository.Tx, county string, trades []model.TradeTag, limit int) ([]*model.ContractorProfile, error) {
	return d.inner.Search(ctx, tx, county, trades, limit)
}
