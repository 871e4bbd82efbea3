package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"trades-marketplace/internal/domain/classify"
	"trades-marketplace/internal/domain/model"
	"trades-marketplace/internal/infra/metrics"
)

var _ classify.Classifier = (*ClassifierCache)(nil)

// ClassifierCache memoizes classifier results by text digest. Redis errors
// never fail a classification; the inner classifier is used instead.
type ClassifierCache struct {
	inner classify.Classifier
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewClassifierCache(inner classify.Classifier, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) *ClassifierCache {
	return &ClassifierCache{inner: inner, cache: cache, ttl: ttl, log: logger}
}

// cachedResult keeps the fields Result hides from JSON.
type cachedResult struct {
	Result *classify.Result `json:"result"`
	Raw    string           `json:"raw"`
	Model  string           `json:"model"`
}

func (c *ClassifierCache) Classify(ctx context.Context, text string) (*classify.Result, error) {
	key := ClassifyKey(text)

	val, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cr cachedResult
		if json.Unmarshal([]byte(val), &cr) == nil && cr.Result != nil {
			metrics.IncCacheRequest("classify", metrics.CacheHit)
			cr.Result.Raw = cr.Raw
			cr.Result.Model = cr.Model
			cr.Result.Cached = true
			return cr.Result, nil
		}
	case !errors.Is(err, Nil):
		metrics.IncCacheRequest("classify", metrics.CacheError)
		c.log.Warn().Err(err).Msg("classify cache read failed")
	}

	metrics.IncCacheRequest("classify", metrics.CacheMiss)
	res, err := c.inner.Classify(ctx, text)
	if err != nil {
		return res, err
	}
	data, err := json.Marshal(cachedResult{Result: res, Raw: res.Raw, Model: res.Model})
	if err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("classify cache write failed")
		}
	}
	return res, nil
}

// ClassifyKey includes the taxonomy version so a taxonomy change never serves
// stale tags.
func ClassifyKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "classify:" + model.TaxonomyVersion + ":" + hex.EncodeToString(sum[:])
}
