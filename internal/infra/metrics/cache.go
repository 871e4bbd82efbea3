package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

func init() { register(cacheLookups) }

var cacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Redis read-through lookups per cache.",
	},
	[]string{"cache", "outcome"}, // cache="classify|contractor"
)

func IncCacheRequest(cache, outcome string) {
	cacheLookups.WithLabelValues(norm(cache), norm(outcome)).Inc()
}
