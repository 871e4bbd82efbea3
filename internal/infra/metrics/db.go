package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbConns, dbEmptyAcquires) }

var (
	dbConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Postgres pool connections by state.",
		},
		[]string{"state"}, // max|total|idle|acquired
	)

	dbEmptyAcquires = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "db_pool_empty_acquires",
		Help: "Acquires that found no idle connection since the pool started.",
	})
)

// PoolStats is the part of the pool's own statistics that is exported.
type PoolStats struct {
	Max, Total, Idle, Acquired int32
	EmptyAcquires              int64
}

func SetDBPoolStats(s PoolStats) {
	dbConns.WithLabelValues("max").Set(float64(s.Max))
	dbConns.WithLabelValues("total").Set(float64(s.Total))
	dbConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbConns.WithLabelValues("acquired").Set(float64(s.Acquired))
	dbEmptyAcquires.Set(float64(s.EmptyAcquires))
}
