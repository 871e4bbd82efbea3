package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobTransitionsTotal, acceptConflictsTotal) }

var (
	jobTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_transitions_total",
			Help: "Job lifecycle transitions, labeled by target status.",
		},
		[]string{"status"},
	)

	acceptConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_accept_conflicts_total",
			Help: "Accept attempts that lost the race or hit a stale state.",
		},
		[]string{"kind"}, // 'job', 'quote'
	)
)

func IncJobTransition(status string) {
	jobTransitionsTotal.WithLabelValues(norm(status)).Inc()
}

func IncAcceptConflict(kind string) {
	acceptConflictsTotal.WithLabelValues(norm(kind)).Inc()
}
