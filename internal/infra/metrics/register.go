package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Each metrics file queues its collectors from init; nothing is exported to
// Prometheus until MustRegister runs.
var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister publishes the queued collectors on the default registry.
func MustRegister() {
	MustRegisterWith(prometheus.DefaultRegisterer)
}

// MustRegisterWith publishes the queued collectors on reg. Only the first
// call in a process has any effect.
func MustRegisterWith(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(pending...)
	})
}
