package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiTokensIn,
		aiTokensOut,
		aiCallsLatencyMs,
		classifyTotal,
		tradeTagsDropped,
		aiInFlight,
	)
}

var (
	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_out",
			Help: "Sum of completion (output) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"provider", "model", "success"},
	)

	classifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_requests_total",
			Help: "Classification requests by strategy and outcome.",
		},
		[]string{"source", "result"}, // source="local|remote", result="ok|cached|upstream_error|invalid"
	)

	aiInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ai_calls_in_flight",
		Help: "Provider calls currently holding a concurrency slot.",
	})

	tradeTagsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_tags_dropped_total",
			Help: "Trade tags discarded because they are not in the taxonomy.",
		},
		[]string{"origin"}, // origin="classifier|manual|profile"
	)
)

func ObserveChatUsage(provider, model string, tokensIn, tokensOut, latencyMs int, success bool) {
	lbl := []string{norm(provider), norm(model)}
	aiTokensIn.WithLabelValues(lbl...).Add(float64(tokensIn))
	aiTokensOut.WithLabelValues(lbl...).Add(float64(tokensOut))
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncClassify(source, result string) {
	classifyTotal.WithLabelValues(norm(source), norm(result)).Inc()
}

func AddDroppedTags(origin string, n int) {
	if n <= 0 {
		return
	}
	tradeTagsDropped.WithLabelValues(norm(origin)).Add(float64(n))
}

func IncAIInFlight() { aiInFlight.Inc() }
func DecAIInFlight() { aiInFlight.Dec() }
