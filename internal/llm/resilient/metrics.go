package resilient

import "github.com/prometheus/client_golang/prometheus"

var (
	// llmCalls counts resilient calls by provider and outcome
	// (ok, cached, failed).
	llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "Total number of resilient LLM calls.",
		},
		[]string{"provider", "outcome"},
	)

	// llmAttempts records how many provider attempts each uncached call used.
	llmAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_attempts",
			Help:    "Provider attempts per resilient LLM call.",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
		[]string{"provider"},
	)

	// llmLatency records end-to-end call latency including backoff waits.
	llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "Duration of resilient LLM calls in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	// llmCacheEvents counts cache hits, misses and rejected inserts.
	llmCacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_cache_events_total",
			Help: "LLM response cache events.",
		},
		[]string{"event"},
	)

	// llmCacheEntries gauges the current cache size.
	llmCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "llm_cache_entries",
			Help: "Number of entries in the LLM response cache.",
		},
	)

	// llmSwitches counts provider switch attempts by result.
	llmSwitches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_provider_switches_total",
			Help: "Provider switch attempts.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(llmCalls, llmAttempts, llmLatency, llmCacheEvents, llmCacheEntries, llmSwitches)
}
