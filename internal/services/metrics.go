package services

import "github.com/prometheus/client_golang/prometheus"

var (
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_messages_total",
			Help: "Processed messages by intent and outcome.",
		},
		[]string{"intent", "outcome"},
	)
	processDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_process_duration_seconds",
			Help:    "End-to-end message processing latency by outcome.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(messagesTotal, processDuration)
}
