package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// Label values for requests without a recognised X-Channel.
const (
	channelNone  = "none"
	channelOther = "other"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, status and sender channel.",
		},
		[]string{"method", "path", "status", "channel"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request latency. POST /messages includes the model round trips.",
			// Message processing waits on the model, so the tail reaches tens of seconds.
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_inflight",
		Help: "HTTP requests currently being served.",
	})

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response body sizes.",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8), // 128B..2MiB
		},
		[]string{"method", "path"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the per-sender rate limiter.",
		},
		[]string{"channel"},
	)

	idempotentReplays = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_idempotent_replays_total",
		Help: "Requests recognised as replays of a stored Idempotency-Key.",
	})
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, rateLimited, idempotentReplays)
}

// Metrics records Prometheus request metrics. The path label is the matched
// route, falling back to the raw path for 404s; the channel label is bounded
// to the known channels.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status()), channelLabel(c)).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written.
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

func channelLabel(c *gin.Context) string {
	raw, _ := SenderFrom(c)
	if raw == "" {
		return channelNone
	}
	if ch, ok := domain.ParseChannel(raw); ok {
		return string(ch)
	}
	return channelOther
}
