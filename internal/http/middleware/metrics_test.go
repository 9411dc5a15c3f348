package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteStatusAndChannel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Identity(), Metrics())
	r.GET("/records/:id", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	routed := httpReqs.WithLabelValues("GET", "/records/:id", "200", "telegram")
	missing := httpReqs.WithLabelValues("GET", "/nope", "404", channelNone)
	spoofed := httpReqs.WithLabelValues("GET", "/empty", "204", channelOther)
	baseRouted, baseMissing, baseSpoofed := testutil.ToFloat64(routed), testutil.ToFloat64(missing), testutil.ToFloat64(spoofed)

	req := httptest.NewRequest(http.MethodGet, "/records/17", nil)
	req.Header.Set(HeaderChannel, "Telegram")
	r.ServeHTTP(httptest.NewRecorder(), req)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	req = httptest.NewRequest(http.MethodGet, "/empty", nil)
	req.Header.Set(HeaderChannel, "carrier-pigeon")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(routed); got != baseRouted+1 {
		t.Errorf("routed counter = %v; want %v", got, baseRouted+1)
	}
	if got := testutil.ToFloat64(missing); got != baseMissing+1 {
		t.Errorf("404 counter = %v; want %v", got, baseMissing+1)
	}
	if got := testutil.ToFloat64(spoofed); got != baseSpoofed+1 {
		t.Errorf("unknown channel counter = %v; want %v", got, baseSpoofed+1)
	}
	if n := testutil.CollectAndCount(httpLat); n == 0 {
		t.Errorf("latency histogram has no series")
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Errorf("inflight = %v after requests finished", got)
	}
}
