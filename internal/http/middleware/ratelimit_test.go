package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestKeyBySenderOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.9:12345"

	if got := KeyBySenderOrIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("anonymous key = %q", got)
	}

	// A channel without a user id is still anonymous.
	c.Request.Header.Set(HeaderChannel, "telegram")
	if got := KeyBySenderOrIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("half identity key = %q", got)
	}

	c.Request.Header.Set(HeaderUserID, "42")
	if got := KeyBySenderOrIP()(c); got != "sender:telegram/42" {
		t.Fatalf("sender key = %q", got)
	}
}

func TestRateLimiter_BucketReuseAndSweep(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyBySenderOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d; want 1", rl.burst)
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	a := rl.limiter("a")
	if rl.limiter("a") != a {
		t.Fatalf("bucket not reused")
	}

	// "a" idles past the TTL; the next lookup after sweepEvery drops it.
	now = now.Add(rl.idleTTL + time.Second)
	rl.limiter("b")
	rl.mu.Lock()
	_, hasA := rl.buckets["a"]
	_, hasB := rl.buckets["b"]
	rl.mu.Unlock()
	if hasA || !hasB {
		t.Fatalf("after sweep: a=%v b=%v", hasA, hasB)
	}

	// No sweep runs until sweepEvery has passed again.
	now = now.Add(rl.idleTTL + time.Second)
	last := rl.lastSweep
	rl.lastSweep = now
	rl.limiter("c")
	rl.mu.Lock()
	_, hasB = rl.buckets["b"]
	rl.mu.Unlock()
	if !hasB {
		t.Fatalf("sweep ran early (last=%v)", last)
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, 1, KeyBySenderOrIP())

	r := gin.New()
	r.Use(RequestID(), Identity(), rl.Handler())
	r.POST("/messages", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(uid string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		req.Header.Set(HeaderChannel, "whatsapp")
		req.Header.Set(HeaderUserID, uid)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	before := testutil.ToFloat64(rateLimited.WithLabelValues("whatsapp"))
	if w := send("u1"); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := send("u1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d; want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["code"] != "rate_limited" || body["request_id"] == "" {
		t.Fatalf("body = %v", body)
	}
	if got := testutil.ToFloat64(rateLimited.WithLabelValues("whatsapp")); got != before+1 {
		t.Fatalf("rate_limited counter = %v; want %v", got, before+1)
	}

	// Another sender has their own bucket.
	if w := send("u2"); w.Code != http.StatusOK {
		t.Fatalf("other sender = %d", w.Code)
	}
}

func TestRateLimiter_ReplaysBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, 1, KeyBySenderOrIP())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	r.Use(rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d limited: %d", i, w.Code)
		}
	}
}
