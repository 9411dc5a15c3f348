package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc picks the bucket a request draws from.
type keyFunc func(*gin.Context) string

// KeyBySenderOrIP buckets identified senders by (channel, user id) so that a
// chat user behind a shared gateway IP gets their own allowance. Anonymous
// requests fall back to the client IP.
func KeyBySenderOrIP() keyFunc {
	return func(c *gin.Context) string {
		if ch, uid := SenderFrom(c); ch != "" && uid != "" {
			return "sender:" + ch + "/" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per key. Buckets idle for longer
// than idleTTL are dropped during a sweep that runs at most every sweepEvery.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu         sync.Mutex
	buckets    map[string]*bucket
	idleTTL    time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

// NewRateLimiter allows rps sustained requests per key with bursts up to
// burst (at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:        rate.Limit(rps),
		burst:      burst,
		keyFn:      keyFn,
		buckets:    make(map[string]*bucket),
		idleTTL:    10 * time.Minute,
		sweepEvery: time.Minute,
		now:        time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Sweep first so a stale bucket for key is replaced, not refreshed.
	if now.Sub(rl.lastSweep) >= rl.sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// IsRateBypass reports whether IdempotencyValidator recognised a replay;
// replays are served from storage and cost no tokens.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Get(ctxKeyRateBypass)
	v, _ := b.(bool)
	return v
}

// Handler rejects requests over the limit with 429 and a Retry-After header
// (whole seconds until the next token).
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		res := rl.limiter(rl.keyFn(c)).Reserve()
		if res.OK() && res.Delay() == 0 {
			c.Next()
			return
		}

		retry := 60
		if res.OK() {
			retry = int(math.Ceil(res.Delay().Seconds()))
			res.Cancel()
		}
		rateLimited.WithLabelValues(channelLabel(c)).Inc()
		c.Header("Retry-After", strconv.Itoa(retry))
		abortJSON(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
	}
}
