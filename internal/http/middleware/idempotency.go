package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's retry key on POST /messages.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

const defaultIdemMaxLen = 200

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key validated by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the sender already completed a request with this
// key inside the retention window.
func IsReplay(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyIdemReplay)
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions bounds accepted keys. Zero values select a 200-byte
// limit and the token charset [A-Za-z0-9._~-:].
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether (channel, userID, key) has a stored
// result that is still live at now. Retention is the lookup's business.
type IdempotencyLookup func(ctx context.Context, channel, userID, key string, now time.Time) (bool, error)

// IdempotencyValidator checks the Idempotency-Key header on unsafe methods.
// A malformed key is rejected with 400. A known key from an identified sender
// marks the request as a replay, which also exempts it from rate limiting.
// Lookup failures are logged and the request proceeds as new. Serving the
// stored result is left to the handler.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !unsafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		ch, uid := SenderFrom(c)
		if lookup != nil && ch != "" && uid != "" {
			seen, err := lookup(c.Request.Context(), ch, uid, key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case seen:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
				idempotentReplays.Inc()
			}
		}
		c.Next()
	}
}

func unsafeMethod(m string) bool {
	switch m {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// abortJSON writes the API's error envelope from middleware, which cannot
// import the handlers package.
func abortJSON(c *gin.Context, status int, code, msg string) {
	v, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": asString(v),
		"code":       code,
		"message":    msg,
	})
}
