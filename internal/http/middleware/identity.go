package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Identity headers sent by front ends. The pair (channel, user id) is the
// sender identity; there is no authentication behind it.
const (
	HeaderChannel = "X-Channel"
	HeaderUserID  = "X-User-ID"
)

const (
	ctxKeyChannel = "channel"
	ctxKeyUserID  = "userID"
)

// Identity stashes the sender identity from the request headers so that
// logging, rate limiting and idempotency see it. The channel is lowercased;
// validation is left to handlers.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ch := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderChannel))); ch != "" {
			c.Set(ctxKeyChannel, ch)
		}
		if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" {
			c.Set(ctxKeyUserID, uid)
		}
		c.Next()
	}
}

// SenderFrom returns the identity stashed by Identity, falling back to the
// raw headers when the middleware is not installed.
func SenderFrom(c *gin.Context) (channel, userID string) {
	channel = c.GetString(ctxKeyChannel)
	userID = c.GetString(ctxKeyUserID)
	if c.Request == nil {
		return channel, userID
	}
	if channel == "" {
		channel = strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderChannel)))
	}
	if userID == "" {
		userID = strings.TrimSpace(c.GetHeader(HeaderUserID))
	}
	return channel, userID
}
