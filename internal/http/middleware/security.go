package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders. HSTS is only sent on HTTPS
// requests (direct TLS or X-Forwarded-Proto: https); HSTSMaxAge defaults to
// 180 days.
type SecurityOptions struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// SecurityHeaders hardens JSON API responses.
//
// Responses hold personal finances, so shared caches must never store them:
// reads are "private, no-cache" (clients may keep them and revalidate with
// the list ETag), everything else is "no-store".
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int64(opt.HSTSMaxAge / time.Second)
	if maxAge <= 0 {
		maxAge = int64(180 * 24 * time.Hour / time.Second)
	}
	hsts := "max-age=" + strconv.FormatInt(maxAge, 10) + "; includeSubDomains"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
		h.Set("Cross-Origin-Resource-Policy", "same-site")

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
			h.Set("Cache-Control", "private, no-cache")
		default:
			h.Set("Cache-Control", "no-store")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
