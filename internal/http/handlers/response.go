package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-assistant-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope every endpoint returns.
type ErrorResponse struct {
	// Echo of X-Request-ID; quote it when reporting a problem.
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable machine-readable code (see errors.go).
	Code string `json:"code" example:"not_registered"`
	// Human-readable message.
	Message string `json:"message" example:"account not registered"`
}

// fail aborts with an ErrorResponse. Server-side failures are attached to the
// gin context so the access log records them at error level, and logged once
// here with the code.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		_ = c.Error(errors.New(msg))
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }

// listETag is the weak validator of a sender's list: it changes whenever a row
// is added or updated. kind keeps /expenses and /reminders apart.
func listETag(kind, owner string, count int64, newest *time.Time) string {
	var ts int64
	if newest != nil {
		ts = newest.Unix()
	}
	return fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, owner, count, ts)
}

// notModified sets the list ETag and answers 304 when If-None-Match already
// names it. A wildcard or any tag in a comma-separated list counts.
func notModified(c *gin.Context, kind, owner string, count int64, newest *time.Time) bool {
	etag := listETag(kind, owner, count, newest)
	c.Header("ETag", etag)
	inm := c.GetHeader("If-None-Match")
	if inm == "" {
		return false
	}
	for _, tag := range strings.Split(inm, ",") {
		if tag = strings.TrimSpace(tag); tag == etag || tag == "*" {
			c.Status(http.StatusNotModified)
			return true
		}
	}
	return false
}
