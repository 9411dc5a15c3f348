// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, the access log and the panic
// recovery handler:
//
//   - RequestID() ensures every request carries a correlation ID
//     (propagated via X-Request-ID and stored in the Gin context).
//   - AccessLog() attaches a request-scoped zerolog.Logger derived from the
//     process logger and, once the handler returns, emits one scrubbed access
//     record at a level chosen by outcome.
//   - Recovery() converts panics into JSON 500 responses carrying the
//     correlation ID and logs the stack through the request logger.
//   - LoggerFrom() retrieves the request-scoped logger so handlers can add
//     lines such as lg.Warn().Str("interaction_id", id).Msg("…").
//
// Recommended order: RequestID, AccessLog, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey holds the request-scoped *zerolog.Logger.
	loggerKey = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
// An incoming X-Request-ID is reused; otherwise a UUIDv4 is generated. The
// ID is echoed in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// AccessLog returns the access-log middleware. base is the process logger;
// opts controls which headers are masked.
//
// The record carries the route, the scrubbed query and headers, the sender's
// channel (never the raw user id), status, latency and sizes. Level is error
// for 5xx or when handlers attached gin errors, warn for 4xx, info otherwise.
// Bodies are never logged: they hold the users' messages.
func AccessLog(base zerolog.Logger, opts RedactOptions) gin.HandlerFunc {
	scrub := newRedactor(opts)

	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		path := c.FullPath()
		if path == "" {
			// Fallback when route not matched / 404.
			path = c.Request.URL.Path
		}

		l := base.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		query := scrub.text(truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		headers := scrub.headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		channel, _ := SenderFrom(c)

		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		ev.
			Str("channel", channel).
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// Recovery intercepts panics, logs a stack trace, and returns a JSON 500
// error { "request_id", "code": "internal_error", "message" } unless a
// response was already started.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				v, _ := c.Get(requestIDKey)
				rid := asString(v)
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if c.Writer.Written() {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				c.Header(requestIDHeader, rid)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"request_id": rid,
					"code":       "internal_error",
					"message":    "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// AccessLog is not installed. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.Logger
	return &l
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate caps s at max bytes, appending an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
