package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/expenses", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/messages", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestSecurityHeaders_BaselineAndCaching(t *testing.T) {
	r := securityRouter(SecurityOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/expenses", nil))
	h := w.Header()
	for k, want := range map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "no-referrer",
		"Cross-Origin-Resource-Policy": "same-site",
		"Cache-Control":                "private, no-cache",
	} {
		if got := h.Get(k); got != want {
			t.Errorf("%s = %q; want %q", k, got, want)
		}
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Errorf("HSTS sent while disabled")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("POST Cache-Control = %q; want no-store", got)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour})

	cases := []struct {
		name string
		req  func() *http.Request
		want string
	}{
		{"plain http", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/expenses", nil)
		}, ""},
		{"direct tls", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			req.TLS = &tls.ConnectionState{}
			return req
		}, "max-age=3600; includeSubDomains"},
		{"behind proxy", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			req.Header.Set("X-Forwarded-Proto", "HTTPS")
			return req
		}, "max-age=3600; includeSubDomains"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tc.req())
			if got := w.Header().Get("Strict-Transport-Security"); got != tc.want {
				t.Fatalf("HSTS = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_DefaultMaxAge(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true})
	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.TLS = &tls.ConnectionState{}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}
}
