package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-assistant-backend/internal/http/middleware"
)

func TestFail_ServerErrorIsLoggedAndAttached(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(zerolog.New(&buf), middleware.RedactOptions{}))
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "db down")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "rid-500")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Message != "db down" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	logs := buf.String()
	if !strings.Contains(logs, `"message":"api error"`) || !strings.Contains(logs, `"errors":"Error #01: db down`) {
		t.Fatalf("expected api error and attached gin error, got:\n%s", logs)
	}
}

func TestFail_ClientErrorIsQuiet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(zerolog.New(&buf), middleware.RedactOptions{}))
	r.GET("/missing", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotRegistered, "nope") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(buf.String(), "api error") || strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("4xx should only produce a warn access line:\n%s", buf.String())
	}
}

func TestSuccessHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"n": 1}) })
	r.DELETE("/gone", func(c *gin.Context) { noContent(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusCreated || strings.TrimSpace(w.Body.String()) != `{"n":1}` {
		t.Fatalf("ok: %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/gone", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent: %d %q", w.Code, w.Body.String())
	}
}

func TestListETag(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	if got := listETag("expenses", "a1", 3, &ts); got != `W/"expenses:a1:3:1700000000"` {
		t.Fatalf("etag = %s", got)
	}
	if got := listETag("reminders", "a1", 0, nil); got != `W/"reminders:a1:0:0"` {
		t.Fatalf("empty etag = %s", got)
	}
}

func TestNotModified(t *testing.T) {
	gin.SetMode(gin.TestMode)
	etag := listETag("messages", "web_app/u1", 2, nil)

	cases := []struct {
		name string
		inm  string
		want bool
	}{
		{"absent", "", false},
		{"exact", etag, true},
		{"list", `W/"other", ` + etag, true},
		{"wildcard", "*", true},
		{"stale", `W/"messages:web_app/u1:1:0"`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.inm != "" {
				c.Request.Header.Set("If-None-Match", tc.inm)
			}
			if got := notModified(c, "messages", "web_app/u1", 2, nil); got != tc.want {
				t.Fatalf("notModified = %v; want %v", got, tc.want)
			}
			if w.Header().Get("ETag") != etag {
				t.Fatalf("ETag header = %q", w.Header().Get("ETag"))
			}
		})
	}
}
