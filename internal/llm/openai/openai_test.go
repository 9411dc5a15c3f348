package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/tbourn/go-assistant-backend/internal/llm"
)

func TestGenerate_WireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 2 || req.Messages[0].Role != llm.RoleSystem {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.Temperature == nil || *req.Temperature != 0.1 || req.MaxTokens != 50 {
			t.Errorf("options not forwarded: %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hi there "}}]}`))
	}))
	defer srv.Close()

	p, err := New(llm.Descriptor{Name: Name, Model: "gpt-4o-mini", APIKey: "sk", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := p.Generate(context.Background(),
		[]llm.Message{llm.System("be brief"), llm.User("hello")},
		llm.Options{Temperature: 0.1, MaxTokens: 50})
	if err != nil || got != "hi there" {
		t.Fatalf("Generate = %q, %v", got, err)
	}
	if info := p.Describe(); info.Name != Name || info.MaxContext != 128000 || !slices.Contains(info.Capabilities, llm.CapCallOptions) {
		t.Fatalf("Describe = %+v", info)
	}
}

func TestGenerate_EmptyChoicesIsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p, _ := New(llm.Descriptor{Model: "m", APIKey: "k", BaseURL: srv.URL})
	got, err := p.Generate(context.Background(), []llm.Message{llm.User("x")}, llm.Options{})
	if err != nil || got != "" {
		t.Fatalf("Generate = %q, %v; want empty, nil", got, err)
	}
}

func TestHealthCheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, _ := New(llm.Descriptor{Model: "m", APIKey: "k", BaseURL: srv.URL})
	if p.HealthCheck(context.Background()) {
		t.Fatalf("expected unhealthy")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(llm.Descriptor{APIKey: "k"}); !errors.Is(err, llm.ErrMissingModel) {
		t.Fatalf("err = %v", err)
	}
	if _, err := New(llm.Descriptor{Model: "m"}); !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Fatalf("err = %v", err)
	}
	if _, err := llm.Default().Build(llm.Descriptor{Name: "OpenAI", Model: "m", APIKey: "k"}); err != nil {
		t.Fatalf("registered builder failed: %v", err)
	}
}
