package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-assistant-backend/internal/compose"
	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/llm"
	"github.com/tbourn/go-assistant-backend/internal/llm/resilient"
	"github.com/tbourn/go-assistant-backend/internal/parsing"
)

// recordingCompleter keeps the options of every call and never answers.
type recordingCompleter struct {
	mu   sync.Mutex
	opts []resilient.CallOptions
}

func (r *recordingCompleter) Call(_ context.Context, _ []llm.Message, opts resilient.CallOptions) resilient.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = append(r.opts, opts)
	return resilient.Result{}
}

func (r *recordingCompleter) last(t *testing.T) resilient.CallOptions {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.opts) == 0 {
		t.Fatalf("no call recorded")
	}
	return r.opts[len(r.opts)-1]
}

func TestNewSuite_TimeoutsFollowConfiguration(t *testing.T) {
	uc := domain.UserContext{AccountID: "a1", Language: domain.LangEnglish, Currency: "USD", Location: time.UTC, Now: july21}

	cases := []struct {
		name        string
		configured  time.Duration
		wantCompose time.Duration
	}{
		{"long configured timeout", 60 * time.Second, compose.DefaultTimeout},
		{"short configured timeout", 4 * time.Second, 4 * time.Second},
		{"unset", 0, compose.DefaultTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recordingCompleter{}
			s := NewSuite(newSvcDB(t), rec, SuiteOptions{DefaultLanguage: domain.LangEnglish, CallTimeout: tc.configured}, zerolog.Nop())

			s.Assistant.Parser.Parse(context.Background(), parsing.Expense, "Coffee 4.50", uc)
			if got := rec.last(t).Timeout; got != 0 {
				t.Fatalf("parser timeout = %v; want 0 so the caller's configured timeout applies", got)
			}

			s.Assistant.Composer.Compose(context.Background(), domain.Outcome{Kind: domain.OutcomeHelp}, domain.LangEnglish, time.UTC)
			if got := rec.last(t).Timeout; got != tc.wantCompose {
				t.Fatalf("composer timeout = %v; want %v", got, tc.wantCompose)
			}
		})
	}
}
