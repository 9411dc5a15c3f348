package resilient

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-assistant-backend/internal/llm"
)

// fakeProvider scripts Generate responses and counts invocations.
type fakeProvider struct {
	name    string
	calls   atomic.Int32
	fn      func(ctx context.Context, n int) (string, error)
	healthy bool
}

func (f *fakeProvider) Generate(ctx context.Context, _ []llm.Message, _ llm.Options) (string, error) {
	n := int(f.calls.Add(1))
	return f.fn(ctx, n)
}
func (f *fakeProvider) Describe() llm.Info { return llm.Info{Name: f.name} }
func (f *fakeProvider) HealthCheck(context.Context) bool { return f.healthy }

func newTestCaller(t *testing.T, p *fakeProvider, cfg Config) *Caller {
	t.Helper()
	reg := llm.NewRegistry()
	reg.Register(p.name, func(llm.Descriptor) (llm.Provider, error) { return p, nil })
	c, err := NewCaller(reg, llm.Descriptor{Name: p.name, Model: "m"}, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCaller: %v", err)
	}
	c.BackoffBase = 10 * time.Millisecond
	c.BackoffCap = 40 * time.Millisecond
	return c
}

func msgs(s string) []llm.Message { return []llm.Message{llm.System("sys"), llm.User(s)} }

func TestCall_CacheHitSkipsProvider(t *testing.T) {
	p := &fakeProvider{name: "fake", fn: func(context.Context, int) (string, error) { return "answer", nil }}
	c := newTestCaller(t, p, Config{CacheEnabled: true, CacheCapacity: 10})

	first := c.Call(context.Background(), msgs("hello"), CallOptions{})
	second := c.Call(context.Background(), msgs("hello"), CallOptions{})

	if !first.OK || !second.OK || first.Text != second.Text {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
	if p.calls.Load() != 1 {
		t.Fatalf("provider calls = %d; want 1", p.calls.Load())
	}
	if first.Cached || !second.Cached || second.Attempts != 0 {
		t.Fatalf("cache flags wrong: %+v / %+v", first, second)
	}

	// NoCache bypasses lookup.
	c.Call(context.Background(), msgs("hello"), CallOptions{NoCache: true})
	if p.calls.Load() != 2 {
		t.Fatalf("NoCache call did not reach provider")
	}
}

func TestCall_BoundedRetryOnPersistentFailure(t *testing.T) {
	p := &fakeProvider{name: "fake", fn: func(context.Context, int) (string, error) { return "", errors.New("down") }}
	c := newTestCaller(t, p, Config{MaxRetries: 3})

	start := time.Now()
	res := c.Call(context.Background(), msgs("x"), CallOptions{})
	elapsed := time.Since(start)

	if res.OK || res.Text != "" {
		t.Fatalf("expected degraded result, got %+v", res)
	}
	if res.Attempts != 3 || p.calls.Load() != 3 {
		t.Fatalf("attempts = %d (provider saw %d); want 3", res.Attempts, p.calls.Load())
	}
	// Waits of 10ms then 20ms separate the three attempts.
	if elapsed < 30*time.Millisecond {
		t.Fatalf("elapsed %v shorter than the backoff schedule", elapsed)
	}
}

func TestCall_EmptyCompletionIsRetried(t *testing.T) {
	p := &fakeProvider{name: "fake", fn: func(_ context.Context, n int) (string, error) {
		if n < 2 {
			return "", nil
		}
		return "finally", nil
	}}
	c := newTestCaller(t, p, Config{})

	res := c.Call(context.Background(), msgs("x"), CallOptions{})
	if !res.OK || res.Text != "finally" || res.Attempts != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCall_HardTimeoutEvenIfProviderIgnoresContext(t *testing.T) {
	p := &fakeProvider{name: "fake", fn: func(context.Context, int) (string, error) {
		time.Sleep(300 * time.Millisecond)
		return "late", nil
	}}
	c := newTestCaller(t, p, Config{})

	start := time.Now()
	res := c.Call(context.Background(), msgs("x"), CallOptions{MaxRetries: 2, Timeout: 20 * time.Millisecond})
	if res.OK || res.Attempts != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if time.Since(start) > 250*time.Millisecond {
		t.Fatalf("call blocked past its deadlines: %v", time.Since(start))
	}
}

func TestCall_PanicIsAttemptFailure(t *testing.T) {
	p := &fakeProvider{name: "fake", fn: func(_ context.Context, n int) (string, error) {
		if n == 1 {
			panic("kaboom")
		}
		return "ok", nil
	}}
	c := newTestCaller(t, p, Config{})
	if res := c.Call(context.Background(), msgs("x"), CallOptions{}); !res.OK || res.Attempts != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCall_CacheBoundStillReturnsValue(t *testing.T) {
	p := &fakeProvider{name: "fake", fn: func(_ context.Context, n int) (string, error) { return fmt.Sprintf("r%d", n), nil }}
	c := newTestCaller(t, p, Config{CacheEnabled: true, CacheCapacity: 2})

	for i := 0; i < 3; i++ {
		res := c.Call(context.Background(), msgs(fmt.Sprintf("q%d", i)), CallOptions{})
		if !res.OK || res.Text != fmt.Sprintf("r%d", i+1) {
			t.Fatalf("call %d = %+v", i, res)
		}
	}
	if size, capacity := c.CacheStats(); size != 2 || capacity != 2 {
		t.Fatalf("CacheStats = %d/%d; want 2/2", size, capacity)
	}
	// The rejected key is not served from cache.
	c.Call(context.Background(), msgs("q2"), CallOptions{})
	if p.calls.Load() != 4 {
		t.Fatalf("provider calls = %d; want 4", p.calls.Load())
	}
}

func TestCall_ContextCancelStopsRetrying(t *testing.T) {
	p := &fakeProvider{name: "fake", fn: func(context.Context, int) (string, error) { return "", errors.New("down") }}
	c := newTestCaller(t, p, Config{MaxRetries: 10})
	c.BackoffBase = time.Second
	c.BackoffCap = 2 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := c.Call(ctx, msgs("x"), CallOptions{})
	if res.OK || res.Attempts != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestNewBackoff_Schedule(t *testing.T) {
	b := newBackoff(DefaultBackoffBase, DefaultBackoffCap, 3)
	want := []time.Duration{500 * time.Millisecond, time.Second}
	for i, w := range want {
		d, stop := b.Next()
		if stop || d != w {
			t.Fatalf("wait %d = %v (stop=%v); want %v", i, d, stop, w)
		}
	}
	if _, stop := b.Next(); !stop {
		t.Fatalf("expected stop after max retries")
	}

	capped := newBackoff(DefaultBackoffBase, DefaultBackoffCap, 10)
	var last time.Duration
	for i := 0; i < 9; i++ {
		last, _ = capped.Next()
	}
	if last != DefaultBackoffCap {
		t.Fatalf("last wait = %v; want cap %v", last, DefaultBackoffCap)
	}
}

func TestSwitch_KeepsOldProviderOnFailure(t *testing.T) {
	good := &fakeProvider{name: "good", healthy: true, fn: func(context.Context, int) (string, error) { return "g", nil }}
	bad := &fakeProvider{name: "bad", healthy: false, fn: func(context.Context, int) (string, error) { return "b", nil }}
	next := &fakeProvider{name: "next", healthy: true, fn: func(context.Context, int) (string, error) { return "n", nil }}

	c := newTestCaller(t, good, Config{})
	c.Registry.Register("bad", func(llm.Descriptor) (llm.Provider, error) { return bad, nil })
	c.Registry.Register("next", func(llm.Descriptor) (llm.Provider, error) { return next, nil })

	if err := c.Switch(context.Background(), llm.Descriptor{Name: "bad", Model: "m"}); !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("Switch(bad) err = %v; want ErrUnhealthy", err)
	}
	if err := c.Switch(context.Background(), llm.Descriptor{Name: "missing"}); !errors.Is(err, llm.ErrUnknownProvider) {
		t.Fatalf("Switch(missing) err = %v; want ErrUnknownProvider", err)
	}
	if c.Active().Name != "good" {
		t.Fatalf("active = %q; want good", c.Active().Name)
	}
	if res := c.Call(context.Background(), msgs("x"), CallOptions{}); res.Text != "g" {
		t.Fatalf("call served by wrong provider: %+v", res)
	}

	if err := c.Switch(context.Background(), llm.Descriptor{Name: "next", Model: "m", APIKey: "secret"}); err != nil {
		t.Fatalf("Switch(next): %v", err)
	}
	if c.Active().Name != "next" || c.Descriptor().APIKey != "" {
		t.Fatalf("switch not committed or key leaked: %+v", c.Descriptor())
	}
	if !c.Healthy(context.Background()) {
		t.Fatalf("expected active provider healthy")
	}
}

func TestNewCaller_UnknownProvider(t *testing.T) {
	if _, err := NewCaller(llm.NewRegistry(), llm.Descriptor{Name: "x"}, Config{}, zerolog.Nop()); !errors.Is(err, llm.ErrUnknownProvider) {
		t.Fatalf("err = %v; want ErrUnknownProvider", err)
	}
}
