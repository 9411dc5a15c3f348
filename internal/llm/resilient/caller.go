// Package resilient wraps an llm.Provider with a hard per-attempt deadline,
// bounded exponential retry and a bounded response cache. Failures never
// escape as errors: a call either yields text or reports OK=false, and the
// caller picks its own fallback.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-assistant-backend/internal/llm"
)

const (
	DefaultMaxRetries  = 3
	DefaultTimeout     = 30 * time.Second
	DefaultBackoffBase = 500 * time.Millisecond
	DefaultBackoffCap  = 5 * time.Second
)

var (
	// ErrUnhealthy means a candidate provider failed its health-check and
	// the switch was not committed.
	ErrUnhealthy = errors.New("provider failed health-check")

	errEmptyCompletion = errors.New("empty completion")
	errAttemptTimeout  = errors.New("attempt deadline exceeded")
)

// binding pairs a descriptor with the provider built from it. It is never
// mutated after construction; switching stores a new one.
type binding struct {
	desc     llm.Descriptor
	provider llm.Provider
}

// Config tunes a Caller. Zero fields take the package defaults.
type Config struct {
	MaxRetries   int
	Timeout      time.Duration
	CacheEnabled bool
	// CacheCapacity bounds the response cache; ignored when caching is off.
	CacheCapacity int
	// RatePerSecond throttles outbound attempts; 0 disables throttling.
	RatePerSecond float64
}

// CallOptions override the Caller defaults for one call.
type CallOptions struct {
	MaxRetries int
	Timeout    time.Duration
	// NoCache skips both lookup and store; use it when freshness matters.
	NoCache    bool
	Generation *llm.Options
}

// Result is the outcome of one resilient call. It is meant for metrics and
// logging and is never persisted.
type Result struct {
	OK       bool
	Text     string
	Elapsed  time.Duration
	Attempts int
	Cached   bool
	Provider string
}

// Caller is safe for concurrent use. The active provider is held behind an
// atomic pointer so in-flight calls see either the old or the new binding.
type Caller struct {
	Registry *llm.Registry
	Cache    *Cache
	Limiter  *rate.Limiter
	Log      zerolog.Logger

	MaxRetries  int
	Timeout     time.Duration
	BackoffBase time.Duration
	BackoffCap  time.Duration

	active atomic.Pointer[binding]
}

// NewCaller builds the provider named by d through reg and wraps it. An
// unknown provider name fails here, at construction time.
func NewCaller(reg *llm.Registry, d llm.Descriptor, cfg Config, log zerolog.Logger) (*Caller, error) {
	if reg == nil {
		reg = llm.Default()
	}
	p, err := reg.Build(d)
	if err != nil {
		return nil, err
	}
	c := &Caller{
		Registry:    reg,
		Log:         log.With().Str("component", "llm").Logger(),
		MaxRetries:  cfg.MaxRetries,
		Timeout:     cfg.Timeout,
		BackoffBase: DefaultBackoffBase,
		BackoffCap:  DefaultBackoffCap,
	}
	if cfg.CacheEnabled {
		c.Cache = NewCache(cfg.CacheCapacity)
	}
	if cfg.RatePerSecond > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), int(cfg.RatePerSecond)+1)
	}
	c.active.Store(&binding{desc: d, provider: p})
	return c, nil
}

// Active describes the provider currently serving calls.
func (c *Caller) Active() llm.Info {
	return c.active.Load().provider.Describe()
}

// Descriptor returns the active descriptor with its credential removed.
func (c *Caller) Descriptor() llm.Descriptor {
	d := c.active.Load().desc
	d.APIKey = ""
	return d
}

// Healthy runs the active provider's health-check.
func (c *Caller) Healthy(ctx context.Context) bool {
	return c.active.Load().provider.HealthCheck(ctx)
}

// CacheStats reports the cache size and capacity; both are zero when
// caching is disabled.
func (c *Caller) CacheStats() (size, capacity int) {
	if c.Cache == nil {
		return 0, 0
	}
	return c.Cache.Len(), c.Cache.Cap()
}

// Switch builds the provider for d, health-checks it once, and only then
// makes it active. On any failure the previous provider stays active.
func (c *Caller) Switch(ctx context.Context, d llm.Descriptor) error {
	p, err := c.Registry.Build(d)
	if err != nil {
		llmSwitches.WithLabelValues("build_failed").Inc()
		return err
	}
	if !p.HealthCheck(ctx) {
		llmSwitches.WithLabelValues("unhealthy").Inc()
		c.Log.Warn().Str("provider", d.String()).Msg("provider switch rejected")
		return fmt.Errorf("switch to %s: %w", d, ErrUnhealthy)
	}
	old := c.active.Swap(&binding{desc: d, provider: p})
	llmSwitches.WithLabelValues("ok").Inc()
	c.Log.Info().Str("from", old.desc.String()).Str("to", d.String()).Msg("provider switched")
	return nil
}

// newBackoff yields waits of base, 2*base, 4*base... capped at max, and
// allows attempts-1 retries after the first attempt.
func newBackoff(base, max time.Duration, attempts int) retry.Backoff {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if max <= 0 {
		max = DefaultBackoffCap
	}
	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(max, b)
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// Call issues msgs to the active provider. It never returns an error: when
// every attempt fails, Result.OK is false and the caller must degrade.
func (c *Caller) Call(ctx context.Context, msgs []llm.Message, opts CallOptions) Result {
	start := time.Now()
	b := c.active.Load()
	name := b.desc.Name

	ctx, span := otel.Tracer("llm/resilient").Start(ctx, "Call",
		trace.WithAttributes(
			attribute.String("llm.provider", name),
			attribute.String("llm.model", b.desc.Model),
			attribute.Int("llm.messages", len(msgs)),
		),
	)
	defer span.End()

	gen := b.desc.Options
	if opts.Generation != nil {
		gen = opts.Generation.Merge(gen)
	}

	var key string
	useCache := c.Cache != nil && !opts.NoCache
	if useCache {
		k, err := Key(b.desc, msgs, gen)
		if err != nil {
			useCache = false
		} else {
			key = k
			if text, ok := c.Cache.Get(key); ok {
				llmCacheEvents.WithLabelValues("hit").Inc()
				llmCalls.WithLabelValues(name, "cached").Inc()
				span.SetAttributes(attribute.Bool("llm.cached", true))
				return Result{OK: true, Text: text, Elapsed: time.Since(start), Cached: true, Provider: name}
			}
			llmCacheEvents.WithLabelValues("miss").Inc()
		}
	}

	attempts := firstPositive(opts.MaxRetries, c.MaxRetries, DefaultMaxRetries)
	timeout := firstPositiveDur(opts.Timeout, gen.Timeout, c.Timeout, DefaultTimeout)

	var (
		text string
		used int
	)
	err := retry.Do(ctx, newBackoff(c.BackoffBase, c.BackoffCap, attempts), func(ctx context.Context) error {
		used++
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		out, err := c.attempt(ctx, b.provider, msgs, gen, timeout)
		if err == nil && out == "" {
			err = errEmptyCompletion
		}
		if err != nil {
			c.Log.Debug().Err(err).Str("provider", name).Int("attempt", used).Msg("llm attempt failed")
			return retry.RetryableError(err)
		}
		text = out
		return nil
	})

	res := Result{OK: err == nil, Text: text, Elapsed: time.Since(start), Attempts: used, Provider: name}
	llmAttempts.WithLabelValues(name).Observe(float64(used))
	llmLatency.WithLabelValues(name).Observe(res.Elapsed.Seconds())
	span.SetAttributes(attribute.Int("llm.attempts", used), attribute.Bool("llm.ok", res.OK))

	if err != nil {
		llmCalls.WithLabelValues(name, "failed").Inc()
		c.Log.Warn().Err(err).Str("provider", name).Int("attempts", used).
			Dur("latency", res.Elapsed).Msg("llm call degraded")
		return res
	}

	llmCalls.WithLabelValues(name, "ok").Inc()
	if useCache {
		if !c.Cache.Put(key, text) {
			llmCacheEvents.WithLabelValues("rejected").Inc()
		}
		llmCacheEntries.Set(float64(c.Cache.Len()))
	}
	c.Log.Info().Str("provider", name).Int("attempts", used).Dur("latency", res.Elapsed).Msg("llm call")
	return res
}

// attempt runs one Generate under a hard deadline. The result channel is
// buffered so a provider that ignores cancellation cannot block forever.
func (c *Caller) attempt(ctx context.Context, p llm.Provider, msgs []llm.Message, gen llm.Options, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		text, err := p.Generate(ctx, msgs, gen)
		done <- outcome{text: text, err: err}
	}()

	select {
	case o := <-done:
		return o.text, o.err
	case <-ctx.Done():
		return "", errAttemptTimeout
	}
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositiveDur(vals ...time.Duration) time.Duration {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
