// Package config loads the service configuration from the environment.
//
// Every key is optional: an empty environment starts the API on :8080 with a
// local sqlite file and a local Ollama model. Malformed values are errors, not
// silent defaults, and Load reports every problem at once.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// CORSConfig lists allowed browser origins; empty allows any origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig configures trace export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH (sqlite)
	URL    string // DATABASE_URL (postgres)
}

// DSN is what repo.Open expects for the selected driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return d.URL
	}
	return d.Path
}

// LLMConfig describes the active provider and the resilient call layer.
type LLMConfig struct {
	Provider      string        // PROVIDER: openai|anthropic|ollama|gollm
	APIKey        string        // LLM_API_KEY
	Model         string        // LLM_MODEL
	BaseURL       string        // LLM_BASE_URL
	Temperature   float64       // LLM_TEMPERATURE
	MaxTokens     int           // LLM_MAX_TOKENS
	Timeout       time.Duration // LLM_TIMEOUT_SECONDS
	CacheEnabled  bool          // LLM_CACHE_ENABLED
	CacheCapacity int           // LLM_CACHE_CAPACITY
	MaxRetries    int           // LLM_MAX_RETRIES
	RatePerSecond float64       // LLM_RATE_RPS, 0 disables throttling
}

// QueueConfig configures the Redis stream adapter. An empty RedisURL
// disables it.
type QueueConfig struct {
	RedisURL    string // REDIS_URL
	Stream      string // QUEUE_STREAM
	Group       string // QUEUE_GROUP
	Consumer    string // QUEUE_CONSUMER, defaults to the hostname
	Concurrency int    // QUEUE_CONCURRENCY, messages handled at once
}

// AssistantConfig holds defaults applied to users and replies.
type AssistantConfig struct {
	DefaultLanguage  string // DEFAULT_LANGUAGE, normalized to en|es|pt
	DefaultCurrency  string // DEFAULT_CURRENCY, ISO 4217
	RecentWindowDays int    // RECENT_WINDOW_DAYS
	MaxMessageRunes  int    // MAX_MESSAGE_RUNES
}

// Config is the whole service configuration.
type Config struct {
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration // covers the model round trips of POST /messages
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	Database  DatabaseConfig
	LLM       LLMConfig
	Queue     QueueConfig
	Assistant AssistantConfig

	RateRPS   float64
	RateBurst int

	CORS     CORSConfig
	Security SecurityConfig

	IdempotencyTTL time.Duration

	OTEL OTELConfig
}

// MustLoad is Load for main: it panics on error.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, applies defaults and validates the result.
func Load() (Config, error) {
	var e env
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.duration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.duration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.duration("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       e.duration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.boolean("LOG_PRETTY", false),
		SwaggerEnabled: e.boolean("SWAGGER_ENABLED", false),
		APIBasePath:    cleanBasePath(e.str("API_BASE_PATH", "/api/v1")),

		Database: DatabaseConfig{
			Driver: strings.ToLower(e.str("DB_DRIVER", "sqlite")),
			Path:   e.str("DB_PATH", "assistant.db"),
			URL:    e.str("DATABASE_URL", ""),
		},

		LLM: LLMConfig{
			Provider:      strings.ToLower(e.str("PROVIDER", "ollama")),
			APIKey:        e.str("LLM_API_KEY", ""),
			Model:         e.str("LLM_MODEL", "llama3.1"),
			BaseURL:       e.str("LLM_BASE_URL", ""),
			Temperature:   e.float("LLM_TEMPERATURE", 0.2),
			MaxTokens:     e.integer("LLM_MAX_TOKENS", 512),
			Timeout:       time.Duration(e.integer("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
			CacheEnabled:  e.boolean("LLM_CACHE_ENABLED", true),
			CacheCapacity: e.integer("LLM_CACHE_CAPACITY", 1000),
			MaxRetries:    e.integer("LLM_MAX_RETRIES", 3),
			RatePerSecond: e.float("LLM_RATE_RPS", 0),
		},

		Queue: QueueConfig{
			RedisURL:    e.str("REDIS_URL", ""),
			Stream:      e.str("QUEUE_STREAM", "msg:inbound"),
			Group:       e.str("QUEUE_GROUP", "assistant"),
			Consumer:    e.str("QUEUE_CONSUMER", hostname()),
			Concurrency: e.integer("QUEUE_CONCURRENCY", 8),
		},

		Assistant: AssistantConfig{
			DefaultLanguage:  e.str("DEFAULT_LANGUAGE", "en"),
			DefaultCurrency:  e.str("DEFAULT_CURRENCY", "USD"),
			RecentWindowDays: e.integer("RECENT_WINDOW_DAYS", 30),
			MaxMessageRunes:  e.integer("MAX_MESSAGE_RUNES", 2000),
		},

		RateRPS:   e.float("RATE_RPS", 5),
		RateBurst: e.integer("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: e.boolean("ENABLE_HSTS", false),
			HSTSMaxAge: e.duration("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.duration("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.boolean("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.boolean("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "go-assistant-backend"),
			SampleRatio: e.float("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	errs := append(e.errs, cfg.normalize()...)
	errs = append(errs, cfg.validate()...)
	return cfg, errors.Join(errs...)
}

// normalize canonicalizes the assistant defaults in place.
func (c *Config) normalize() []error {
	var errs []error
	if lang, ok := domain.ParseLanguage(c.Assistant.DefaultLanguage); ok {
		c.Assistant.DefaultLanguage = string(lang)
	} else {
		errs = append(errs, fmt.Errorf("DEFAULT_LANGUAGE %q is not one of en, es, pt", c.Assistant.DefaultLanguage))
	}
	if unit, err := currency.ParseISO(strings.TrimSpace(c.Assistant.DefaultCurrency)); err == nil {
		c.Assistant.DefaultCurrency = unit.String()
	} else {
		errs = append(errs, fmt.Errorf("DEFAULT_CURRENCY %q is not an ISO 4217 code", c.Assistant.DefaultCurrency))
	}
	return errs
}

func (c Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error, fatal, panic", c.LogLevel))
	}
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"server timeouts must be positive")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	switch c.Database.Driver {
	case "sqlite":
		check(strings.TrimSpace(c.Database.Path) != "", "DB_PATH must not be empty")
	case "postgres":
		check(strings.TrimSpace(c.Database.URL) != "", "DATABASE_URL is required when DB_DRIVER=postgres")
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of sqlite, postgres", c.Database.Driver))
	}

	check(c.LLM.Provider != "", "PROVIDER must not be empty")
	check(c.LLM.Temperature >= 0 && c.LLM.Temperature <= 2, "LLM_TEMPERATURE must be within [0,2]")
	check(c.LLM.MaxTokens > 0, "LLM_MAX_TOKENS must be > 0")
	check(c.LLM.Timeout > 0, "LLM_TIMEOUT_SECONDS must be > 0")
	check(c.LLM.MaxRetries >= 1, "LLM_MAX_RETRIES must be >= 1")
	check(!c.LLM.CacheEnabled || c.LLM.CacheCapacity >= 1, "LLM_CACHE_CAPACITY must be >= 1 when caching is enabled")
	check(c.LLM.RatePerSecond >= 0, "LLM_RATE_RPS must be >= 0")

	check(c.Queue.RedisURL == "" || (c.Queue.Stream != "" && c.Queue.Group != ""),
		"QUEUE_STREAM and QUEUE_GROUP are required when REDIS_URL is set")
	check(c.Queue.Concurrency >= 1, "QUEUE_CONCURRENCY must be >= 1")

	check(c.Assistant.RecentWindowDays >= 1 && c.Assistant.RecentWindowDays <= 366, "RECENT_WINDOW_DAYS must be within [1,366]")
	check(c.Assistant.MaxMessageRunes >= 1, "MAX_MESSAGE_RUNES must be >= 1")

	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be within [0,1]")
	return errs
}

// env reads typed variables, remembering every value that fails to parse.
// Unset and empty variables take the default.
type env struct {
	errs []error
}

func (e *env) lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *env) str(k, def string) string {
	if v, ok := e.lookup(k); ok {
		return v
	}
	return def
}

func (e *env) fail(k, v, kind string) {
	e.errs = append(e.errs, fmt.Errorf("%s: %q is not a valid %s", k, v, kind))
}

func (e *env) integer(k string, def int) int {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, v, "integer")
		return def
	}
	return n
}

func (e *env) float(k string, def float64) float64 {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(k, v, "number")
		return def
	}
	return f
}

func (e *env) boolean(k string, def bool) bool {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	e.fail(k, v, "boolean")
	return def
}

func (e *env) duration(k string, def time.Duration) time.Duration {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, v, "duration")
		return def
	}
	return d
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "assistant-1"
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// cleanBasePath yields "/x/y" for "x/y/", and "/" for blank input.
func cleanBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
