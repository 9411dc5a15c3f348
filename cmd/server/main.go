// Command server runs the assistant: the REST API and, when REDIS_URL is
// set, the Redis stream consumer. Both share one pipeline and one database.
//
// @title                      Assistant API
// @version                    1.0
// @description                Multi-channel assistant that records expenses and reminders from free-form messages.
// @BasePath                   /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "github.com/tbourn/go-assistant-backend/docs"
	"github.com/tbourn/go-assistant-backend/internal/config"
	"github.com/tbourn/go-assistant-backend/internal/domain"
	httpapi "github.com/tbourn/go-assistant-backend/internal/http"
	"github.com/tbourn/go-assistant-backend/internal/llm"
	_ "github.com/tbourn/go-assistant-backend/internal/llm/anthropic"
	_ "github.com/tbourn/go-assistant-backend/internal/llm/gollm"
	_ "github.com/tbourn/go-assistant-backend/internal/llm/ollama"
	_ "github.com/tbourn/go-assistant-backend/internal/llm/openai"
	"github.com/tbourn/go-assistant-backend/internal/llm/resilient"
	"github.com/tbourn/go-assistant-backend/internal/observability"
	"github.com/tbourn/go-assistant-backend/internal/queue"
	"github.com/tbourn/go-assistant-backend/internal/repo"
	"github.com/tbourn/go-assistant-backend/internal/services"
	"github.com/tbourn/go-assistant-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const purgeEvery = time.Hour

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := sysutil.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, observability.Build{
		Version:  version,
		Instance: cfg.Queue.Consumer,
		Provider: cfg.LLM.Provider,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(sctx)
	}()

	// Storage
	db, err := repo.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return err
	}
	if err := repo.Instrument(db); err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	// Language model
	caller, err := resilient.NewCaller(llm.Default(), llm.Descriptor{
		Name:    cfg.LLM.Provider,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Options: llm.Options{Temperature: cfg.LLM.Temperature, MaxTokens: cfg.LLM.MaxTokens},
	}, resilient.Config{
		MaxRetries:    cfg.LLM.MaxRetries,
		Timeout:       cfg.LLM.Timeout,
		CacheEnabled:  cfg.LLM.CacheEnabled,
		CacheCapacity: cfg.LLM.CacheCapacity,
		RatePerSecond: cfg.LLM.RatePerSecond,
	}, log)
	if err != nil {
		return err
	}
	if !caller.Healthy(ctx) {
		// Not fatal: replies degrade to templates until the backend is back.
		log.Warn().Str("provider", caller.Descriptor().String()).Msg("llm provider failed its startup health-check")
	}

	suite := services.NewSuite(db, caller, services.SuiteOptions{
		DefaultLanguage:  domain.Language(cfg.Assistant.DefaultLanguage),
		DefaultCurrency:  cfg.Assistant.DefaultCurrency,
		RecentWindowDays: cfg.Assistant.RecentWindowDays,
		MaxMessageRunes:  cfg.Assistant.MaxMessageRunes,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		CallTimeout:      cfg.LLM.Timeout,
	}, log)

	// Redis stream channel (optional)
	var consumer *queue.Consumer
	if cfg.Queue.RedisURL != "" {
		rdb, err := queue.Open(ctx, cfg.Queue.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		consumer = queue.NewConsumer(rdb, suite.Assistant, cfg.Queue, log)
	}

	// HTTP
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, suite, caller, cfg, log)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("provider", caller.Descriptor().String()).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return srv.Shutdown(sctx)
	})

	if consumer != nil {
		g.Go(func() error { return consumer.Run(gctx) })
	}

	g.Go(func() error {
		t := time.NewTicker(purgeEvery)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				n, err := suite.Interactions.Purge(gctx)
				if err != nil {
					log.Warn().Err(err).Msg("idempotency purge failed")
					continue
				}
				log.Debug().Int64("deleted", n).Msg("idempotency records purged")
			}
		}
	})

	return g.Wait()
}
