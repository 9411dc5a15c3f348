// Package services – Suite
//
// This file wires the application services one process shares between its
// front ends (HTTP and the Redis stream adapter).
package services

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/compose"
	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/intent"
	"github.com/tbourn/go-assistant-backend/internal/parsing"
)

// SuiteOptions are the user-facing defaults applied by the services.
type SuiteOptions struct {
	DefaultLanguage  domain.Language
	DefaultCurrency  string
	RecentWindowDays int
	MaxMessageRunes  int
	IdempotencyTTL   time.Duration

	// CallTimeout is the configured per-attempt LLM timeout. Composition
	// never waits longer than it.
	CallTimeout time.Duration
}

// Suite bundles the services built over one database and one completer.
type Suite struct {
	Accounts     *AccountService
	Records      *RecordService
	Interactions *InteractionService
	Assistant    *Assistant
}

// NewSuite builds every service and the assistant pipeline. c is normally a
// *resilient.Caller.
func NewSuite(db *gorm.DB, c intent.Completer, opts SuiteOptions, log zerolog.Logger) *Suite {
	lang := opts.DefaultLanguage
	if _, ok := domain.ParseLanguage(string(lang)); !ok {
		lang = domain.LangEnglish
	}

	s := &Suite{
		Accounts:     NewAccountService(db, lang, opts.DefaultCurrency),
		Records:      NewRecordService(db),
		Interactions: NewInteractionService(db, opts.IdempotencyTTL),
	}
	composer := compose.NewComposer(c, log)
	if opts.CallTimeout > 0 && opts.CallTimeout < composer.Timeout {
		composer.Timeout = opts.CallTimeout
	}
	s.Assistant = &Assistant{
		Identity:         s.Accounts,
		Store:            s.Records,
		Journal:          s.Interactions,
		Router:           intent.NewRouter(c, log),
		Parser:           parsing.NewParser(c, log),
		Composer:         composer,
		Log:              log,
		DefaultLanguage:  lang,
		RecentWindowDays: opts.RecentWindowDays,
		MaxMessageRunes:  opts.MaxMessageRunes,
	}
	return s
}
