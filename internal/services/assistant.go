// Package services – Assistant
//
// This file implements Assistant, the entry point every front end calls with
// one inbound message. It builds the per-request user context, routes the
// message to an intent, runs the matching domain parser and its validation
// stage, talks to the storage collaborator, and hands a single outcome to the
// composer, which is the only place outcomes become text.
//
// Process never fails: transport and shape failures are absorbed by the
// router and parsers, semantic failures become clarification requests, and
// collaborator failures become a system-error reply. Panics are recovered.
//
// Observability: Handle is OpenTelemetry-instrumented and counted in
// Prometheus by intent and outcome.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-assistant-backend/internal/compose"
	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/intent"
	"github.com/tbourn/go-assistant-backend/internal/parsing"
	"github.com/tbourn/go-assistant-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Identity resolves channel identities. repo.ErrNotFound means the sender is
// not registered; any other error is a collaborator failure.
type Identity interface {
	Lookup(ctx context.Context, ch domain.Channel, channelUserID string) (*domain.Account, error)
}

// Store is the storage collaborator.
type Store interface {
	SaveExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error)
	SaveReminder(ctx context.Context, r *domain.Reminder) (*domain.Reminder, error)
	QuerySummary(ctx context.Context, accountID string, windowDays int) (*domain.Summary, error)
	Recent(ctx context.Context, accountID string, since time.Time, limit int) ([]domain.RecentRecord, error)
}

// Journal records processed messages. It is optional.
type Journal interface {
	Record(ctx context.Context, in *domain.Interaction) error
}

// Classifier assigns an intent to a message.
type Classifier interface {
	Classify(ctx context.Context, text string, uc domain.UserContext) (domain.Classification, intent.Status)
}

// Extractor runs a domain parser and its validation stage.
type Extractor interface {
	Parse(ctx context.Context, d *parsing.Domain, text string, uc domain.UserContext) domain.Parsed
}

// Writer turns an outcome into reply text.
type Writer interface {
	Compose(ctx context.Context, out domain.Outcome, lang domain.Language, loc *time.Location) string
}

// Hints are optional front-end supplied facts about a message.
type Hints struct {
	// Language overrides the reply language for unregistered senders.
	Language string
	// Timezone overrides the account timezone for this message only.
	Timezone string
	// ReceivedAt stamps the envelope; zero means now.
	ReceivedAt time.Time
}

// ProcessRequest is the inbound contract shared by every front end.
type ProcessRequest struct {
	Text          string
	Channel       string
	ChannelUserID string
	Hints         Hints
}

// Reply is the full result of Handle; Process returns only Text.
type Reply struct {
	Text          string             `json:"reply"`
	Intent        domain.Intent      `json:"intent"`
	Confidence    float64            `json:"confidence"`
	Outcome       domain.OutcomeKind `json:"outcome"`
	Language      domain.Language    `json:"language"`
	InteractionID string             `json:"interaction_id,omitempty"`
}

// Assistant wires the pipeline stages and collaborators together.
type Assistant struct {
	Identity Identity
	Store    Store
	Journal  Journal

	Router   Classifier
	Parser   Extractor
	Composer Writer

	Log zerolog.Logger

	DefaultLanguage  domain.Language
	RecentWindowDays int
	RecentLimit      int
	MaxMessageRunes  int

	Now func() time.Time
}

// Process handles one message and returns the reply text.
func (a *Assistant) Process(ctx context.Context, req ProcessRequest) string {
	return a.Handle(ctx, req).Text
}

// Handle runs the pipeline for one message and reports how the reply came
// about. It never returns an empty reply.
func (a *Assistant) Handle(ctx context.Context, req ProcessRequest) (rep Reply) {
	start := time.Now()
	ctx, span := otel.Tracer("services/Assistant").Start(ctx, "Handle",
		trace.WithAttributes(attribute.String("channel", req.Channel)),
	)
	defer span.End()

	rep = Reply{Intent: domain.DefaultIntent, Language: a.defaultLanguage()}
	defer func() {
		if r := recover(); r != nil {
			a.Log.Error().Interface("panic", r).Msg("assistant pipeline panicked")
			span.SetStatus(codes.Error, "panic")
			out := domain.Outcome{Kind: domain.OutcomeSystemError, Err: fmt.Errorf("panic: %v", r)}
			rep.Outcome = out.Kind
			rep.Text = a.compose(ctx, out, rep.Language, time.UTC)
		}
		span.SetAttributes(
			attribute.String("intent.name", string(rep.Intent)),
			attribute.String("outcome.kind", string(rep.Outcome)),
		)
		messagesTotal.WithLabelValues(string(rep.Intent), string(rep.Outcome)).Inc()
		processDuration.WithLabelValues(string(rep.Outcome)).Observe(time.Since(start).Seconds())
	}()

	env, uc, out, done := a.prepare(ctx, req)
	rep.Language = uc.Language
	if !done {
		var cls domain.Classification
		cls, out = a.route(ctx, env, uc)
		rep.Intent, rep.Confidence, rep.Language = cls.Intent, cls.Confidence, cls.Language
		if out.Kind == domain.OutcomeClarify && out.Clarify != nil && out.Clarify.Language != "" {
			rep.Language = out.Clarify.Language
		}
	}
	if out.Err != nil {
		a.Log.Error().Err(out.Err).Str("channel", req.Channel).Msg("message not processed")
		span.RecordError(out.Err)
	}

	rep.Outcome = out.Kind
	rep.Text = a.compose(ctx, out, rep.Language, uc.Location)
	rep.InteractionID = a.record(ctx, env, uc, rep)
	return rep
}

// prepare validates the request and builds the user context. When done is
// true, out is final and routing is skipped.
func (a *Assistant) prepare(ctx context.Context, req ProcessRequest) (env domain.Envelope, uc domain.UserContext, out domain.Outcome, done bool) {
	now := req.Hints.ReceivedAt
	if now.IsZero() {
		now = a.now()
	}
	ch, _ := domain.ParseChannel(req.Channel)
	env = domain.NewEnvelope(a.clip(req.Text), ch, req.ChannelUserID, now)

	uc = domain.UserContext{
		Channel:  ch,
		Language: a.defaultLanguage(),
		Location: time.UTC,
		Now:      env.ReceivedAt,
	}
	if lang, ok := domain.ParseLanguage(req.Hints.Language); ok {
		uc.Language = lang
	}

	if ch == "" || env.ChannelUserID == "" {
		return env, uc, domain.Outcome{Kind: domain.OutcomeSystemError, Err: fmt.Errorf("invalid sender %q/%q", req.Channel, req.ChannelUserID)}, true
	}

	acct, err := a.Identity.Lookup(ctx, ch, env.ChannelUserID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return env, uc, domain.Outcome{Kind: domain.OutcomeUnregistered}, true
	case err != nil:
		return env, uc, domain.Outcome{Kind: domain.OutcomeSystemError, Err: fmt.Errorf("identity lookup: %w", err)}, true
	}

	uc = a.userContext(ctx, acct, env, req.Hints)
	if env.Text == "" {
		return env, uc, domain.Outcome{Kind: domain.OutcomeHelp}, true
	}
	return env, uc, domain.Outcome{}, false
}

// userContext snapshots the account for this request. Recent records are
// hints only, so failing to load them is logged and ignored.
func (a *Assistant) userContext(ctx context.Context, acct *domain.Account, env domain.Envelope, h Hints) domain.UserContext {
	uc := domain.UserContext{
		AccountID: acct.ID,
		Channel:   env.Channel,
		Language:  a.defaultLanguage(),
		Currency:  acct.Currency,
		Country:   acct.Country,
		Location:  time.UTC,
		Now:       env.ReceivedAt,
	}
	if lang, ok := domain.ParseLanguage(acct.Language); ok {
		uc.Language = lang
	}
	tz := acct.Timezone
	if strings.TrimSpace(h.Timezone) != "" {
		tz = h.Timezone
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		uc.Location = loc
	} else {
		a.Log.Warn().Str("timezone", tz).Msg("unknown timezone; using UTC")
	}

	since := env.ReceivedAt.AddDate(0, 0, -a.windowDays())
	recent, err := a.Store.Recent(ctx, acct.ID, since, a.recentLimit())
	if err != nil {
		a.Log.Warn().Err(err).Msg("recent records unavailable")
	}
	uc.Recent = recent
	return uc
}

// route classifies the message and runs the matching branch.
func (a *Assistant) route(ctx context.Context, env domain.Envelope, uc domain.UserContext) (domain.Classification, domain.Outcome) {
	cls, status := a.Router.Classify(ctx, env.Text, uc)
	if cls.Language == "" {
		cls.Language = uc.Language
	}
	if status == intent.Failed {
		return cls, domain.Outcome{Kind: domain.OutcomeSystemError, Err: ErrRoutingUnavailable}
	}

	switch cls.Intent {
	case domain.IntentExpense:
		return cls, a.saveExpense(ctx, env, uc)
	case domain.IntentReminder:
		return cls, a.saveReminder(ctx, env, uc)
	case domain.IntentSummary:
		sum, err := a.Store.QuerySummary(ctx, uc.AccountID, a.windowDays())
		if err != nil {
			return cls, domain.Outcome{Kind: domain.OutcomeSystemError, Err: fmt.Errorf("query summary: %w", err)}
		}
		return cls, domain.Outcome{Kind: domain.OutcomeSummary, Summary: sum}
	case domain.IntentGreeting:
		return cls, domain.Outcome{Kind: domain.OutcomeGreeting}
	default:
		return cls, domain.Outcome{Kind: domain.OutcomeHelp}
	}
}

func (a *Assistant) saveExpense(ctx context.Context, env domain.Envelope, uc domain.UserContext) domain.Outcome {
	p := a.Parser.Parse(ctx, parsing.Expense, env.Text, uc)
	if !p.OK() || p.Expense == nil {
		return domain.Outcome{Kind: domain.OutcomeClarify, Clarify: &p}
	}
	e, err := a.Store.SaveExpense(ctx, &domain.Expense{
		AccountID:   uc.AccountID,
		Amount:      p.Expense.Amount,
		Currency:    p.Expense.Currency,
		Description: p.Expense.Description,
		Category:    p.Expense.Category,
		Merchant:    p.Expense.Merchant,
		SpentAt:     env.ReceivedAt,
		Confidence:  p.Confidence,
		SourceText:  env.Text,
	})
	if err != nil {
		return domain.Outcome{Kind: domain.OutcomeSystemError, Err: fmt.Errorf("save expense: %w", err)}
	}
	return domain.Outcome{Kind: domain.OutcomeExpenseSaved, Expense: e}
}

func (a *Assistant) saveReminder(ctx context.Context, env domain.Envelope, uc domain.UserContext) domain.Outcome {
	p := a.Parser.Parse(ctx, parsing.Reminder, env.Text, uc)
	if !p.OK() || p.Reminder == nil {
		return domain.Outcome{Kind: domain.OutcomeClarify, Clarify: &p}
	}
	r, err := a.Store.SaveReminder(ctx, &domain.Reminder{
		AccountID:   uc.AccountID,
		Title:       p.Reminder.Title,
		Description: p.Reminder.Description,
		DueAt:       p.Reminder.DueAt,
		Priority:    p.Reminder.Priority,
		Type:        p.Reminder.Type,
		Confidence:  p.Confidence,
		SourceText:  env.Text,
	})
	if err != nil {
		return domain.Outcome{Kind: domain.OutcomeSystemError, Err: fmt.Errorf("save reminder: %w", err)}
	}
	return domain.Outcome{Kind: domain.OutcomeReminderSaved, Reminder: r}
}

// compose asks the composer for text and guarantees a non-empty reply.
func (a *Assistant) compose(ctx context.Context, out domain.Outcome, lang domain.Language, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	if a.Composer != nil {
		if s := strings.TrimSpace(a.Composer.Compose(ctx, out, lang, loc)); s != "" {
			return s
		}
	}
	return compose.Fallback(out, lang, loc)
}

// record journals the interaction and returns its ID, or "" when no journal
// is configured or the write failed.
func (a *Assistant) record(ctx context.Context, env domain.Envelope, uc domain.UserContext, rep Reply) string {
	if a.Journal == nil || env.Channel == "" || env.ChannelUserID == "" {
		return ""
	}
	in := &domain.Interaction{
		AccountID:     uc.AccountID,
		Channel:       string(env.Channel),
		ChannelUserID: env.ChannelUserID,
		Text:          env.Text,
		Intent:        string(rep.Intent),
		Confidence:    rep.Confidence,
		Outcome:       string(rep.Outcome),
		Reply:         rep.Text,
		CreatedAt:     env.ReceivedAt,
	}
	if err := a.Journal.Record(ctx, in); err != nil {
		a.Log.Warn().Err(err).Msg("interaction not recorded")
		return ""
	}
	return in.ID
}

func (a *Assistant) clip(text string) string {
	if a.MaxMessageRunes > 0 && utf8.RuneCountInString(text) > a.MaxMessageRunes {
		return string([]rune(text)[:a.MaxMessageRunes])
	}
	return text
}

func (a *Assistant) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Assistant) defaultLanguage() domain.Language {
	if a.DefaultLanguage != "" {
		return a.DefaultLanguage
	}
	return domain.LangEnglish
}

func (a *Assistant) windowDays() int {
	if a.RecentWindowDays > 0 {
		return a.RecentWindowDays
	}
	return 30
}

func (a *Assistant) recentLimit() int {
	if a.RecentLimit > 0 {
		return a.RecentLimit
	}
	return 5
}
