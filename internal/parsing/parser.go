// Package parsing turns free-text messages into validated domain objects.
// One extraction pipeline serves every record kind; a Domain value supplies
// the fields, prompt and assembly for each. The validation stage enforces
// required fields, substitutes safe defaults for closed value sets, and
// resolves times against the caller's clock before anything can be stored.
package parsing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/llm"
	"github.com/tbourn/go-assistant-backend/internal/llm/resilient"
)

// Completer is the slice of the resilient call layer the parser needs.
type Completer interface {
	Call(ctx context.Context, msgs []llm.Message, opts resilient.CallOptions) resilient.Result
}

// DefaultConfidence is assumed when the model omits confidence.
const DefaultConfidence = 0.8

// Parser runs extraction calls and the validation stage.
type Parser struct {
	LLM Completer
	Log zerolog.Logger

	// Timeout bounds each extraction attempt. Zero defers to the call
	// layer's configured timeout.
	Timeout time.Duration
}

// NewParser returns a Parser that uses the call layer's timeout.
func NewParser(c Completer, log zerolog.Logger) *Parser {
	return &Parser{LLM: c, Log: log}
}

// envelope carries the fields shared by every domain.
type envelope struct {
	Confidence llm.Number `json:"confidence"`
	Language   string     `json:"language"`
}

// Parse extracts one d-shaped object from text. The result is either
// complete or lists every missing field in NeedsClarification; a backend
// that cannot be reached or answers without JSON yields a result asking for
// all required fields.
func (p *Parser) Parse(ctx context.Context, d *Domain, text string, uc domain.UserContext) domain.Parsed {
	ctx, span := otel.Tracer("parsing/Parser").Start(ctx, "Parse",
		trace.WithAttributes(attribute.String("parse.kind", string(d.Kind))),
	)
	defer span.End()

	unusable := domain.Parsed{Kind: d.Kind, Language: uc.Language, NeedsClarification: d.Required()}

	res := p.LLM.Call(ctx, d.Prompt(text, uc), resilient.CallOptions{
		Timeout:    p.Timeout,
		Generation: &llm.Options{Temperature: 0.1, MaxTokens: 400},
	})
	if !res.OK {
		p.Log.Warn().Str("kind", string(d.Kind)).Int("attempts", res.Attempts).Msg("extraction unavailable")
		span.SetAttributes(attribute.Bool("parse.ok", false))
		return unusable
	}

	var raw map[string]json.RawMessage
	if err := llm.DecodeJSON(res.Text, &raw); err != nil {
		p.Log.Warn().Err(err).Str("kind", string(d.Kind)).Msg("extraction unparseable")
		span.SetAttributes(attribute.Bool("parse.ok", false))
		return unusable
	}

	out := Validate(d, raw, uc)
	span.SetAttributes(
		attribute.Bool("parse.ok", out.OK()),
		attribute.StringSlice("parse.needs_clarification", out.NeedsClarification),
		attribute.Float64("parse.confidence", out.Confidence),
	)
	return out
}

// Validate is the validation stage on its own: it repairs or rejects one raw
// extraction for domain d.
func Validate(d *Domain, raw map[string]json.RawMessage, uc domain.UserContext) domain.Parsed {
	vals, missing := validate(d.Fields, raw, uc)

	var env envelope
	if b, ok := raw["confidence"]; ok {
		_ = json.Unmarshal(b, &env.Confidence)
	}
	env.Language = rawString(raw["language"])

	lang := uc.Language
	if l, ok := domain.ParseLanguage(env.Language); ok {
		lang = l
	}

	if len(missing) > 0 {
		return domain.Parsed{
			Kind:               d.Kind,
			Confidence:         domain.ClampConfidence(env.Confidence.Float(DefaultConfidence)),
			Language:           lang,
			NeedsClarification: missing,
		}
	}

	out := d.Assemble(vals, uc)
	out.Confidence = domain.ClampConfidence(env.Confidence.Float(DefaultConfidence))
	out.Language = lang
	if err := d.checkShape(out); err != nil {
		return domain.Parsed{Kind: d.Kind, Confidence: out.Confidence, Language: lang, NeedsClarification: d.Required()}
	}
	return out
}
