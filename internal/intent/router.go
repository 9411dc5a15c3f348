// Package intent assigns one of a closed set of intents to an incoming
// message. The model's answer is never trusted as-is: unknown intents and
// low confidence degrade to the general intent, and only a completely
// unusable answer is reported as a failure.
package intent

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/llm"
	"github.com/tbourn/go-assistant-backend/internal/llm/resilient"
)

// Completer is the slice of the resilient call layer the router needs.
type Completer interface {
	Call(ctx context.Context, msgs []llm.Message, opts resilient.CallOptions) resilient.Result
}

// Status is the terminal state of one classification.
type Status int

const (
	// Classified means the model named a known intent with enough confidence.
	Classified Status = iota
	// Defaulted means the answer was usable but coerced to the general intent.
	Defaulted
	// Failed means no parseable answer came back at all.
	Failed
)

func (s Status) String() string {
	switch s {
	case Classified:
		return "classified"
	case Defaulted:
		return "defaulted"
	default:
		return "failed"
	}
}

const (
	// DefaultMinConfidence is the floor below which a non-general intent is
	// demoted to general.
	DefaultMinConfidence = 0.4
	// missingConfidence is assumed when the model omits the field.
	missingConfidence = 0.8
)

// Router classifies messages through a Completer.
type Router struct {
	LLM           Completer
	Log           zerolog.Logger
	MinConfidence float64
	Timeout       time.Duration
}

// NewRouter returns a Router with the default confidence floor.
func NewRouter(c Completer, log zerolog.Logger) *Router {
	return &Router{LLM: c, Log: log, MinConfidence: DefaultMinConfidence}
}

type answer struct {
	Intent     string     `json:"intent"`
	Confidence llm.Number `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
	Language   string     `json:"language"`
}

// Classify returns the classification for text and how it was reached. It
// never panics or errors; on Failed the classification carries the general
// intent with zero confidence and the context language.
func (r *Router) Classify(ctx context.Context, text string, uc domain.UserContext) (domain.Classification, Status) {
	ctx, span := otel.Tracer("intent/Router").Start(ctx, "Classify",
		trace.WithAttributes(attribute.String("user.language", string(uc.Language))),
	)
	defer span.End()

	fallback := domain.Classification{Intent: domain.DefaultIntent, Language: uc.Language}

	res := r.LLM.Call(ctx, buildMessages(text, uc), resilient.CallOptions{
		Timeout:    r.Timeout,
		Generation: &llm.Options{Temperature: 0.1, MaxTokens: 200},
	})
	if !res.OK {
		span.SetAttributes(attribute.String("intent.status", Failed.String()))
		r.Log.Warn().Int("attempts", res.Attempts).Msg("intent classification unavailable")
		return fallback, Failed
	}

	var a answer
	if err := llm.DecodeJSON(res.Text, &a); err != nil {
		span.SetAttributes(attribute.String("intent.status", Failed.String()))
		r.Log.Warn().Err(err).Msg("intent classification unparseable")
		return fallback, Failed
	}

	out := domain.Classification{
		Confidence: domain.ClampConfidence(a.Confidence.Float(missingConfidence)),
		Reasoning:  a.Reasoning,
		Language:   uc.Language,
	}
	if lang, ok := domain.ParseLanguage(a.Language); ok {
		out.Language = lang
	}

	status := Classified
	in, ok := domain.ParseIntent(a.Intent)
	switch {
	case !ok:
		out.Intent = domain.DefaultIntent
		out.Confidence = domain.DefaultIntentConfidence
		status = Defaulted
	case in != domain.IntentGeneral && out.Confidence < r.minConfidence():
		out.Intent = domain.DefaultIntent
		status = Defaulted
	default:
		out.Intent = in
	}

	span.SetAttributes(
		attribute.String("intent.name", string(out.Intent)),
		attribute.Float64("intent.confidence", out.Confidence),
		attribute.String("intent.status", status.String()),
	)
	r.Log.Debug().Str("intent", string(out.Intent)).Float64("confidence", out.Confidence).
		Str("status", status.String()).Msg("intent classified")
	return out, status
}

func (r *Router) minConfidence() float64 {
	if r.MinConfidence > 0 {
		return r.MinConfidence
	}
	return DefaultMinConfidence
}
