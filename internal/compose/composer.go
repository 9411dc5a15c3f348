// Package compose is the single place where a structured outcome becomes
// user-facing text. Replies are phrased by the model when it is reachable
// and fall back to deterministic localized templates otherwise, so every
// outcome, including an unreachable backend, ends in a readable reply.
package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/llm"
	"github.com/tbourn/go-assistant-backend/internal/llm/resilient"
)

// Completer is the slice of the resilient call layer the composer needs.
type Completer interface {
	Call(ctx context.Context, msgs []llm.Message, opts resilient.CallOptions) resilient.Result
}

// DefaultTimeout bounds each composition attempt; replies are short.
const DefaultTimeout = 10 * time.Second

// maxReplyRunes caps generated replies; longer ones fall back to templates.
const maxReplyRunes = 600

// Composer turns outcomes into replies.
type Composer struct {
	LLM     Completer
	Log     zerolog.Logger
	Timeout time.Duration
}

// NewComposer returns a Composer with the short composition timeout.
func NewComposer(c Completer, log zerolog.Logger) *Composer {
	return &Composer{LLM: c, Log: log, Timeout: DefaultTimeout}
}

var languageNames = map[domain.Language]string{
	domain.LangEnglish:    "English",
	domain.LangSpanish:    "Spanish",
	domain.LangPortuguese: "Portuguese",
}

// Compose returns the reply for out in lang. Times are shown in loc. It never
// returns an empty string.
func (c *Composer) Compose(ctx context.Context, out domain.Outcome, lang domain.Language, loc *time.Location) string {
	ctx, span := otel.Tracer("compose/Composer").Start(ctx, "Compose",
		trace.WithAttributes(
			attribute.String("outcome.kind", string(out.Kind)),
			attribute.String("reply.language", string(lang)),
		),
	)
	defer span.End()

	lang = supported(lang)
	draft := Fallback(out, lang, loc)
	if c.LLM == nil {
		return draft
	}

	res := c.LLM.Call(ctx, c.messages(out, lang, draft), resilient.CallOptions{
		Timeout:    c.Timeout,
		NoCache:    true,
		Generation: &llm.Options{Temperature: 0.6, MaxTokens: 200},
	})
	if !res.OK {
		span.SetAttributes(attribute.Bool("reply.templated", true))
		return draft
	}
	reply := strings.TrimSpace(res.Text)
	if !keepsFacts(reply, out, lang) || len([]rune(reply)) > maxReplyRunes {
		c.Log.Debug().Str("outcome", string(out.Kind)).Msg("generated reply dropped facts; using template")
		span.SetAttributes(attribute.Bool("reply.templated", true))
		return draft
	}
	span.SetAttributes(attribute.Bool("reply.templated", false))
	return reply
}

func (c *Composer) messages(out domain.Outcome, lang domain.Language, draft string) []llm.Message {
	var sb strings.Builder
	sb.WriteString("You are a friendly personal finance and reminders assistant replying in a chat.\n")
	fmt.Fprintf(&sb, "Reply in %s, in at most two short sentences, with no markdown.\n", languageNames[lang])
	sb.WriteString("Rewrite the draft below naturally. Keep every amount, name and date exactly as written in the draft. ")
	switch out.Kind {
	case domain.OutcomeClarify:
		sb.WriteString("Ask for the missing details and keep the example.\n")
	case domain.OutcomeSystemError:
		sb.WriteString("Apologize and suggest trying again. Do not mention technical details.\n")
	case domain.OutcomeUnregistered:
		sb.WriteString("Explain that the user must register first.\n")
	default:
		sb.WriteString("\n")
	}
	return []llm.Message{llm.System(sb.String()), llm.User("Draft: " + draft)}
}

// keepsFacts reports whether a generated reply still carries the facts the
// user must see for out.
func keepsFacts(reply string, out domain.Outcome, lang domain.Language) bool {
	if reply == "" {
		return false
	}
	for _, want := range facts(out, lang) {
		if !strings.Contains(strings.ToLower(reply), strings.ToLower(want)) {
			return false
		}
	}
	return true
}

func facts(out domain.Outcome, lang domain.Language) []string {
	switch out.Kind {
	case domain.OutcomeExpenseSaved:
		if e := out.Expense; e != nil {
			return []string{FormatMoney(e.Amount, e.Currency, lang), e.Description}
		}
	case domain.OutcomeReminderSaved:
		if r := out.Reminder; r != nil {
			return []string{r.Title}
		}
	case domain.OutcomeSummary:
		if s := out.Summary; s != nil {
			var fs []string
			for _, t := range s.Totals {
				fs = append(fs, FormatMoney(t.Amount, t.Currency, lang))
			}
			return fs
		}
	}
	return nil
}
