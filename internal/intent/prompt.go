package intent

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/llm"
)

// descriptions gives the model one line per permissible intent.
var descriptions = map[domain.Intent]string{
	domain.IntentExpense:  "the user reports money they spent",
	domain.IntentReminder: "the user wants to be reminded of something at a time",
	domain.IntentSummary:  "the user asks for totals, a report or an overview of spending",
	domain.IntentGreeting: "a hello, thanks or small talk with no request",
	domain.IntentHelp:     "the user asks what the assistant can do or how to use it",
	domain.IntentGeneral:  "anything else, including unclear or unreadable text",
}

var examples = []struct {
	text   string
	intent domain.Intent
}{
	{"Coffee $4.50", domain.IntentExpense},
	{"Gasté 30 euros en el supermercado", domain.IntentExpense},
	{"Remind me to call mom tomorrow at 3pm", domain.IntentReminder},
	{"Lembre-me de pagar a conta de luz sexta", domain.IntentReminder},
	{"How much did I spend this month?", domain.IntentSummary},
	{"Hi there!", domain.IntentGreeting},
	{"What can you do?", domain.IntentHelp},
	{"asdkjASD", domain.IntentGeneral},
}

var languageNames = map[domain.Language]string{
	domain.LangEnglish:    "English",
	domain.LangSpanish:    "Spanish",
	domain.LangPortuguese: "Portuguese",
}

// buildMessages renders the classification request for text.
func buildMessages(text string, uc domain.UserContext) []llm.Message {
	var sb strings.Builder
	sb.WriteString("You classify messages sent to a personal finance and reminders assistant.\n")
	fmt.Fprintf(&sb, "The user's preferred language is %s; messages may be in English, Spanish or Portuguese.\n\n", languageNames[uc.Language])
	sb.WriteString("Permissible intents:\n")
	for _, in := range domain.Intents {
		fmt.Fprintf(&sb, "- %s: %s\n", in, descriptions[in])
	}
	sb.WriteString("\nExamples:\n")
	for _, ex := range examples {
		fmt.Fprintf(&sb, "%q -> %s\n", ex.text, ex.intent)
	}
	sb.WriteString("\nRespond with exactly one JSON object and nothing else:\n")
	sb.WriteString(`{"intent": string, "confidence": number 0-1, "reasoning": string, "language": "en"|"es"|"pt"}`)
	return []llm.Message{llm.System(sb.String()), llm.User(text)}
}
