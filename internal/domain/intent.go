package domain

import "strings"

// Intent is the closed-set purpose of a message.
type Intent string

const (
	IntentExpense  Intent = "expense"
	IntentReminder Intent = "reminder"
	IntentSummary  Intent = "summary"
	IntentGreeting Intent = "greeting"
	IntentHelp     Intent = "help"
	IntentGeneral  Intent = "general"
)

// Intents lists every permissible intent in prompt order.
var Intents = []Intent{IntentExpense, IntentReminder, IntentSummary, IntentGreeting, IntentHelp, IntentGeneral}

const (
	// DefaultIntent replaces any intent outside the closed set.
	DefaultIntent = IntentGeneral
	// DefaultIntentConfidence is forced onto coerced classifications.
	DefaultIntentConfidence = 0.3
)

// ParseIntent reports whether s names an intent in the closed set.
func ParseIntent(s string) (Intent, bool) {
	in := Intent(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Intents {
		if in == known {
			return in, true
		}
	}
	return "", false
}

// Classification is the router's verdict for one message.
type Classification struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Language   Language `json:"language"`
}

// ClampConfidence confines x to [0,1].
func ClampConfidence(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
