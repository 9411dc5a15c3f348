package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutcomeKind enumerates the structured results the composer turns into text.
type OutcomeKind string

const (
	OutcomeExpenseSaved  OutcomeKind = "expense_saved"
	OutcomeReminderSaved OutcomeKind = "reminder_saved"
	OutcomeSummary       OutcomeKind = "summary"
	OutcomeClarify       OutcomeKind = "clarify"
	OutcomeGreeting      OutcomeKind = "greeting"
	OutcomeHelp          OutcomeKind = "help"
	OutcomeUnregistered  OutcomeKind = "unregistered"
	OutcomeSystemError   OutcomeKind = "system_error"
)

// Outcome is the single result variant threaded from the pipeline to the
// composer. Only the field matching Kind is meaningful.
type Outcome struct {
	Kind     OutcomeKind
	Expense  *Expense
	Reminder *Reminder
	Summary  *Summary
	// Clarify names the domain and missing fields of an incomplete parse.
	Clarify *Parsed
	// Err is the collaborator failure behind OutcomeSystemError; never shown.
	Err error
}

// CategoryTotal is the spend of one category within a currency.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// CurrencyTotal aggregates expenses sharing a currency.
type CurrencyTotal struct {
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Categories []CategoryTotal `json:"categories"`
}

// Summary is the storage collaborator's answer to a summary query.
type Summary struct {
	AccountID        string          `json:"account_id"`
	WindowDays       int             `json:"window_days"`
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	Totals           []CurrencyTotal `json:"totals"`
	PendingReminders int             `json:"pending_reminders"`
}
