package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the variant held by a Parsed value.
type Kind string

const (
	KindExpense  Kind = "expense"
	KindReminder Kind = "reminder"
)

// ParsedExpense is the expense-shaped extraction result.
type ParsedExpense struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	Category    string
	Merchant    string
}

// ParsedReminder is the reminder-shaped extraction result. DueAt carries the
// user's location.
type ParsedReminder struct {
	Title       string
	Description string
	DueAt       time.Time
	Priority    string
	Type        string
}

// Parsed is the tagged output of a domain parser. Exactly one of Expense or
// Reminder is set, matching Kind.
//
// A value is either complete (NeedsClarification empty) or names every
// missing or invalid field in NeedsClarification; it is never silently
// incomplete.
type Parsed struct {
	Kind               Kind
	Expense            *ParsedExpense
	Reminder           *ParsedReminder
	Confidence         float64
	Language           Language
	NeedsClarification []string
}

// OK reports whether the parse is complete and may be stored.
func (p Parsed) OK() bool { return len(p.NeedsClarification) == 0 }
