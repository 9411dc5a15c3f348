package parsing

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/llm"
)

// Categories is the closed set of expense categories.
var Categories = []string{
	"Food & Dining", "Transportation", "Shopping", "Entertainment", "Bills & Utilities",
	"Healthcare", "Travel", "Education", "Groceries", "Other",
}

// DefaultCategory substitutes unrecognized categories.
const DefaultCategory = "Other"

//go:embed schemas/expense.json
var expenseSchema []byte

// Expense is the expense extraction domain.
var Expense = &Domain{
	Kind: domain.KindExpense,
	Fields: []Field{
		{Name: "amount", Kind: FieldAmount, Required: true, Currency: "currency"},
		{Name: "currency", Kind: FieldEnum, Required: true, Enum: Currencies, Default: AccountCurrency},
		{Name: "description", Kind: FieldText, Required: true, MaxLen: 255},
		{Name: "category", Kind: FieldEnum, Required: true, Enum: Categories,
			Default: func(domain.UserContext) string { return DefaultCategory }},
		{Name: "merchant", Kind: FieldText, MaxLen: 128},
	},
	Prompt:   expensePrompt,
	Assemble: assembleExpense,
	Document: expenseDocument,
	schema:   mustSchema(expenseSchema),
}

func assembleExpense(v Values, _ domain.UserContext) domain.Parsed {
	cur := v.String("currency")
	return domain.Parsed{
		Kind: domain.KindExpense,
		Expense: &domain.ParsedExpense{
			Amount:      v.Decimal("amount"),
			Currency:    cur,
			Description: v.String("description"),
			Category:    v.String("category"),
			Merchant:    v.String("merchant"),
		},
	}
}

func expenseDocument(p domain.Parsed) any {
	e := p.Expense
	doc := map[string]any{
		"amount":      json.Number(e.Amount.String()),
		"currency":    e.Currency,
		"description": e.Description,
		"category":    e.Category,
		"confidence":  p.Confidence,
	}
	if e.Merchant != "" {
		doc["merchant"] = e.Merchant
	}
	return doc
}

func expensePrompt(text string, uc domain.UserContext) []llm.Message {
	var sb strings.Builder
	sb.WriteString("You extract a single expense from a user's message.\n")
	fmt.Fprintf(&sb, "Current time: %s (%s). Account currency: %s.\n\n",
		uc.LocalNow().Format("2006-01-02 15:04"), uc.TimezoneName(), AccountCurrency(uc))
	fmt.Fprintf(&sb, "currency must be one of: %s. Map symbols to codes ($ usually means the account currency, € EUR, £ GBP, R$ BRL).\n", strings.Join(Currencies, ", "))
	fmt.Fprintf(&sb, "category must be one of: %s.\n", strings.Join(Categories, ", "))
	sb.WriteString("Use null for anything the message does not state. Never invent an amount.\n")
	writeRecent(&sb, uc, domain.KindExpense)
	sb.WriteString("\nExamples:\n")
	sb.WriteString(`"Coffee $4.50" -> {"amount":4.50,"currency":"USD","description":"Coffee","category":"Food & Dining","merchant":null,"confidence":0.95,"language":"en"}` + "\n")
	sb.WriteString(`"Uber al aeropuerto 23 euros" -> {"amount":23,"currency":"EUR","description":"Uber al aeropuerto","category":"Transportation","merchant":"Uber","confidence":0.9,"language":"es"}` + "\n")
	sb.WriteString(`"Coffee" -> {"amount":null,"currency":null,"description":"Coffee","category":"Food & Dining","merchant":null,"confidence":0.4,"language":"en"}` + "\n")
	sb.WriteString("\nRespond with exactly one JSON object with keys amount, currency, description, category, merchant, confidence, language.")
	return []llm.Message{llm.System(sb.String()), llm.User(text)}
}

// writeRecent appends recent records of kind as hints only.
func writeRecent(sb *strings.Builder, uc domain.UserContext, kind domain.Kind) {
	var lines []string
	for _, r := range uc.Recent {
		if r.Kind == kind {
			lines = append(lines, "- "+r.Summary)
		}
	}
	if len(lines) == 0 {
		return
	}
	sb.WriteString("Recent entries by this user (hints only; do not copy values from them):\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n")
}
