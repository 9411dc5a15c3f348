package parsing

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// Currencies is the closed set of ISO 4217 codes the assistant records.
var Currencies = []string{
	"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF",
	"BRL", "MXN", "ARS", "COP", "CLP", "PEN", "UYU",
}

// FallbackCurrency is used when neither the message nor the account names a
// usable currency.
const FallbackCurrency = "USD"

// AccountCurrency returns the account's currency when it is a valid code in
// the closed set, else FallbackCurrency.
func AccountCurrency(uc domain.UserContext) string {
	if c, ok := NormalizeCurrency(uc.Currency); ok {
		return c
	}
	return FallbackCurrency
}

// NormalizeCurrency upper-cases s and reports whether it is a recognized
// ISO 4217 code in Currencies.
func NormalizeCurrency(s string) (string, bool) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return "", false
	}
	code := unit.String()
	for _, c := range Currencies {
		if c == code {
			return code, true
		}
	}
	return "", false
}

// RoundAmount rounds d to the standard minor-unit scale of code, e.g. two
// places for USD and none for JPY or CLP.
func RoundAmount(d decimal.Decimal, code string) decimal.Decimal {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return d.Round(2)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return d.Round(int32(scale))
}
