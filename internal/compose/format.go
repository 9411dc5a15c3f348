package compose

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// symbols maps currency codes to the symbol used in each reply language.
// Codes absent here are rendered as the ISO code itself.
var symbols = map[domain.Language]map[string]string{
	domain.LangEnglish: {
		"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥", "CAD": "CA$", "AUD": "A$",
		"BRL": "R$", "MXN": "MX$", "CHF": "CHF",
	},
	domain.LangSpanish: {
		"USD": "US$", "EUR": "€", "GBP": "£", "JPY": "¥", "MXN": "MX$", "ARS": "ARS$",
		"COP": "COL$", "CLP": "CLP$", "PEN": "S/", "UYU": "$U", "BRL": "R$",
	},
	domain.LangPortuguese: {
		"USD": "US$", "EUR": "€", "GBP": "£", "JPY": "¥", "BRL": "R$",
	},
}

// FormatMoney renders amount in code for lang: "$4.50" in English,
// "US$ 4,50" in Spanish and "R$ 4,50" in Portuguese. The number of decimals
// follows the currency's standard minor unit.
func FormatMoney(amount decimal.Decimal, code string, lang domain.Language) string {
	code = strings.ToUpper(code)
	scale := 2
	if unit, err := currency.ParseISO(code); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}
	f, _ := amount.Round(int32(scale)).Float64()
	p := message.NewPrinter(lang.Tag())
	num := p.Sprint(number.Decimal(f, number.Scale(scale)))

	sym, ok := symbols[lang][code]
	if !ok {
		sym = code
	}
	if lang == domain.LangEnglish || lang == "" {
		if len(sym) == 3 && sym == code {
			return sym + " " + num
		}
		return sym + num
	}
	return sym + " " + num
}

// FormatDateTime renders t in loc with the conventions of lang.
func FormatDateTime(t time.Time, loc *time.Location, lang domain.Language) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	switch lang {
	case domain.LangSpanish:
		return t.Format("02/01/2006 15:04")
	case domain.LangPortuguese:
		return t.Format("02/01/2006") + " às " + t.Format("15:04")
	default:
		return t.Format("Mon, Jan 2, 2006 at 3:04 PM")
	}
}
