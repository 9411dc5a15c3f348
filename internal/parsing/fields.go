package parsing

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/llm"
)

// FieldKind selects the validation rule applied to a field.
type FieldKind int

const (
	// FieldText is free text; required text must be non-blank.
	FieldText FieldKind = iota
	// FieldAmount is a strictly positive decimal.
	FieldAmount
	// FieldEnum is a closed value set with a substitute for unknown values.
	FieldEnum
	// FieldDateTime is a wall-clock time in the user's timezone, assumed
	// prospective.
	FieldDateTime
)

// Field describes one extracted attribute of a domain object.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
	// Enum is the closed value set for FieldEnum, in canonical spelling.
	Enum []string
	// Default substitutes unknown or absent enum values.
	Default func(uc domain.UserContext) string
	// MaxLen clips text fields by rune count; 0 disables clipping.
	MaxLen int
	// Currency names the enum field whose ISO code sets the minor unit a
	// FieldAmount is rounded to before its positivity check.
	Currency string
}

// Values holds validated field values keyed by field name.
type Values map[string]any

// String returns a text or enum value.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Decimal returns an amount value.
func (v Values) Decimal(name string) decimal.Decimal {
	d, _ := v[name].(decimal.Decimal)
	return d
}

// Time returns a date-time value.
func (v Values) Time(name string) time.Time {
	t, _ := v[name].(time.Time)
	return t
}

// pastTolerance is how far in the past a resolved time may lie before it is
// moved to the next occurrence of the same clock time.
const pastTolerance = time.Hour

// validate applies the field rules to one raw extraction. It returns the
// repaired values and, in field order, the names of required fields that
// are missing or invalid.
func validate(fields []Field, raw map[string]json.RawMessage, uc domain.UserContext) (Values, []string) {
	vals := make(Values, len(fields))
	for _, f := range fields {
		if v, ok := validateField(f, raw[f.Name], uc); ok {
			vals[f.Name] = v
		}
	}
	// 0.4 JPY rounds to nothing and must fail as an amount.
	for _, f := range fields {
		d, ok := vals[f.Name].(decimal.Decimal)
		if !ok || f.Kind != FieldAmount || f.Currency == "" {
			continue
		}
		if d = RoundAmount(d, vals.String(f.Currency)); d.IsPositive() {
			vals[f.Name] = d
		} else {
			delete(vals, f.Name)
		}
	}
	var missing []string
	for _, f := range fields {
		if _, ok := vals[f.Name]; !ok && f.Required {
			missing = append(missing, f.Name)
		}
	}
	return vals, missing
}

func validateField(f Field, raw json.RawMessage, uc domain.UserContext) (any, bool) {
	switch f.Kind {
	case FieldAmount:
		var n llm.Number
		if len(raw) == 0 || json.Unmarshal(raw, &n) != nil || !n.Set {
			return nil, false
		}
		d, err := decimal.NewFromString(n.Raw)
		if err != nil || !d.IsPositive() {
			return nil, false
		}
		return d, true

	case FieldEnum:
		if v, ok := matchEnum(f.Enum, rawString(raw)); ok {
			return v, true
		}
		if f.Default != nil {
			return f.Default(uc), true
		}
		return nil, false

	case FieldDateTime:
		t, ok := parseLocalTime(rawString(raw), uc.Location)
		if !ok {
			return nil, false
		}
		return prospective(t, uc.LocalNow()), true

	default:
		s := strings.Join(strings.Fields(rawString(raw)), " ")
		if s == "" {
			return nil, false
		}
		if f.MaxLen > 0 && utf8.RuneCountInString(s) > f.MaxLen {
			s = string([]rune(s)[:f.MaxLen])
		}
		return s, true
	}
}

// rawString reads a JSON string; numbers and other scalars are rendered as
// their literal text, and null or absent values yield "".
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	lit := strings.TrimSpace(string(raw))
	if lit == "null" || strings.HasPrefix(lit, "{") || strings.HasPrefix(lit, "[") {
		return ""
	}
	return lit
}

// matchEnum finds s in set ignoring case, punctuation and "and"/"&".
func matchEnum(set []string, s string) (string, bool) {
	if s == "" {
		return "", false
	}
	key := enumKey(s)
	for _, v := range set {
		if enumKey(v) == key {
			return v, true
		}
	}
	return "", false
}

func enumKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " and ", " & ")
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '&' {
			return r
		}
		return -1
	}, s)
}

// Layouts accepted for date-times, most specific first. Zoned layouts are
// converted into the user's location; the rest are read as wall-clock time
// in that location.
var (
	zonedLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04Z07:00"}
	localLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}
	dateOnly = "2006-01-02"
)

// defaultHour is applied to date-only answers.
const defaultHour = 9

func parseLocalTime(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range zonedLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.In(loc), true
		}
	}
	for _, l := range localLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.ParseInLocation(dateOnly, s, loc); err == nil {
		return t.Add(defaultHour * time.Hour), true
	}
	return time.Time{}, false
}

// prospective moves t forward by whole days until it is in the future when
// it lies more than pastTolerance before now. Natural-language times are
// read as upcoming ones.
func prospective(t, now time.Time) time.Time {
	if !t.Before(now.Add(-pastTolerance)) {
		return t
	}
	if days := int(now.Sub(t).Hours() / 24); days > 0 {
		t = t.AddDate(0, 0, days)
	}
	for !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
