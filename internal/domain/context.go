package domain

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Language is a supported reply language.
type Language string

const (
	LangEnglish    Language = "en"
	LangSpanish    Language = "es"
	LangPortuguese Language = "pt"
)

// Languages lists every supported language; the first entry is the fallback.
var Languages = []Language{LangEnglish, LangSpanish, LangPortuguese}

var langMatcher = language.NewMatcher([]language.Tag{
	language.English, language.Spanish, language.Portuguese,
})

// ParseLanguage maps a BCP 47 tag or loose name ("es-MX", "Spanish", "pt_BR")
// to a supported language.
func ParseLanguage(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return "", false
	case "english":
		return LangEnglish, true
	case "spanish", "español", "espanol":
		return LangSpanish, true
	case "portuguese", "português", "portugues":
		return LangPortuguese, true
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return "", false
	}
	_, idx, conf := langMatcher.Match(tag)
	if conf == language.No {
		return "", false
	}
	return Languages[idx], true
}

// Tag returns the x/text language tag for l, defaulting to English.
func (l Language) Tag() language.Tag {
	switch l {
	case LangSpanish:
		return language.Spanish
	case LangPortuguese:
		return language.Portuguese
	default:
		return language.English
	}
}

// RecentRecord is a prior domain record shown to the parser as a hint.
type RecentRecord struct {
	Kind    Kind
	Summary string
	At      time.Time
}

// UserContext is the per-request snapshot of who is talking and how to treat
// them. It is rebuilt for every message and never cached across requests.
type UserContext struct {
	// AccountID is empty for unregistered senders.
	AccountID string
	Channel   Channel
	Language  Language
	Currency  string
	Country   string
	Location  *time.Location
	Now       time.Time

	// Recent holds hint data only; parsers must not treat it as ground truth.
	Recent []RecentRecord
}

// Registered reports whether the sender resolved to an account.
func (u UserContext) Registered() bool { return u.AccountID != "" }

// LocalNow returns Now in the user's timezone.
func (u UserContext) LocalNow() time.Time {
	if u.Location == nil {
		return u.Now.UTC()
	}
	return u.Now.In(u.Location)
}

// TimezoneName returns the IANA name of the user's timezone.
func (u UserContext) TimezoneName() string {
	if u.Location == nil {
		return "UTC"
	}
	return u.Location.String()
}
