package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// RedactOptions configures what the access log scrubs.
//
// MaskHeaders names extra headers whose values are replaced with
// "[REDACTED]". Matching is case-insensitive and merged with the built-in
// set: Authorization, Cookie, Set-Cookie and X-User-ID (channel user ids are
// phone numbers on some channels).
type RedactOptions struct {
	MaskHeaders []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so the hex segments of a UUID never match.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

type redactor struct {
	masked map[string]struct{}
}

func newRedactor(opts RedactOptions) redactor {
	masked := make(map[string]struct{})
	for _, h := range append([]string{"Authorization", "Cookie", "Set-Cookie", HeaderUserID}, opts.MaskHeaders...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}
	return redactor{masked: masked}
}

// text replaces ids, emails and phone numbers in s. UUIDs go first: the
// phone pattern would otherwise eat their digit runs.
func (r redactor) text(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// headers returns a flattened, scrubbed copy of h.
func (r redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.masked[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.text(strings.Join(vv, ", "))
	}
	return out
}
