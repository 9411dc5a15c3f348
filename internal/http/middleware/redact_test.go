package middleware

import (
	"net/http"
	"testing"
)

func TestRedactor_Text(t *testing.T) {
	r := newRedactor(RedactOptions{})

	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"spent 12.50 on lunch", "spent 12.50 on lunch"},
		{"call 555-123-4567 or mail a@b.com", "call [REDACTED:phone] or mail [REDACTED:email]"},
		{"id=123e4567-e89b-12d3-a456-426614174000", "id=[REDACTED:id]"},
	}
	for _, tc := range cases {
		if got := r.text(tc.in); got != tc.want {
			t.Errorf("text(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactor_Headers(t *testing.T) {
	r := newRedactor(RedactOptions{MaskHeaders: []string{" x-api-key ", ""}})

	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("Cookie", "sid=1")
	h.Set(HeaderUserID, "+306900000000")
	h.Set("X-Api-Key", "shhh")
	h.Set(HeaderChannel, "whatsapp")
	h.Add("X-Note", "a@b.com")
	h.Add("X-Note", "plain")

	got := r.headers(h)
	for _, k := range []string{"Authorization", "Cookie", HeaderUserID, "X-Api-Key"} {
		if got[k] != "[REDACTED]" {
			t.Errorf("%s = %q; want masked", k, got[k])
		}
	}
	if got[HeaderChannel] != "whatsapp" {
		t.Errorf("channel header = %q", got[HeaderChannel])
	}
	if got["X-Note"] != "[REDACTED:email], plain" {
		t.Errorf("X-Note = %q", got["X-Note"])
	}
}
