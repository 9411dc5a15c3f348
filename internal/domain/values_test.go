package domain

import (
	"testing"
	"time"
)

func TestParseChannel(t *testing.T) {
	cases := []struct {
		in   string
		want Channel
		ok   bool
	}{
		{"telegram", ChannelTelegram, true},
		{" WhatsApp ", ChannelWhatsApp, true},
		{"mobile_app", ChannelMobileApp, true},
		{"web_app", ChannelWebApp, true},
		{"sms", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ParseChannel(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("ParseChannel(%q) = %q,%v; want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"en", LangEnglish, true},
		{"es-MX", LangSpanish, true},
		{"pt_BR", LangPortuguese, true},
		{"Spanish", LangSpanish, true},
		{"português", LangPortuguese, true},
		{"", "", false},
		{"not a tag!", "", false},
	}
	for _, c := range cases {
		got, ok := ParseLanguage(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("ParseLanguage(%q) = %q,%v; want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseIntent_AndClamp(t *testing.T) {
	if in, ok := ParseIntent(" Expense "); !ok || in != IntentExpense {
		t.Fatalf("ParseIntent(Expense) = %q,%v", in, ok)
	}
	if _, ok := ParseIntent("weather"); ok {
		t.Fatalf("weather should not be a known intent")
	}
	for in, want := range map[float64]float64{-1: 0, 0.5: 0.5, 7: 1} {
		if got := ClampConfidence(in); got != want {
			t.Fatalf("ClampConfidence(%v) = %v; want %v", in, got, want)
		}
	}
}

func TestEnvelope_AndUserContext(t *testing.T) {
	loc := time.FixedZone("X", -3*3600)
	at := time.Date(2025, 7, 21, 10, 0, 0, 0, loc)
	env := NewEnvelope("  hi  ", ChannelTelegram, " 7 ", at)
	if env.Text != "hi" || env.ChannelUserID != "7" || env.ReceivedAt.Location() != time.UTC {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	uc := UserContext{Now: at}
	if uc.Registered() {
		t.Fatalf("empty account id must be unregistered")
	}
	if uc.TimezoneName() != "UTC" || uc.LocalNow().Location() != time.UTC {
		t.Fatalf("nil location must behave as UTC")
	}
	uc.Location = loc
	uc.AccountID = "a1"
	if !uc.Registered() || uc.LocalNow().Hour() != 10 {
		t.Fatalf("unexpected context: %+v", uc)
	}
	if (Parsed{}).OK() != true || (Parsed{NeedsClarification: []string{"amount"}}).OK() {
		t.Fatalf("Parsed.OK mismatch")
	}
}
