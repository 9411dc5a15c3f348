package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/repo"
)

func TestAccountService_RegisterDefaultsAndNormalizes(t *testing.T) {
	s := NewAccountService(newSvcDB(t), domain.LangSpanish, "mxn")
	ctx := context.Background()

	a, err := s.Register(ctx, Registration{Channel: "Telegram", ChannelUserID: "  42 ", DisplayName: "  ana   maría "})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if a.Channel != "telegram" || a.ChannelUserID != "42" {
		t.Fatalf("identity not normalized: %+v", a)
	}
	if a.Language != "es" || a.Currency != "MXN" || a.Timezone != "UTC" {
		t.Fatalf("defaults not applied: %+v", a)
	}
	if a.DisplayName != "Ana María" {
		t.Fatalf("DisplayName = %q", a.DisplayName)
	}
	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Fatalf("ID/timestamps not assigned: %+v", a)
	}
}

func TestAccountService_RegisterValidation(t *testing.T) {
	s := NewAccountService(newSvcDB(t), domain.LangEnglish, "USD")
	ctx := context.Background()

	cases := []struct {
		name string
		in   Registration
		want error
	}{
		{"channel", Registration{Channel: "fax", ChannelUserID: "1"}, ErrInvalidChannel},
		{"user", Registration{Channel: "telegram", ChannelUserID: "  "}, ErrEmptyUserID},
		{"language", Registration{Channel: "telegram", ChannelUserID: "1", Language: "klingon"}, ErrInvalidLanguage},
		{"currency", Registration{Channel: "telegram", ChannelUserID: "1", Currency: "XYZ1"}, ErrInvalidCurrency},
		{"timezone", Registration{Channel: "telegram", ChannelUserID: "1", Timezone: "Mars/Olympus"}, ErrInvalidTimezone},
		{"country", Registration{Channel: "telegram", ChannelUserID: "1", Country: "U5"}, ErrInvalidCountry},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Register(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v; want %v", err, tc.want)
			}
		})
	}
}

func TestAccountService_RegisterTwiceConflicts(t *testing.T) {
	s := NewAccountService(newSvcDB(t), domain.LangEnglish, "USD")
	ctx := context.Background()
	in := Registration{Channel: "whatsapp", ChannelUserID: "+1555"}

	if _, err := s.Register(ctx, in); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := s.Register(ctx, in); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("second Register err = %v; want ErrAccountExists", err)
	}
}

func TestAccountService_LookupAndMe(t *testing.T) {
	s := NewAccountService(newSvcDB(t), domain.LangEnglish, "USD")
	ctx := context.Background()
	if _, err := s.Register(ctx, Registration{Channel: "web_app", ChannelUserID: "u1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := s.Lookup(ctx, domain.ChannelWebApp, "nobody"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("Lookup unknown err = %v; want repo.ErrNotFound", err)
	}
	if _, err := s.Me(ctx, "web_app", "nobody"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("Me unknown err = %v; want ErrAccountNotFound", err)
	}
	if _, err := s.Me(ctx, "pigeon", "u1"); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("Me bad channel err = %v", err)
	}
	a, err := s.Me(ctx, "WEB_APP", " u1 ")
	if err != nil || a.ChannelUserID != "u1" {
		t.Fatalf("Me = %+v, %v", a, err)
	}
}

func TestAccountService_UpdateChangesOnlyGivenFields(t *testing.T) {
	s := NewAccountService(newSvcDB(t), domain.LangEnglish, "USD")
	ctx := context.Background()
	if _, err := s.Register(ctx, Registration{Channel: "mobile_app", ChannelUserID: "m1", Country: "us"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	a, err := s.Update(ctx, "mobile_app", "m1", Registration{Language: "pt-BR", Timezone: "America/Sao_Paulo"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if a.Language != "pt" || a.Timezone != "America/Sao_Paulo" {
		t.Fatalf("prefs not updated: %+v", a)
	}
	if a.Currency != "USD" || a.Country != "US" {
		t.Fatalf("untouched prefs changed: %+v", a)
	}

	if _, err := s.Update(ctx, "mobile_app", "m1", Registration{Currency: "dollars!"}); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("invalid update err = %v", err)
	}
	if _, err := s.Update(ctx, "mobile_app", "ghost", Registration{Language: "en"}); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("update unknown err = %v", err)
	}
}

func TestAccountService_DisplayNameClipped(t *testing.T) {
	s := NewAccountService(newSvcDB(t), domain.LangEnglish, "USD")
	s.NameMaxLen = 5

	a, err := s.Register(context.Background(), Registration{Channel: "telegram", ChannelUserID: "7", DisplayName: strings.Repeat("x", 20)})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if a.DisplayName != "Xxxxx" {
		t.Fatalf("DisplayName = %q", a.DisplayName)
	}
}
