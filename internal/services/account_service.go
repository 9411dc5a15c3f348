// Package services – AccountService
//
// This file implements AccountService, the identity collaborator of the
// assistant. It resolves channel identities to accounts for every message and
// owns registration, where preferences are validated and normalized before
// they are stored.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/parsing"
	"github.com/tbourn/go-assistant-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AccountService registers and resolves accounts.
type AccountService struct {
	DB *gorm.DB

	// Applied when registration omits a preference.
	DefaultLanguage domain.Language
	DefaultCurrency string

	NameMaxLen int
}

// NewAccountService constructs an AccountService with the given defaults.
func NewAccountService(db *gorm.DB, lang domain.Language, currency string) *AccountService {
	return &AccountService{DB: db, DefaultLanguage: lang, DefaultCurrency: currency, NameMaxLen: 80}
}

// Registration is the input of Register and the patch of Update. Empty
// fields take defaults on Register and are left untouched on Update.
type Registration struct {
	Channel       string
	ChannelUserID string
	DisplayName   string
	Language      string
	Currency      string
	Timezone      string
	Country       string
}

// Lookup resolves (channel, channelUserID). It returns repo.ErrNotFound for
// unregistered senders and the raw error for storage failures.
func (s *AccountService) Lookup(ctx context.Context, ch domain.Channel, channelUserID string) (*domain.Account, error) {
	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "Lookup",
		trace.WithAttributes(attribute.String("channel", string(ch))),
	)
	defer span.End()
	return repo.FindAccountByChannelUser(ctx, s.DB, string(ch), channelUserID)
}

// Me is Lookup for the HTTP layer: not-found maps to ErrAccountNotFound.
func (s *AccountService) Me(ctx context.Context, channel, channelUserID string) (*domain.Account, error) {
	ch, ok := domain.ParseChannel(channel)
	if !ok {
		return nil, ErrInvalidChannel
	}
	a, err := s.Lookup(ctx, ch, strings.TrimSpace(channelUserID))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// Register validates in and creates the account.
func (s *AccountService) Register(ctx context.Context, in Registration) (*domain.Account, error) {
	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "Register",
		trace.WithAttributes(attribute.String("channel", in.Channel)),
	)
	defer span.End()

	ch, ok := domain.ParseChannel(in.Channel)
	if !ok {
		return nil, ErrInvalidChannel
	}
	uid := strings.TrimSpace(in.ChannelUserID)
	if uid == "" {
		return nil, ErrEmptyUserID
	}

	a := &domain.Account{
		Channel:       string(ch),
		ChannelUserID: uid,
		Language:      string(s.defaultLanguage()),
		Currency:      s.defaultCurrency(),
		Timezone:      "UTC",
	}
	if err := s.apply(a, in); err != nil {
		return nil, err
	}

	out, err := repo.CreateAccount(ctx, s.DB, a)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrAccountExists
	}
	return out, err
}

// Update applies the non-empty preferences in in to the account identified
// by (channel, channelUserID) and returns the stored result.
func (s *AccountService) Update(ctx context.Context, channel, channelUserID string, in Registration) (*domain.Account, error) {
	a, err := s.Me(ctx, channel, channelUserID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(a, in); err != nil {
		return nil, err
	}
	err = repo.UpdateAccountPrefs(ctx, s.DB, a.ID, repo.AccountPrefs{
		DisplayName: a.DisplayName,
		Language:    a.Language,
		Currency:    a.Currency,
		Timezone:    a.Timezone,
		Country:     a.Country,
	})
	if err != nil {
		return nil, err
	}
	return repo.GetAccount(ctx, s.DB, a.ID)
}

// apply validates the non-empty preferences of in onto a.
func (s *AccountService) apply(a *domain.Account, in Registration) error {
	if v := strings.TrimSpace(in.Language); v != "" {
		lang, ok := domain.ParseLanguage(v)
		if !ok {
			return ErrInvalidLanguage
		}
		a.Language = string(lang)
	}
	if v := strings.TrimSpace(in.Currency); v != "" {
		code, ok := parsing.NormalizeCurrency(v)
		if !ok {
			return ErrInvalidCurrency
		}
		a.Currency = code
	}
	if v := strings.TrimSpace(in.Timezone); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return ErrInvalidTimezone
		}
		a.Timezone = loc.String()
	}
	if v := strings.TrimSpace(in.Country); v != "" {
		if len(v) != 2 || !isLetters(v) {
			return ErrInvalidCountry
		}
		a.Country = strings.ToUpper(v)
	}
	if v := normalizeName(in.DisplayName); v != "" {
		lang := domain.Language(a.Language)
		a.DisplayName = s.clip(cases.Title(lang.Tag()).String(v))
	}
	return nil
}

func (s *AccountService) defaultLanguage() domain.Language {
	if s.DefaultLanguage != "" {
		return s.DefaultLanguage
	}
	return domain.LangEnglish
}

func (s *AccountService) defaultCurrency() string {
	if code, ok := parsing.NormalizeCurrency(s.DefaultCurrency); ok {
		return code
	}
	return parsing.FallbackCurrency
}

func (s *AccountService) clip(name string) string {
	if s.NameMaxLen <= 0 || utf8.RuneCountInString(name) <= s.NameMaxLen {
		return name
	}
	return string([]rune(name)[:s.NameMaxLen])
}

// normalizeName trims and collapses internal whitespace.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
