// Package services defines the business logic for accounts, records and the
// assistant pipeline. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer. The assistant pipeline itself never returns them:
// every failure there resolves to reply text.
package services

import "errors"

// Account-related errors.
var (
	// ErrAccountNotFound indicates that no account is registered for the
	// (channel, channel user) pair.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned when registering an identity twice.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidChannel is returned for channels outside the supported set.
	ErrInvalidChannel = errors.New("channel must be one of: telegram, whatsapp, mobile_app, web_app")

	// ErrEmptyUserID is returned when the channel user identifier is blank.
	ErrEmptyUserID = errors.New("channel user id is empty")

	// ErrInvalidLanguage is returned for unsupported reply languages.
	ErrInvalidLanguage = errors.New("language must be one of: en, es, pt")

	// ErrInvalidCurrency is returned for currency codes the assistant cannot track.
	ErrInvalidCurrency = errors.New("unsupported currency code")

	// ErrInvalidTimezone is returned when the timezone is not a known IANA zone.
	ErrInvalidTimezone = errors.New("unknown timezone")

	// ErrInvalidCountry is returned when country is not an ISO 3166 alpha-2 code.
	ErrInvalidCountry = errors.New("country must be a 2-letter code")
)

// Message-related errors.
var (
	// ErrEmptyMessage is returned when a message has no text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a message exceeds the configured rune limit.
	ErrTooLong = errors.New("message too long")

	// ErrReminderNotFound indicates that the reminder does not exist or
	// belongs to another account.
	ErrReminderNotFound = errors.New("reminder not found")
)

// Pipeline errors carried on system-error outcomes.
var (
	// ErrRoutingUnavailable means the intent router got no usable answer
	// from the language model, so the message was never understood.
	ErrRoutingUnavailable = errors.New("intent routing unavailable")
)
