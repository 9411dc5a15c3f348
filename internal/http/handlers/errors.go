package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these, never
// on the message text. Middleware emits two more: rate_limited and
// bad_idempotency_key.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// The sender has no account yet; register through POST /accounts.
	ErrCodeNotRegistered = "not_registered"
	// A history or record list could not be read.
	ErrCodeListFailed = "list_failed"
	// The requested provider failed its health-check; the old one stays active.
	ErrCodeProviderUnhealthy = "provider_unhealthy"
)
