// Package handlers exposes the assistant over REST.
//
// Endpoints:
//   - POST  /messages               (process one message, idempotent)
//   - GET   /messages               (sender history, paginated, ETag)
//   - POST  /accounts               (register a channel user)
//   - GET   /accounts/me            (resolve the sender)
//   - PATCH /accounts/me            (update preferences)
//   - GET   /expenses, /reminders   (records, paginated, ETag)
//   - POST  /reminders/{id}/complete
//   - GET   /summary                (totals over the recent window)
//   - GET   /provider, PUT /provider, GET /ready
//
// The sender is identified by the X-Channel and X-User-ID headers. Handlers
// are transport-thin: they validate input, call application services, and
// translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/http/middleware"
	"github.com/tbourn/go-assistant-backend/internal/llm"
	"github.com/tbourn/go-assistant-backend/internal/services"
	"github.com/tbourn/go-assistant-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AccountService manages the identity collaborator's accounts.
type AccountService interface {
	Register(ctx context.Context, in services.Registration) (*domain.Account, error)
	Me(ctx context.Context, channel, channelUserID string) (*domain.Account, error)
	Update(ctx context.Context, channel, channelUserID string, in services.Registration) (*domain.Account, error)
}

// AssistantService answers one inbound message.
type AssistantService interface {
	Handle(ctx context.Context, req services.ProcessRequest) services.Reply
}

// InteractionService lists and replays processed messages.
type InteractionService interface {
	ListPage(ctx context.Context, channel, channelUserID string, page, pageSize int) ([]domain.Interaction, int64, error)
	Replay(ctx context.Context, channel, channelUserID, key string) (*domain.Interaction, bool)
	Remember(ctx context.Context, channel, channelUserID, key, interactionID string, status int) error
}

// RecordService reads the storage collaborator's records.
type RecordService interface {
	ListExpenses(ctx context.Context, accountID string, page, pageSize int) ([]domain.Expense, int64, error)
	ListReminders(ctx context.Context, accountID string, page, pageSize int) ([]domain.Reminder, int64, error)
	CompleteReminder(ctx context.Context, accountID, id string) error
	QuerySummary(ctx context.Context, accountID string, windowDays int) (*domain.Summary, error)
}

// ProviderAdmin inspects and swaps the active language-model backend.
type ProviderAdmin interface {
	Active() llm.Info
	Descriptor() llm.Descriptor
	Healthy(ctx context.Context) bool
	CacheStats() (size, capacity int)
	Switch(ctx context.Context, d llm.Descriptor) error
}

//
// Handler wiring
//

// Deps are the collaborators the handlers depend on.
type Deps struct {
	Accounts     AccountService
	Assistant    AssistantService
	Interactions InteractionService
	Records      RecordService
	Provider     ProviderAdmin

	// SummaryDays is the default summary window.
	SummaryDays int
	// MaxMessageRunes rejects longer messages at the edge; 0 disables.
	MaxMessageRunes int
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	accounts     AccountService
	assistant    AssistantService
	interactions InteractionService
	records      RecordService
	provider     ProviderAdmin

	summaryDays int
	maxRunes    int
}

// New constructs and returns a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	if d.SummaryDays <= 0 {
		d.SummaryDays = 30
	}
	return &Handlers{
		accounts:     d.Accounts,
		assistant:    d.Assistant,
		interactions: d.Interactions,
		records:      d.Records,
		provider:     d.Provider,
		summaryDays:  d.SummaryDays,
		maxRunes:     d.MaxMessageRunes,
	}
}

// sender returns the validated identity headers or writes a 400.
func sender(c *gin.Context) (channel, userID string, valid bool) {
	channel, userID = middleware.SenderFrom(c)
	if _, ok := domain.ParseChannel(channel); !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "X-Channel must be one of telegram, whatsapp, mobile_app, web_app")
		return "", "", false
	}
	if userID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "X-User-ID required")
		return "", "", false
	}
	return channel, userID, true
}

// account resolves the sender to a registered account or writes an error.
func (h *Handlers) account(c *gin.Context) (*domain.Account, bool) {
	ch, uid, valid := sender(c)
	if !valid {
		return nil, false
	}
	a, err := h.accounts.Me(c.Request.Context(), ch, uid)
	switch {
	case err == services.ErrAccountNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotRegistered, "account not registered")
		return nil, false
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return nil, false
	}
	return a, true
}

//
// DTOs shared by list endpoints
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.Page{Number: page, Size: pageSize}.TotalPages(total)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination reads page and page_size, clamped to the shared limits.
func clampPagination(c *gin.Context) (page, pageSize int) {
	p := utils.ParsePage(c.Query("page"), c.Query("page_size"))
	return p.Number, p.Size
}
