// Message HTTP handlers.
//
// This file exposes REST endpoints for assistant messages:
//   - POST /messages   (process one inbound message and return the reply)
//   - GET  /messages   (list the sender's processed messages)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous result
// exists for (channel, user, key), the handler returns the recorded reply and
// sets `Idempotency-Replayed: true` without running the pipeline again.
package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/http/middleware"
	"github.com/tbourn/go-assistant-backend/internal/repo"
	"github.com/tbourn/go-assistant-backend/internal/services"
)

//
// DTOs
//

// PostMessageRequest is the JSON payload for one inbound message.
type PostMessageRequest struct {
	// Text is the user's message. It must be non-empty.
	Text string `json:"text" binding:"required,min=1" example:"Coffee $4.50"`
	// Language hints the reply language for unregistered senders.
	Language string `json:"language,omitempty" example:"es"`
	// Timezone overrides the account timezone for this message only.
	Timezone string `json:"timezone,omitempty" example:"America/Mexico_City"`
}

// MessageResponse is the reply to one inbound message.
type MessageResponse struct {
	Reply         string  `json:"reply" example:"Saved $4.50 for Coffee (Food & Dining)."`
	Intent        string  `json:"intent" example:"expense"`
	Confidence    float64 `json:"confidence" example:"0.95"`
	Outcome       string  `json:"outcome" example:"expense_saved"`
	Language      string  `json:"language,omitempty" example:"en"`
	InteractionID string  `json:"interaction_id,omitempty" example:"0b0e7c8a-6a3a-4a53-9f8e-1b7f2a9d6f10"`
}

// ListMessagesResponse contains a page of interactions and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Interaction `json:"messages"`
	Pagination Pagination           `json:"pagination"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
// CRLF/CR become LF, runs of 3+ LFs become two, and surrounding whitespace
// is trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// idempotencyKey prefers the key validated by middleware and falls back to
// the raw header when no validator is installed.
func idempotencyKey(c *gin.Context) string {
	if k, found := middleware.GetIdempotencyKey(c); found {
		return k
	}
	return strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
}

func replyFromInteraction(in *domain.Interaction) MessageResponse {
	return MessageResponse{
		Reply:         in.Reply,
		Intent:        in.Intent,
		Confidence:    in.Confidence,
		Outcome:       in.Outcome,
		InteractionID: in.ID,
	}
}

//
// Handlers
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a message to the assistant
// @Description Routes the message to an intent, records expenses or reminders, and returns the reply.
// @Description Supports idempotency via the Idempotency-Key header (same key → same reply).
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-Channel        header  string  true  "Channel"                    Enums(telegram, whatsapp, mobile_app, web_app)
// @Param       X-User-ID        header  string  true  "Channel user ID"            example(42)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.PostMessageRequest  true  "Message payload"
//
// @Success     200  {object}  handlers.MessageResponse  "Assistant reply"
// @Failure     400  {object}  handlers.ErrorResponse    "Bad request"
// @Router      /messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	ch, uid, valid := sender(c)
	if !valid {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	text := sanitizeContent(req.Text)
	if text == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	if h.maxRunes > 0 && utf8.RuneCountInString(text) > h.maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("text too long: max %d runes", h.maxRunes))
		return
	}

	// Idempotency (replay path).
	idemKey := idempotencyKey(c)
	if idemKey != "" {
		if prev, found := h.interactions.Replay(ctx, ch, uid, idemKey); found {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, replyFromInteraction(prev))
			return
		}
	}

	rep := h.assistant.Handle(ctx, services.ProcessRequest{
		Text:          text,
		Channel:       ch,
		ChannelUserID: uid,
		Hints:         services.Hints{Language: req.Language, Timezone: req.Timezone},
	})

	// Idempotency (store path) – best effort.
	if idemKey != "" && rep.InteractionID != "" {
		if err := h.interactions.Remember(ctx, ch, uid, idemKey, rep.InteractionID, http.StatusOK); err != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Msg("idempotency key not stored")
		}
	}

	ok(c, http.StatusOK, MessageResponse{
		Reply:         rep.Text,
		Intent:        string(rep.Intent),
		Confidence:    rep.Confidence,
		Outcome:       string(rep.Outcome),
		Language:      string(rep.Language),
		InteractionID: rep.InteractionID,
	})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List the sender's messages
// @Description Returns a paginated history of processed messages, oldest first. Supports weak ETag via If-None-Match.
// @Tags        Messages
// @Produce     json
//
// @Param       X-Channel      header  string  true  "Channel"          Enums(telegram, whatsapp, mobile_app, web_app)
// @Param       X-User-ID      header  string  true  "Channel user ID"  example(42)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	ch, uid, valid := sender(c)
	if !valid {
		return
	}

	// ETag pre-check (best effort).
	if svc, isSvc := h.interactions.(*services.InteractionService); isSvc && svc.DB != nil {
		if count, maxTS, err := repo.InteractionsStats(ctx, svc.DB, ch, uid); err == nil {
			if notModified(c, "messages", ch+"/"+uid, count, maxTS) {
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.interactions.ListPage(ctx, ch, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}
