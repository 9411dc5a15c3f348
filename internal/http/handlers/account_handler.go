// Account HTTP handlers.
//
// This file exposes REST endpoints for the identity collaborator:
//   - POST  /accounts      (register a channel user)
//   - GET   /accounts/me   (resolve the sender)
//   - PATCH /accounts/me   (update the sender's preferences)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-assistant-backend/internal/http/middleware"
	"github.com/tbourn/go-assistant-backend/internal/services"
)

// AccountRequest is the JSON payload for registering or updating an account.
// Channel and ChannelUserID fall back to the identity headers and are ignored
// on update.
type AccountRequest struct {
	Channel       string `json:"channel,omitempty" example:"telegram"`
	ChannelUserID string `json:"channel_user_id,omitempty" example:"42"`
	DisplayName   string `json:"display_name,omitempty" example:"Ana"`
	Language      string `json:"language,omitempty" example:"es"`
	Currency      string `json:"currency,omitempty" example:"MXN"`
	Timezone      string `json:"timezone,omitempty" example:"America/Mexico_City"`
	Country       string `json:"country,omitempty" example:"MX"`
}

func (r AccountRequest) registration() services.Registration {
	return services.Registration{
		Channel:       r.Channel,
		ChannelUserID: r.ChannelUserID,
		DisplayName:   r.DisplayName,
		Language:      r.Language,
		Currency:      r.Currency,
		Timezone:      r.Timezone,
		Country:       r.Country,
	}
}

// accountError maps validation errors to 400s and everything else to 500.
func accountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAccountNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotRegistered, "account not registered")
	case errors.Is(err, services.ErrAccountExists):
		fail(c, http.StatusConflict, ErrCodeConflict, "account already registered")
	case errors.Is(err, services.ErrInvalidChannel),
		errors.Is(err, services.ErrEmptyUserID),
		errors.Is(err, services.ErrInvalidLanguage),
		errors.Is(err, services.ErrInvalidCurrency),
		errors.Is(err, services.ErrInvalidTimezone),
		errors.Is(err, services.ErrInvalidCountry):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// RegisterAccount godoc
// @ID          registerAccount
// @Summary     Register a channel user
// @Description Creates the account the assistant uses to resolve language, currency and timezone.
// @Tags        Accounts
// @Accept      json
// @Produce     json
//
// @Param       X-Channel  header  string  false "Channel (used when the body omits it)"
// @Param       X-User-ID  header  string  false "Channel user ID (used when the body omits it)"
// @Param       body       body    handlers.AccountRequest  true  "Account payload"
//
// @Success     201  {object}  domain.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /accounts [post]
func (h *Handlers) RegisterAccount(c *gin.Context) {
	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	ch, uid := middleware.SenderFrom(c)
	if req.Channel == "" {
		req.Channel = ch
	}
	if req.ChannelUserID == "" {
		req.ChannelUserID = uid
	}

	a, err := h.accounts.Register(c.Request.Context(), req.registration())
	if err != nil {
		accountError(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// GetMe godoc
// @ID          getMe
// @Summary     Resolve the sender's account
// @Tags        Accounts
// @Produce     json
//
// @Param       X-Channel  header  string  true  "Channel"
// @Param       X-User-ID  header  string  true  "Channel user ID"
//
// @Success     200  {object}  domain.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not registered"
// @Router      /accounts/me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	a, found := h.account(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, a)
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update the sender's preferences
// @Description Applies the non-empty fields of the payload; channel identity cannot change.
// @Tags        Accounts
// @Accept      json
// @Produce     json
//
// @Param       X-Channel  header  string  true  "Channel"
// @Param       X-User-ID  header  string  true  "Channel user ID"
// @Param       body       body    handlers.AccountRequest  true  "Preferences"
//
// @Success     200  {object}  domain.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not registered"
// @Router      /accounts/me [patch]
func (h *Handlers) UpdateMe(c *gin.Context) {
	ch, uid, valid := sender(c)
	if !valid {
		return
	}
	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a, err := h.accounts.Update(c.Request.Context(), ch, uid, req.registration())
	if err != nil {
		accountError(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}
