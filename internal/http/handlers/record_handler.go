// Record HTTP handlers.
//
// This file exposes the stored expenses and reminders of the sender:
//   - GET  /expenses                  (paginated, ETag)
//   - GET  /reminders                 (paginated, ETag)
//   - POST /reminders/{id}/complete   (mark done)
//   - GET  /summary                   (totals per currency and category)
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"google.golang.org/genproto/googleapis/type/money"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/repo"
	"github.com/tbourn/go-assistant-backend/internal/services"
	"github.com/tbourn/go-assistant-backend/internal/types"
	"github.com/tbourn/go-assistant-backend/internal/utils"
)

// ListExpensesResponse wraps a page of expenses and pagination information.
type ListExpensesResponse struct {
	Expenses   []domain.Expense `json:"expenses"`
	Pagination Pagination       `json:"pagination"`
}

// ListRemindersResponse wraps a page of reminders and pagination information.
type ListRemindersResponse struct {
	Reminders  []domain.Reminder `json:"reminders"`
	Pagination Pagination        `json:"pagination"`
}

// CategoryAmount is one category's spend in a currency.
type CategoryAmount struct {
	Category string       `json:"category" example:"Food & Dining"`
	Amount   *money.Money `json:"amount"`
	Count    int          `json:"count" example:"3"`
}

// CurrencyAmount is the spend in one currency.
type CurrencyAmount struct {
	Amount     *money.Money     `json:"amount"`
	Count      int              `json:"count" example:"5"`
	Categories []CategoryAmount `json:"categories"`
}

// SummaryResponse reports spending over the window and pending reminders.
type SummaryResponse struct {
	WindowDays       int              `json:"window_days" example:"30"`
	From             string           `json:"from" example:"2025-06-21T10:00:00Z"`
	To               string           `json:"to" example:"2025-07-21T10:00:00Z"`
	Totals           []CurrencyAmount `json:"totals"`
	PendingReminders int              `json:"pending_reminders" example:"2"`
}

func summaryResponse(s *domain.Summary) SummaryResponse {
	out := SummaryResponse{
		WindowDays:       s.WindowDays,
		From:             s.From.UTC().Format(time.RFC3339),
		To:               s.To.UTC().Format(time.RFC3339),
		Totals:           make([]CurrencyAmount, 0, len(s.Totals)),
		PendingReminders: s.PendingReminders,
	}
	for _, t := range s.Totals {
		ca := CurrencyAmount{
			Amount:     types.ToMoney(t.Amount, t.Currency),
			Count:      t.Count,
			Categories: make([]CategoryAmount, 0, len(t.Categories)),
		}
		for _, cat := range t.Categories {
			ca.Categories = append(ca.Categories, CategoryAmount{
				Category: cat.Category,
				Amount:   types.ToMoney(cat.Amount, t.Currency),
				Count:    cat.Count,
			})
		}
		out.Totals = append(out.Totals, ca)
	}
	return out
}

// ListExpenses godoc
// @ID          listExpenses
// @Summary     List the sender's expenses
// @Description Newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Records
// @Produce     json
//
// @Param       X-Channel      header  string  true  "Channel"
// @Param       X-User-ID      header  string  true  "Channel user ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListExpensesResponse
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Not registered"
// @Router      /expenses [get]
func (h *Handlers) ListExpenses(c *gin.Context) {
	ctx := c.Request.Context()
	acct, found := h.account(c)
	if !found {
		return
	}

	if svc, isSvc := h.records.(*services.RecordService); isSvc && svc.DB != nil {
		if count, maxTS, err := repo.ExpensesStats(ctx, svc.DB, acct.ID); err == nil {
			if notModified(c, "expenses", acct.ID, count, maxTS) {
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.records.ListExpenses(ctx, acct.ID, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListExpensesResponse{Expenses: items, Pagination: newPagination(page, pageSize, total)})
}

// ListReminders godoc
// @ID          listReminders
// @Summary     List the sender's reminders
// @Description Soonest due first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Records
// @Produce     json
//
// @Param       X-Channel      header  string  true  "Channel"
// @Param       X-User-ID      header  string  true  "Channel user ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListRemindersResponse
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Not registered"
// @Router      /reminders [get]
func (h *Handlers) ListReminders(c *gin.Context) {
	ctx := c.Request.Context()
	acct, found := h.account(c)
	if !found {
		return
	}

	if svc, isSvc := h.records.(*services.RecordService); isSvc && svc.DB != nil {
		if count, maxTS, err := repo.RemindersStats(ctx, svc.DB, acct.ID); err == nil {
			if notModified(c, "reminders", acct.ID, count, maxTS) {
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.records.ListReminders(ctx, acct.ID, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListRemindersResponse{Reminders: items, Pagination: newPagination(page, pageSize, total)})
}

// CompleteReminder godoc
// @ID          completeReminder
// @Summary     Mark a reminder done
// @Tags        Records
//
// @Param       X-Channel  header  string  true  "Channel"
// @Param       X-User-ID  header  string  true  "Channel user ID"
// @Param       id         path    string  true  "Reminder ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Reminder not found"
// @Router      /reminders/{id}/complete [post]
func (h *Handlers) CompleteReminder(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reminder id must be a UUID")
		return
	}
	acct, found := h.account(c)
	if !found {
		return
	}
	if err := h.records.CompleteReminder(c.Request.Context(), acct.ID, id); err != nil {
		if errors.Is(err, services.ErrReminderNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "reminder not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// GetSummary godoc
// @ID          getSummary
// @Summary     Spending summary
// @Description Totals per currency and category over the last `days` days, plus pending reminders.
// @Tags        Records
// @Produce     json
//
// @Param       X-Channel  header  string  true  "Channel"
// @Param       X-User-ID  header  string  true  "Channel user ID"
// @Param       days       query   int     false "Window in days"  minimum(1) maximum(366)
//
// @Success     200  {object} handlers.SummaryResponse
// @Failure     404  {object} handlers.ErrorResponse "Not registered"
// @Router      /summary [get]
func (h *Handlers) GetSummary(c *gin.Context) {
	acct, found := h.account(c)
	if !found {
		return
	}
	days := utils.IntOr(c.Query("days"), h.summaryDays)
	if days < 1 || days > 366 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "days must be within 1..366")
		return
	}
	s, err := h.records.QuerySummary(c.Request.Context(), acct.ID, days)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, summaryResponse(s))
}
