// Package services – RecordService
//
// This file implements RecordService, the storage collaborator of the
// assistant. It saves validated expenses and reminders, answers summary
// queries, supplies recent records as parsing hints, and backs the paginated
// listing endpoints.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/repo"
	"github.com/tbourn/go-assistant-backend/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RecordService persists and queries domain records.
type RecordService struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewRecordService constructs a RecordService on the wall clock.
func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{DB: db, Now: time.Now}
}

func (s *RecordService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// SaveExpense stores e and returns it with its ID.
func (s *RecordService) SaveExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	ctx, span := otel.Tracer("services/RecordService").Start(ctx, "SaveExpense",
		trace.WithAttributes(attribute.String("account.id", e.AccountID)),
	)
	defer span.End()
	return repo.CreateExpense(ctx, s.DB, e)
}

// SaveReminder stores r and returns it with its ID.
func (s *RecordService) SaveReminder(ctx context.Context, r *domain.Reminder) (*domain.Reminder, error) {
	ctx, span := otel.Tracer("services/RecordService").Start(ctx, "SaveReminder",
		trace.WithAttributes(attribute.String("account.id", r.AccountID)),
	)
	defer span.End()
	return repo.CreateReminder(ctx, s.DB, r)
}

// QuerySummary totals the account's expenses over the last windowDays days
// and counts its pending reminders.
func (s *RecordService) QuerySummary(ctx context.Context, accountID string, windowDays int) (*domain.Summary, error) {
	ctx, span := otel.Tracer("services/RecordService").Start(ctx, "QuerySummary",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.Int("window_days", windowDays),
		),
	)
	defer span.End()

	if windowDays <= 0 {
		windowDays = 30
	}
	to := s.now()
	sum := &domain.Summary{
		AccountID:  accountID,
		WindowDays: windowDays,
		From:       to.AddDate(0, 0, -windowDays),
		To:         to,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := repo.ExpenseTotals(gctx, s.DB, accountID, sum.From, to.Add(time.Second))
		sum.Totals = totals
		return err
	})
	g.Go(func() error {
		n, err := repo.CountPendingReminders(gctx, s.DB, accountID, to)
		sum.PendingReminders = int(n)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sum, nil
}

// Recent returns up to limit of the account's expenses and reminders since
// the given time, newest first, rendered as parsing hints.
func (s *RecordService) Recent(ctx context.Context, accountID string, since time.Time, limit int) ([]domain.RecentRecord, error) {
	var (
		exps []domain.Expense
		rems []domain.Reminder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		exps, err = repo.RecentExpenses(gctx, s.DB, accountID, since, limit)
		return err
	})
	g.Go(func() (err error) {
		rems, err = repo.RecentReminders(gctx, s.DB, accountID, since, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.RecentRecord, 0, len(exps)+len(rems))
	for _, e := range exps {
		out = append(out, domain.RecentRecord{
			Kind:    domain.KindExpense,
			Summary: fmt.Sprintf("%s %s %s (%s)", e.Description, e.Amount.StringFixed(2), e.Currency, e.Category),
			At:      e.SpentAt,
		})
	}
	for _, r := range rems {
		out = append(out, domain.RecentRecord{
			Kind:    domain.KindReminder,
			Summary: fmt.Sprintf("%s due %s (%s, %s)", r.Title, r.DueAt.UTC().Format(time.RFC3339), r.Type, r.Priority),
			At:      r.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListExpenses returns one page of the account's expenses and the total.
func (s *RecordService) ListExpenses(ctx context.Context, accountID string, page, pageSize int) ([]domain.Expense, int64, error) {
	ctx, span := otel.Tracer("services/RecordService").Start(ctx, "ListExpenses",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	offset, limit := utils.Page{Number: page, Size: pageSize}.Window()
	total, err := repo.CountExpenses(ctx, s.DB, accountID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Expense{}, 0, nil
	}
	items, err := repo.ListExpensesPage(ctx, s.DB, accountID, offset, limit)
	return items, total, err
}

// ListReminders returns one page of the account's reminders and the total.
func (s *RecordService) ListReminders(ctx context.Context, accountID string, page, pageSize int) ([]domain.Reminder, int64, error) {
	ctx, span := otel.Tracer("services/RecordService").Start(ctx, "ListReminders",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	offset, limit := utils.Page{Number: page, Size: pageSize}.Window()
	total, err := repo.CountReminders(ctx, s.DB, accountID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Reminder{}, 0, nil
	}
	items, err := repo.ListRemindersPage(ctx, s.DB, accountID, offset, limit)
	return items, total, err
}

// CompleteReminder marks one of the account's reminders done.
func (s *RecordService) CompleteReminder(ctx context.Context, accountID, id string) error {
	err := repo.CompleteReminder(ctx, s.DB, id, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrReminderNotFound
	}
	return err
}
