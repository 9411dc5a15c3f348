package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

func seedSvcAccount(t *testing.T, db *gorm.DB, uid string) *domain.Account {
	t.Helper()
	a, err := NewAccountService(db, domain.LangEnglish, "USD").
		Register(context.Background(), Registration{Channel: "telegram", ChannelUserID: uid})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func newRecords(t *testing.T) (*RecordService, *domain.Account) {
	t.Helper()
	db := newSvcDB(t)
	s := NewRecordService(db)
	s.Now = func() time.Time { return july21 }
	return s, seedSvcAccount(t, db, "42")
}

func expense(acct, amt, cur, cat string, at time.Time) *domain.Expense {
	return &domain.Expense{
		AccountID: acct, Amount: decimal.RequireFromString(amt), Currency: cur,
		Description: cat + " item", Category: cat, SpentAt: at,
	}
}

func TestRecordService_QuerySummaryWindowAndPending(t *testing.T) {
	s, acct := newRecords(t)
	ctx := context.Background()

	for _, e := range []*domain.Expense{
		expense(acct.ID, "4.50", "USD", "Food & Dining", july21.Add(-time.Hour)),
		expense(acct.ID, "20.00", "USD", "Transportation", july21.AddDate(0, 0, -3)),
		expense(acct.ID, "100.00", "EUR", "Shopping", july21.AddDate(0, 0, -10)),
		expense(acct.ID, "999.00", "USD", "Shopping", july21.AddDate(0, 0, -45)), // outside window
	} {
		if _, err := s.SaveExpense(ctx, e); err != nil {
			t.Fatalf("SaveExpense: %v", err)
		}
	}
	for _, r := range []*domain.Reminder{
		{AccountID: acct.ID, Title: "pay rent", DueAt: july21.Add(48 * time.Hour), Priority: "high", Type: "payment"},
		{AccountID: acct.ID, Title: "old", DueAt: july21.Add(-48 * time.Hour), Priority: "low", Type: "task"},
	} {
		if _, err := s.SaveReminder(ctx, r); err != nil {
			t.Fatalf("SaveReminder: %v", err)
		}
	}

	sum, err := s.QuerySummary(ctx, acct.ID, 0)
	if err != nil {
		t.Fatalf("QuerySummary: %v", err)
	}
	if sum.WindowDays != 30 || !sum.To.Equal(july21) {
		t.Fatalf("window = %d to %v", sum.WindowDays, sum.To)
	}
	if sum.PendingReminders != 1 {
		t.Fatalf("PendingReminders = %d; want 1", sum.PendingReminders)
	}
	if len(sum.Totals) != 2 {
		t.Fatalf("Totals = %+v; want EUR and USD", sum.Totals)
	}
	eur, usd := sum.Totals[0], sum.Totals[1]
	if eur.Currency != "EUR" || !eur.Amount.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("EUR total = %+v", eur)
	}
	if usd.Currency != "USD" || !usd.Amount.Equal(decimal.RequireFromString("24.50")) || usd.Count != 2 {
		t.Fatalf("USD total = %+v", usd)
	}
}

func TestRecordService_RecentNewestFirstAndLimited(t *testing.T) {
	s, acct := newRecords(t)
	ctx := context.Background()

	for i, at := range []time.Time{july21.AddDate(0, 0, -2), july21.AddDate(0, 0, -1), july21.Add(-time.Hour)} {
		e := expense(acct.ID, "1.00", "USD", "Other", at)
		e.Description = []string{"first", "second", "third"}[i]
		if _, err := s.SaveExpense(ctx, e); err != nil {
			t.Fatalf("SaveExpense: %v", err)
		}
	}

	got, err := s.Recent(ctx, acct.ID, july21.AddDate(0, 0, -30), 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d; want 2", len(got))
	}
	if got[0].Summary != "third 1.00 USD (Other)" || got[0].Kind != domain.KindExpense {
		t.Fatalf("first = %+v", got[0])
	}
	if !got[0].At.After(got[1].At) {
		t.Fatalf("not newest first: %+v", got)
	}
}

func TestRecordService_ListPaging(t *testing.T) {
	s, acct := newRecords(t)
	ctx := context.Background()

	items, total, err := s.ListExpenses(ctx, acct.ID, 1, 10)
	if err != nil || total != 0 || items == nil || len(items) != 0 {
		t.Fatalf("empty list = %v, %d, %v", items, total, err)
	}

	for i := 0; i < 5; i++ {
		if _, err := s.SaveExpense(ctx, expense(acct.ID, "2.00", "USD", "Other", july21.Add(-time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveExpense: %v", err)
		}
		if _, err := s.SaveReminder(ctx, &domain.Reminder{
			AccountID: acct.ID, Title: "r", DueAt: july21.Add(time.Duration(i+1) * time.Hour), Priority: "medium", Type: "task",
		}); err != nil {
			t.Fatalf("SaveReminder: %v", err)
		}
	}

	page2, total, err := s.ListExpenses(ctx, acct.ID, 2, 2)
	if err != nil || total != 5 || len(page2) != 2 {
		t.Fatalf("page 2 = %d items, total %d, err %v", len(page2), total, err)
	}
	if !page2[0].SpentAt.After(page2[1].SpentAt) {
		t.Fatalf("expenses not newest first")
	}

	rems, total, err := s.ListReminders(ctx, acct.ID, 0, 0)
	if err != nil || total != 5 || len(rems) != 5 {
		t.Fatalf("reminders = %d, total %d, err %v", len(rems), total, err)
	}
	if !rems[0].DueAt.Before(rems[1].DueAt) {
		t.Fatalf("reminders not soonest first")
	}
}

func TestRecordService_CompleteReminder(t *testing.T) {
	s, acct := newRecords(t)
	ctx := context.Background()

	r, err := s.SaveReminder(ctx, &domain.Reminder{AccountID: acct.ID, Title: "x", DueAt: july21.Add(time.Hour), Priority: "low", Type: "task"})
	if err != nil {
		t.Fatalf("SaveReminder: %v", err)
	}
	if err := s.CompleteReminder(ctx, acct.ID, r.ID); err != nil {
		t.Fatalf("CompleteReminder: %v", err)
	}
	if err := s.CompleteReminder(ctx, "someone-else", r.ID); !errors.Is(err, ErrReminderNotFound) {
		t.Fatalf("foreign complete err = %v", err)
	}

	sum, err := s.QuerySummary(ctx, acct.ID, 7)
	if err != nil || sum.PendingReminders != 0 {
		t.Fatalf("pending after complete = %+v, %v", sum, err)
	}
}
