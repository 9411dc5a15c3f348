package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Account{}).TableName():     "accounts",
		(Expense{}).TableName():     "expenses",
		(Reminder{}).TableName():    "reminders",
		(Interaction{}).TableName(): "interactions",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Account{}, &Expense{}, &Reminder{}, &Interaction{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&Account{}, &Expense{}, &Reminder{}, &Interaction{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&Account{}, "ux_account_channel_user") {
		t.Fatalf("expected unique index ux_account_channel_user on accounts")
	}
	if !m.HasIndex(&Expense{}, "idx_account_expenses") {
		t.Fatalf("expected index idx_account_expenses on expenses")
	}
	if !m.HasIndex(&Reminder{}, "idx_account_reminders") {
		t.Fatalf("expected index idx_account_reminders on reminders")
	}

	now := time.Now().UTC()
	acc := &Account{ID: "a1", Channel: "telegram", ChannelUserID: "42", Language: "en", Currency: "USD", Timezone: "UTC"}
	if err := db.Create(acc).Error; err != nil {
		t.Fatalf("insert account: %v", err)
	}
	dup := &Account{ID: "a2", Channel: "telegram", ChannelUserID: "42"}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on (channel, channel_user_id)")
	}

	exp := &Expense{ID: "e1", AccountID: "a1", Amount: decimal.RequireFromString("4.50"), Currency: "USD", Description: "Coffee", Category: "Food & Dining", SpentAt: now}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("insert expense: %v", err)
	}
	rem := &Reminder{ID: "r1", AccountID: "a1", Title: "call mom", DueAt: now.Add(time.Hour)}
	if err := db.Create(rem).Error; err != nil {
		t.Fatalf("insert reminder: %v", err)
	}

	var got Expense
	if err := db.First(&got, "id = ?", "e1").Error; err != nil {
		t.Fatalf("readback expense: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("amount round-trip = %s; want 4.5", got.Amount)
	}
	var gotRem Reminder
	if err := db.First(&gotRem, "id = ?", "r1").Error; err != nil {
		t.Fatalf("readback reminder: %v", err)
	}
	if gotRem.Priority != "medium" || gotRem.Type != "task" {
		t.Fatalf("reminder defaults = %q/%q; want medium/task", gotRem.Priority, gotRem.Type)
	}

	// CASCADE: deleting the account removes its records.
	if err := db.Unscoped().Delete(&Account{}, "id = ?", "a1").Error; err != nil {
		t.Fatalf("delete account: %v", err)
	}
	var cnt int64
	if err := db.Model(&Expense{}).Where("account_id = ?", "a1").Count(&cnt).Error; err != nil {
		t.Fatalf("count expenses: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected expenses to cascade-delete, got count=%d", cnt)
	}
	if err := db.Model(&Reminder{}).Where("account_id = ?", "a1").Count(&cnt).Error; err != nil {
		t.Fatalf("count reminders: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected reminders to cascade-delete, got count=%d", cnt)
	}
}
