// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Expense
// model, including the per-currency aggregation behind summaries.
package repo

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// CreateExpense inserts e, assigning its ID and defaulting SpentAt to now.
func CreateExpense(ctx context.Context, db *gorm.DB, e *domain.Expense) (*domain.Expense, error) {
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SpentAt.IsZero() {
		e.SpentAt = now
	}
	e.SpentAt = e.SpentAt.UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// CountExpenses returns the number of expenses owned by accountID.
func CountExpenses(ctx context.Context, db *gorm.DB, accountID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Expense{}).
		Where("account_id = ?", accountID).
		Count(&total).Error
	return total, err
}

// ListExpensesPage returns expenses newest first (SpentAt DESC, ID ASC).
func ListExpensesPage(ctx context.Context, db *gorm.DB, accountID string, offset, limit int) ([]domain.Expense, error) {
	var out []domain.Expense
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("spent_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RecentExpenses returns at most limit expenses spent at or after since,
// newest first.
func RecentExpenses(ctx context.Context, db *gorm.DB, accountID string, since time.Time, limit int) ([]domain.Expense, error) {
	var out []domain.Expense
	err := db.WithContext(ctx).
		Where("account_id = ? AND spent_at >= ?", accountID, since.UTC()).
		Order("spent_at DESC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ExpenseTotals aggregates expenses spent in [from, to) by currency and then
// by category. Amounts are summed as decimals in Go because SQL SUM over a
// decimal column comes back as a float on SQLite. Currencies and categories
// are sorted by code and name.
func ExpenseTotals(ctx context.Context, db *gorm.DB, accountID string, from, to time.Time) ([]domain.CurrencyTotal, error) {
	var rows []struct {
		Amount   decimal.Decimal
		Currency string
		Category string
	}
	err := db.WithContext(ctx).
		Model(&domain.Expense{}).
		Select("amount, currency, category").
		Where("account_id = ? AND spent_at >= ? AND spent_at < ?", accountID, from.UTC(), to.UTC()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byCur := map[string]*domain.CurrencyTotal{}
	byCat := map[string]map[string]*domain.CategoryTotal{}
	for _, r := range rows {
		ct := byCur[r.Currency]
		if ct == nil {
			ct = &domain.CurrencyTotal{Currency: r.Currency}
			byCur[r.Currency] = ct
			byCat[r.Currency] = map[string]*domain.CategoryTotal{}
		}
		ct.Amount = ct.Amount.Add(r.Amount)
		ct.Count++

		cat := byCat[r.Currency][r.Category]
		if cat == nil {
			cat = &domain.CategoryTotal{Category: r.Category}
			byCat[r.Currency][r.Category] = cat
		}
		cat.Amount = cat.Amount.Add(r.Amount)
		cat.Count++
	}

	out := make([]domain.CurrencyTotal, 0, len(byCur))
	for code, ct := range byCur {
		for _, cat := range byCat[code] {
			ct.Categories = append(ct.Categories, *cat)
		}
		sort.Slice(ct.Categories, func(i, j int) bool {
			return ct.Categories[i].Category < ct.Categories[j].Category
		})
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}
