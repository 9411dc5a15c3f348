// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// ExpensesStats returns the number of an account's expenses and the greatest
// UpdatedAt among them. When the account has none, it returns (0, nil, nil).
func ExpensesStats(ctx context.Context, db *gorm.DB, accountID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latest(db.WithContext(ctx).Model(&domain.Expense{}).Where("account_id = ?", accountID))
}

// RemindersStats is ExpensesStats for reminders.
func RemindersStats(ctx context.Context, db *gorm.DB, accountID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latest(db.WithContext(ctx).Model(&domain.Reminder{}).Where("account_id = ?", accountID))
}

// InteractionsStats returns aggregate metadata for one sender's history.
func InteractionsStats(ctx context.Context, db *gorm.DB, channel, channelUserID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latest(db.WithContext(ctx).Model(&domain.Interaction{}).
		Where("channel = ? AND channel_user_id = ?", channel, channelUserID))
}

// latest runs a count followed by a single-row lookup of the newest
// updated_at on the scoped query q.
func latest(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
