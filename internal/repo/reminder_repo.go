// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Reminder
// model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// CreateReminder inserts r, assigning its ID. DueAt is stored in UTC.
func CreateReminder(ctx context.Context, db *gorm.DB, r *domain.Reminder) (*domain.Reminder, error) {
	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.DueAt = r.DueAt.UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// CountReminders returns the number of reminders owned by accountID.
func CountReminders(ctx context.Context, db *gorm.DB, accountID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Where("account_id = ?", accountID).
		Count(&total).Error
	return total, err
}

// ListRemindersPage returns reminders by due time (DueAt ASC, ID ASC).
func ListRemindersPage(ctx context.Context, db *gorm.DB, accountID string, offset, limit int) ([]domain.Reminder, error) {
	var out []domain.Reminder
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("due_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RecentReminders returns at most limit reminders created at or after since,
// newest first.
func RecentReminders(ctx context.Context, db *gorm.DB, accountID string, since time.Time, limit int) ([]domain.Reminder, error) {
	var out []domain.Reminder
	err := db.WithContext(ctx).
		Where("account_id = ? AND created_at >= ?", accountID, since.UTC()).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPendingReminders counts incomplete reminders due at or after now.
func CountPendingReminders(ctx context.Context, db *gorm.DB, accountID string, now time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Where("account_id = ? AND completed = ? AND due_at >= ?", accountID, false, now.UTC()).
		Count(&total).Error
	return total, err
}

// CompleteReminder marks a reminder done, enforcing ownership. If no rows
// match it returns ErrNotFound.
func CompleteReminder(ctx context.Context, db *gorm.DB, id, accountID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Where("id = ? AND account_id = ?", id, accountID).
		Updates(map[string]any{"completed": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
