// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for POST /messages.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// ErrDuplicate indicates that a record violating a unique index already
// exists, e.g. an idempotency key for the same (user_id, channel, key).
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, channel, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(channel) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND channel = ? AND key = ? AND expires_at > ?", userID, channel, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateIdempotency inserts a record pointing at the interaction that holds
// the original reply, and returns ErrDuplicate on unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, channel, key, interactionID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:            uuid.NewString(),
		UserID:        userID,
		Channel:       channel,
		Key:           key,
		InteractionID: interactionID,
		Status:        status,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes records that expired before now and reports
// how many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// isUniqueViolation recognizes unique-index failures across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value")
}
