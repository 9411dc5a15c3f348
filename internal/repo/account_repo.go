// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Account
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an account is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - A second account for the same (channel, channel_user_id) returns
//     ErrDuplicate.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateAccount inserts a new Account. ID and timestamps are assigned here;
// the caller fills identity and preferences.
func CreateAccount(ctx context.Context, db *gorm.DB, a *domain.Account) (*domain.Account, error) {
	now := time.Now().UTC()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return a, nil
}

// GetAccount fetches an account by ID, or ErrNotFound.
func GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAccountByChannelUser resolves a channel identity to its account, or
// ErrNotFound when the sender never registered.
func FindAccountByChannelUser(ctx context.Context, db *gorm.DB, channel, channelUserID string) (*domain.Account, error) {
	var a domain.Account
	err := db.WithContext(ctx).
		Where("channel = ? AND channel_user_id = ?", channel, channelUserID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AccountPrefs carries the mutable preference columns. Empty strings leave
// the column unchanged.
type AccountPrefs struct {
	DisplayName string
	Language    string
	Currency    string
	Timezone    string
	Country     string
}

// UpdateAccountPrefs applies prefs to the account with the given id. If no
// rows match it returns ErrNotFound.
func UpdateAccountPrefs(ctx context.Context, db *gorm.DB, id string, prefs AccountPrefs) error {
	set := map[string]any{}
	for col, v := range map[string]string{
		"display_name": prefs.DisplayName,
		"language":     prefs.Language,
		"currency":     prefs.Currency,
		"timezone":     prefs.Timezone,
		"country":      prefs.Country,
	} {
		if v != "" {
			set[col] = v
		}
	}
	if len(set) == 0 {
		_, err := GetAccount(ctx, db, id)
		return err
	}
	set["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
