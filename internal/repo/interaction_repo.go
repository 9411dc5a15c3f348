// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Interaction model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
)

// CreateInteraction inserts a processed message and its reply.
func CreateInteraction(ctx context.Context, db *gorm.DB, in *domain.Interaction) (*domain.Interaction, error) {
	now := time.Now().UTC()
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	if err := db.WithContext(ctx).Create(in).Error; err != nil {
		return nil, err
	}
	return in, nil
}

// GetInteraction fetches an interaction by ID, or ErrNotFound.
func GetInteraction(ctx context.Context, db *gorm.DB, id string) (*domain.Interaction, error) {
	var in domain.Interaction
	if err := db.WithContext(ctx).Where("id = ?", id).First(&in).Error; err != nil {
		return nil, err
	}
	return &in, nil
}

// CountInteractions uses a raw COUNT so a missing table surfaces as an error.
func CountInteractions(ctx context.Context, db *gorm.DB, channel, channelUserID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM interactions WHERE channel = ? AND channel_user_id = ? AND deleted_at IS NULL", channel, channelUserID).
		Scan(&total).Error
	return total, err
}

// ListInteractionsPage returns a sender's history in arrival order
// (CreatedAt ASC, ID ASC).
func ListInteractionsPage(ctx context.Context, db *gorm.DB, channel, channelUserID string, offset, limit int) ([]domain.Interaction, error) {
	var out []domain.Interaction
	err := db.WithContext(ctx).
		Where("channel = ? AND channel_user_id = ?", channel, channelUserID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
