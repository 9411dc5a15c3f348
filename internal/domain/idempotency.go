// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded result of a previously processed message,
// keyed by (user_id, channel, key). It enables safe retries of POST /messages
// by returning the originally produced reply without re-running the pipeline
// (and without storing a second expense or reminder).
type Idempotency struct {
	ID            string    `gorm:"type:varchar(36);primaryKey"`
	UserID        string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_channel_key,priority:1"`
	Channel       string    `gorm:"type:varchar(16);not null;uniqueIndex:ux_user_channel_key,priority:2"`
	Key           string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_channel_key,priority:3"`
	InteractionID string    `gorm:"type:varchar(36);not null"`
	Status        int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt     time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
