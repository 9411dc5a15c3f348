// Package domain defines the persistence models for accounts, expenses,
// reminders and interactions, plus the value types that flow through the
// assistant pipeline. The persistence models are mapped with GORM and form
// the core data layer of the assistant backend.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is a registered user as seen by one channel. The (channel,
// channel_user_id) pair is unique; the account carries the preferences the
// pipeline needs to parse and phrase replies.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Channel / ChannelUserID: origin identity; unique together.
//   - Language: preferred reply language (en, es, pt).
//   - Currency: ISO 4217 code used when a message names no valid currency.
//   - Timezone: IANA zone used to resolve relative times.
//   - Country: ISO 3166 alpha-2, informational.
type Account struct {
	ID            string         `json:"id"              gorm:"type:char(36);primaryKey"`
	Channel       string         `json:"channel"         gorm:"type:varchar(16);not null;uniqueIndex:ux_account_channel_user,priority:1"`
	ChannelUserID string         `json:"channel_user_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_account_channel_user,priority:2"`
	DisplayName   string         `json:"display_name"    gorm:"type:varchar(255)"`
	Language      string         `json:"language"        gorm:"type:varchar(8);not null;default:'en'"`
	Currency      string         `json:"currency"        gorm:"type:char(3);not null;default:'USD'"`
	Timezone      string         `json:"timezone"        gorm:"type:varchar(64);not null;default:'UTC'"`
	Country       string         `json:"country"         gorm:"type:varchar(2)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"               gorm:"index"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// Expense is a spending record extracted from a user message.
//
// Amount is stored as an exact decimal; Currency is always set (the account
// currency substitutes for unrecognized codes before the row is written).
type Expense struct {
	ID          string          `json:"id"          gorm:"type:char(36);primaryKey"`
	AccountID   string          `json:"account_id"  gorm:"type:char(36);not null;index:idx_account_expenses,priority:1"`
	Amount      decimal.Decimal `json:"amount"      gorm:"type:decimal(14,2);not null"`
	Currency    string          `json:"currency"    gorm:"type:char(3);not null"`
	Description string          `json:"description" gorm:"type:varchar(255);not null"`
	Category    string          `json:"category"    gorm:"type:varchar(64);not null;default:'Other'"`
	Merchant    string          `json:"merchant,omitempty" gorm:"type:varchar(128)"`
	SpentAt     time.Time       `json:"spent_at"    gorm:"index:idx_account_expenses,priority:2"`
	Confidence  float64         `json:"confidence"`
	SourceText  string          `json:"source_text" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-"           gorm:"index"`

	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Expense.
func (Expense) TableName() string { return "expenses" }

// Reminder is a scheduled item extracted from a user message. DueAt is stored
// in UTC; the account timezone is applied when rendering.
type Reminder struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	AccountID   string         `json:"account_id"  gorm:"type:char(36);not null;index:idx_account_reminders,priority:1"`
	Title       string         `json:"title"       gorm:"type:varchar(255);not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	DueAt       time.Time      `json:"due_at"      gorm:"not null;index:idx_account_reminders,priority:2"`
	Priority    string         `json:"priority"    gorm:"type:varchar(16);not null;default:'medium'"`
	Type        string         `json:"type"        gorm:"type:varchar(16);not null;default:'task'"`
	Completed   bool           `json:"completed"   gorm:"not null;default:false"`
	Confidence  float64        `json:"confidence"`
	SourceText  string         `json:"source_text" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`

	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Reminder.
func (Reminder) TableName() string { return "reminders" }

// Interaction records one processed message and the reply it produced.
// AccountID is empty for unregistered senders.
type Interaction struct {
	ID            string         `json:"id"              gorm:"type:char(36);primaryKey"`
	AccountID     string         `json:"account_id,omitempty" gorm:"type:varchar(36);index"`
	Channel       string         `json:"channel"         gorm:"type:varchar(16);not null;index:idx_channel_user_interactions,priority:1"`
	ChannelUserID string         `json:"channel_user_id" gorm:"type:varchar(128);not null;index:idx_channel_user_interactions,priority:2"`
	Text          string         `json:"text"            gorm:"type:text;not null"`
	Intent        string         `json:"intent"          gorm:"type:varchar(16);not null"`
	Confidence    float64        `json:"confidence"`
	Outcome       string         `json:"outcome"         gorm:"type:varchar(32);not null"`
	Reply         string         `json:"reply"           gorm:"type:text;not null"`
	CreatedAt     time.Time      `json:"created_at"      gorm:"index:idx_channel_user_interactions,priority:3"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"               gorm:"index"`
}

// TableName returns the database table name for Interaction.
func (Interaction) TableName() string { return "interactions" }
