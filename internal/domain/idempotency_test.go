package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestIdempotency_Migration_Indexes_AndInsert(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected table %q to exist", Idempotency{}.TableName())
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_channel_key") {
		t.Fatalf("expected composite index ux_user_channel_key to exist")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID:            "id-1",
		UserID:        "u1",
		Channel:       "web_app",
		Key:           "k1",
		InteractionID: "i1",
		Status:        201,
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.UserID != "u1" || got.Channel != "web_app" || got.Key != "k1" || got.InteractionID != "i1" || got.Status != 201 {
		t.Fatalf("unexpected row: %+v", got)
	}

	// (user_id, channel, key) must be unique.
	again := *rec
	again.ID = "id-2"
	again.InteractionID = "i2"
	if err := db.Create(&again).Error; err == nil {
		t.Fatalf("expected UNIQUE constraint violation on (user_id, channel, key)")
	}

	// Same key on another channel is a different scope.
	other := *rec
	other.ID = "id-3"
	other.Channel = "telegram"
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("insert on other channel: %v", err)
	}
}
