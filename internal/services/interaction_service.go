// Package services – InteractionService
//
// This file implements InteractionService, the journal of processed messages.
// Every reply the assistant produces is recorded together with its intent
// and outcome; the HTTP layer reads the journal for history listings and for
// Idempotency-Key replays.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/repo"
	"github.com/tbourn/go-assistant-backend/internal/utils"
)

// InteractionService records and replays interactions.
type InteractionService struct {
	DB             *gorm.DB
	IdempotencyTTL time.Duration
}

// NewInteractionService constructs an InteractionService.
func NewInteractionService(db *gorm.DB, ttl time.Duration) *InteractionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &InteractionService{DB: db, IdempotencyTTL: ttl}
}

// Record stores in, assigning its ID.
func (s *InteractionService) Record(ctx context.Context, in *domain.Interaction) error {
	_, err := repo.CreateInteraction(ctx, s.DB, in)
	return err
}

// ListPage returns one page of a sender's history and the total.
func (s *InteractionService) ListPage(ctx context.Context, channel, channelUserID string, page, pageSize int) ([]domain.Interaction, int64, error) {
	offset, limit := utils.Page{Number: page, Size: pageSize}.Window()
	total, err := repo.CountInteractions(ctx, s.DB, channel, channelUserID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Interaction{}, 0, nil
	}
	items, err := repo.ListInteractionsPage(ctx, s.DB, channel, channelUserID, offset, limit)
	return items, total, err
}

// Replay returns the interaction previously produced for key, if the key is
// still live.
func (s *InteractionService) Replay(ctx context.Context, channel, channelUserID, key string) (*domain.Interaction, bool) {
	rec, err := repo.GetIdempotency(ctx, s.DB, channelUserID, channel, key, time.Now().UTC())
	if err != nil || rec == nil {
		return nil, false
	}
	in, err := repo.GetInteraction(ctx, s.DB, rec.InteractionID)
	if err != nil {
		return nil, false
	}
	return in, true
}

// Seen reports whether key already has a live record. Lookup failures read
// as unseen.
func (s *InteractionService) Seen(ctx context.Context, channel, channelUserID, key string, now time.Time) bool {
	rec, err := repo.GetIdempotency(ctx, s.DB, channelUserID, channel, key, now)
	return err == nil && rec != nil
}

// Remember binds key to interactionID for the configured TTL. A concurrent
// request that stored the key first wins; that is not an error.
func (s *InteractionService) Remember(ctx context.Context, channel, channelUserID, key, interactionID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, channelUserID, channel, key, interactionID, status, s.IdempotencyTTL)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Purge deletes expired idempotency records.
func (s *InteractionService) Purge(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, time.Now().UTC())
}
