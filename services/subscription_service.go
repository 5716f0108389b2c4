package services

import (
	"context"
	"log"

	"free-games-bot/models"
)

// SubscriptionService covers the read side of the ledger plus subscribe/unsubscribe.
type SubscriptionService struct {
	Store LedgerStore
}

func NewSubscriptionService(store LedgerStore) *SubscriptionService {
	return &SubscriptionService{Store: store}
}

// Subscribe creates the ledger record on first contact; later calls leave it untouched.
func (s *SubscriptionService) Subscribe(ctx context.Context, chatID string, profile models.Profile) (bool, error) {
	id, err := NormalizeChatID(chatID)
	if err != nil {
		return false, err
	}
	created, err := s.Store.UpsertUser(ctx, id, profile)
	if err != nil {
		return false, err
	}
	if created {
		log.Printf("👋 [SUBSCRIBE] New subscriber chat_id=%s (@%s)", id, profile.Username)
	}
	return created, nil
}

// Unsubscribe deletes the whole record, history included.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, chatID string) error {
	id, err := NormalizeChatID(chatID)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteUser(ctx, id); err != nil {
		return err
	}
	log.Printf("👋 [UNSUBSCRIBE] chat_id=%s removed", id)
	return nil
}

func (s *SubscriptionService) GetUser(ctx context.Context, chatID string) (*models.User, error) {
	id, err := NormalizeChatID(chatID)
	if err != nil {
		return nil, err
	}
	return s.Store.GetUser(ctx, id)
}

// ListClaims returns the claim history in insertion order.
func (s *SubscriptionService) ListClaims(ctx context.Context, chatID string) ([]models.ClaimedGame, error) {
	user, err := s.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return user.ClaimedList, nil
}

func (s *SubscriptionService) ListAchievements(ctx context.Context, chatID string) ([]models.Achievement, error) {
	user, err := s.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return user.Achievements, nil
}
