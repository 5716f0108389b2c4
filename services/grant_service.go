package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"free-games-bot/models"
	"free-games-bot/utils"
)

type GrantStatus string

const (
	GrantStatusGranted        GrantStatus = "granted"
	GrantStatusAlreadyGranted GrantStatus = "already_granted"
)

type GrantResult struct {
	Status      GrantStatus `json:"status"`
	ChatID      string      `json:"chat_id"`
	Achievement string      `json:"achievement"`
	Title       string      `json:"title"`
}

// GrantService is the administrator override: it unlocks any achievement for
// any existing user without looking at claim counts.
type GrantService struct {
	Store       LedgerStore
	Milestones  *MilestoneTable
	Dispatcher  *Dispatcher
	AdminChatID string
	Now         func() time.Time
}

// NewGrantService normalizes adminChatID; an empty or invalid value disables grants entirely.
func NewGrantService(store LedgerStore, milestones *MilestoneTable, dispatcher *Dispatcher, adminChatID string) *GrantService {
	admin, err := NormalizeChatID(adminChatID)
	if err != nil {
		log.Printf("⚠️  [GRANT] No valid admin chat id configured, grants are disabled")
		admin = ""
	}
	return &GrantService{
		Store:       store,
		Milestones:  milestones,
		Dispatcher:  dispatcher,
		AdminChatID: admin,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *GrantService) IsAdmin(requesterID string) bool {
	if s.AdminChatID == "" {
		return false
	}
	id, err := NormalizeChatID(requesterID)
	return err == nil && id == s.AdminChatID
}

// Grant unlocks achievementName for targetChatID. The admin check runs before
// the target is even parsed, so unauthorized callers learn nothing about it.
func (s *GrantService) Grant(ctx context.Context, targetChatID, achievementName, requesterID string) (*GrantResult, error) {
	if !s.IsAdmin(requesterID) {
		log.Printf("🚫 [GRANT] Rejected grant from non-admin requester %q", requesterID)
		return nil, ErrUnauthorized
	}

	target, err := NormalizeChatID(targetChatID)
	if err != nil {
		return nil, err
	}
	name, title := s.resolve(achievementName)
	if name == "" {
		return nil, fmt.Errorf("%w: achievement name is required", ErrMalformedInput)
	}

	added, err := s.Store.AddAchievement(ctx, target, models.Achievement{
		Name:       name,
		Source:     models.AchievementSourceGrant,
		GrantedBy:  s.AdminChatID,
		UnlockedAt: s.Now(),
	})
	if err != nil {
		log.Printf("[GRANT] ❌ %s → %s: %v", name, target, err)
		return nil, err
	}

	result := &GrantResult{ChatID: target, Achievement: name, Title: title}
	if !added {
		result.Status = GrantStatusAlreadyGranted
		return result, nil
	}

	result.Status = GrantStatusGranted
	log.Printf("🎖️ [GRANT] %s → %s (by %s)", name, target, s.AdminChatID)
	s.Dispatcher.Send(ctx, target, grantedMessage(title))
	return result, nil
}

// resolve maps a free-form name onto a milestone when it names one,
// otherwise onto its slug.
func (s *GrantService) resolve(achievementName string) (name, title string) {
	if m, ok := s.Milestones.Resolve(achievementName); ok {
		return m.Name, m.Title
	}
	key := utils.AchievementKey(achievementName)
	return key, s.Milestones.Title(key)
}
