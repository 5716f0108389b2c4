package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"free-games-bot/models"
)

type ClaimStatus string

const (
	ClaimStatusClaimed        ClaimStatus = "claimed"
	ClaimStatusAlreadyClaimed ClaimStatus = "already_claimed"
)

// ClaimResult is what the caller reports back to the user.
// For AlreadyClaimed, Claim is the entry that was already in the ledger.
type ClaimResult struct {
	Status   ClaimStatus        `json:"status"`
	Claim    models.ClaimedGame `json:"claim"`
	NewCount int64              `json:"new_count,omitempty"`
	Unlocked []Milestone        `json:"unlocked,omitempty"`
}

type ClaimService struct {
	Store      LedgerStore
	Milestones *MilestoneTable
	Dispatcher *Dispatcher
	Now        func() time.Time
}

func NewClaimService(store LedgerStore, milestones *MilestoneTable, dispatcher *Dispatcher) *ClaimService {
	return &ClaimService{
		Store:      store,
		Milestones: milestones,
		Dispatcher: dispatcher,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

func validateClaim(title, rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: claim url is required", ErrMalformedInput)
	}
	if title == "" {
		return fmt.Errorf("%w: claim title is required", ErrMalformedInput)
	}
	// The URL is an opaque offer identifier; only whitespace inside it is rejected.
	if strings.ContainsAny(rawURL, " \t\n") {
		return fmt.Errorf("%w: claim url %q contains whitespace", ErrMalformedInput, rawURL)
	}
	if len(rawURL) > models.MaxClaimURLLength {
		return fmt.Errorf("%w: claim url exceeds %d bytes", ErrMalformedInput, models.MaxClaimURLLength)
	}
	if utf8.RuneCountInString(title) > models.MaxClaimTitleLength {
		return fmt.Errorf("%w: claim title exceeds %d characters", ErrMalformedInput, models.MaxClaimTitleLength)
	}
	return nil
}

// Claim records that chatID redeemed the offer at rawURL, then unlocks any
// milestone the new count qualifies for. A URL already in the user's history
// is an idempotent no-op reported as ClaimStatusAlreadyClaimed.
func (s *ClaimService) Claim(ctx context.Context, chatID, title, rawURL string) (*ClaimResult, error) {
	chatID, err := NormalizeChatID(chatID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	rawURL = strings.TrimSpace(rawURL)
	if err := validateClaim(title, rawURL); err != nil {
		return nil, err
	}

	claim := models.ClaimedGame{
		Title:     title,
		URL:       rawURL,
		ClaimedAt: s.Now(),
	}
	appended, err := s.Store.AppendClaim(ctx, chatID, claim)
	if err != nil {
		log.Printf("[CLAIM] ❌ chat_id=%s url=%s: %v", chatID, rawURL, err)
		return nil, err
	}

	if !appended.Appended {
		log.Printf("[CLAIM] ⚠️ chat_id=%s already claimed %s", chatID, rawURL)
		// A retry after a failed unlock lands here, so milestones are re-evaluated.
		unlocked, err := s.unlockMilestones(ctx, chatID)
		if err != nil {
			log.Printf("[CLAIM] ❌ milestone evaluation failed for chat_id=%s: %v", chatID, err)
			return nil, fmt.Errorf("claim already recorded, milestone evaluation failed: %w", err)
		}
		s.Dispatcher.Send(ctx, chatID, alreadyClaimedMessage(appended.Existing))
		for _, m := range unlocked {
			s.Dispatcher.Send(ctx, chatID, achievementMessage(m.Title))
		}
		return &ClaimResult{Status: ClaimStatusAlreadyClaimed, Claim: appended.Existing, Unlocked: unlocked}, nil
	}

	result := &ClaimResult{
		Status:   ClaimStatusClaimed,
		Claim:    claim,
		NewCount: appended.NewCount,
	}
	log.Printf("[CLAIM] 🎁 chat_id=%s claimed %q (count=%d)", chatID, title, appended.NewCount)

	// The claim is already durable here. If unlocking fails, any later claim,
	// including a retry of this one, re-evaluates from the stored count.
	unlocked, err := s.unlockMilestones(ctx, chatID)
	if err != nil {
		log.Printf("[CLAIM] ❌ milestone evaluation failed for chat_id=%s: %v", chatID, err)
		return nil, fmt.Errorf("claim recorded, milestone evaluation failed: %w", err)
	}
	result.Unlocked = unlocked

	s.Dispatcher.Send(ctx, chatID, claimedMessage(claim))
	for _, m := range unlocked {
		s.Dispatcher.Send(ctx, chatID, achievementMessage(m.Title))
	}
	return result, nil
}

// unlockMilestones evaluates the fresh record and persists each qualifying
// milestone; only names this call actually added are returned.
func (s *ClaimService) unlockMilestones(ctx context.Context, chatID string) ([]Milestone, error) {
	user, err := s.Store.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}

	var unlocked []Milestone
	for _, m := range s.Milestones.Evaluate(user) {
		added, err := s.Store.AddAchievement(ctx, chatID, models.Achievement{
			Name:       m.Name,
			Source:     models.AchievementSourceMilestone,
			UnlockedAt: s.Now(),
		})
		if err != nil {
			return unlocked, err
		}
		if added {
			log.Printf("[CLAIM] 🏆 Achievement unlocked: %s → %s", m.Name, chatID)
			unlocked = append(unlocked, m)
		}
	}
	return unlocked, nil
}
