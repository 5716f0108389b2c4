package services

import (
	"context"

	"free-games-bot/models"
)

// ClaimAppend is the outcome of LedgerStore.AppendClaim.
// Exactly one of the two shapes is set: Appended with NewCount, or Existing.
type ClaimAppend struct {
	Appended bool
	NewCount int64
	Existing models.ClaimedGame
}

// StoreProbe answers the DB connectivity probe.
type StoreProbe struct {
	Driver      string   `json:"driver"`
	Database    string   `json:"database"`
	Collections []string `json:"collections"`
}

// LedgerStore persists per-user subscription, claim and achievement state.
// Every mutation is atomic per chat ID; implementations wrap driver failures
// in ErrStorageUnavailable and report absent users as ErrUnknownUser.
type LedgerStore interface {
	// UpsertUser creates the record if absent; never touches an existing one.
	UpsertUser(ctx context.Context, chatID string, profile models.Profile) (created bool, err error)
	GetUser(ctx context.Context, chatID string) (*models.User, error)
	// DeleteUser removes the record with its whole history. Deleting an absent user is not an error.
	DeleteUser(ctx context.Context, chatID string) error

	// AppendClaim appends the claim and increments claimedCount in one atomic
	// step, unless the user already has a claim with the same URL.
	AppendClaim(ctx context.Context, chatID string, claim models.ClaimedGame) (ClaimAppend, error)
	// AddAchievement appends the achievement unless the name is already present.
	AddAchievement(ctx context.Context, chatID string, achievement models.Achievement) (added bool, err error)

	ListSubscribers(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) error
	Probe(ctx context.Context) (*StoreProbe, error)
	Close(ctx context.Context) error
}

// DigestRecorder keeps the history of broadcast digests.
type DigestRecorder interface {
	RecordDigest(ctx context.Context, run *models.DigestRun) error
	LatestDigest(ctx context.Context) (*models.DigestRun, error)
}
