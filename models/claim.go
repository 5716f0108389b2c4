package models

import "time"

// Column limits; the claim service rejects longer input before it reaches the store.
const (
	MaxClaimURLLength   = 1024
	MaxClaimTitleLength = 512
)

// ClaimedGame = user redeemed one specific offer, identified by URL
type ClaimedGame struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-" bson:"-"`
	ChatID    string    `gorm:"size:32;not null;uniqueIndex:idx_claimed_games_chat_url" json:"-" bson:"-"`
	Title     string    `gorm:"size:512;not null" json:"title" bson:"title"`
	URL       string    `gorm:"size:1024;not null;uniqueIndex:idx_claimed_games_chat_url" json:"url" bson:"url"`
	ClaimedAt time.Time `gorm:"not null" json:"claimed_at" bson:"claimedAt"`
}

const (
	AchievementSourceMilestone = "milestone"
	AchievementSourceGrant     = "grant"
)

// Achievement: unlocked instance, unique by Name per user
type Achievement struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"-" bson:"-"`
	ChatID     string    `gorm:"size:32;not null;uniqueIndex:idx_achievements_chat_name" json:"-" bson:"-"`
	Name       string    `gorm:"size:128;not null;uniqueIndex:idx_achievements_chat_name" json:"name" bson:"name"`
	Source     string    `gorm:"size:16;not null;default:'milestone'" json:"source" bson:"source"` // milestone | grant
	GrantedBy  string    `gorm:"size:32" json:"granted_by,omitempty" bson:"grantedBy,omitempty"`
	UnlockedAt time.Time `gorm:"not null" json:"unlocked_at" bson:"unlockedAt"`
}
