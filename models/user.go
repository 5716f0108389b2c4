package models

import (
	"time"
)

// Profile is the display metadata Telegram sends with every message.
// Informational only; nothing in the ledger depends on it.
type Profile struct {
	Username  string `json:"username,omitempty" bson:"username,omitempty"`
	FirstName string `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" bson:"last_name,omitempty"`
}

// User is one subscriber of the bot, keyed by the canonical chat ID.
type User struct {
	ChatID  string  `gorm:"primaryKey;size:32" json:"chat_id" bson:"chatId"`
	Profile Profile `gorm:"embedded" json:"profile" bson:",inline"`

	JoinedAt time.Time `gorm:"not null" json:"joined_at" bson:"joinedAt"`

	// 🎁 Claim ledger
	ClaimedCount int64         `gorm:"not null;default:0" json:"claimed_count" bson:"claimedCount"`
	ClaimedList  []ClaimedGame `gorm:"foreignKey:ChatID;references:ChatID" json:"claimed_list" bson:"claimedList"`

	// 🏆 Achievements
	Achievements []Achievement `gorm:"foreignKey:ChatID;references:ChatID" json:"achievements" bson:"achievements"`
}

// HasClaimed reports whether url is already in the user's claim history.
func (u *User) HasClaimed(url string) (ClaimedGame, bool) {
	for _, c := range u.ClaimedList {
		if c.URL == url {
			return c, true
		}
	}
	return ClaimedGame{}, false
}

// HasAchievement reports whether the achievement name is already unlocked.
func (u *User) HasAchievement(name string) bool {
	for _, a := range u.Achievements {
		if a.Name == name {
			return true
		}
	}
	return false
}
