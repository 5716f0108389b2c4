package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAchievementKey(t *testing.T) {
	assert.Equal(t, "games-veteran", AchievementKey("  Games Veteran! "))
	assert.Equal(t, "first-claim", AchievementKey("first-claim"))
	assert.Equal(t, "", AchievementKey("   "))
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Veteran Collector", DisplayTitle("veteran-collector"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "héll…", Truncate("héllo world", 5))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
