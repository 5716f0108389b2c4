package services

import (
	"fmt"
	"strings"

	"free-games-bot/models"
	"free-games-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func claimedMessage(c models.ClaimedGame) string {
	return fmt.Sprintf("🎁 You just claimed <b>%s</b>!\n👉 %s", esc(c.Title), esc(c.URL))
}

func alreadyClaimedMessage(c models.ClaimedGame) string {
	return fmt.Sprintf("⚠️ You already claimed <b>%s</b>.", esc(c.Title))
}

func achievementMessage(title string) string {
	return fmt.Sprintf("🏆 You unlocked a new achievement: <b>%s</b>!", esc(title))
}

func grantedMessage(title string) string {
	return fmt.Sprintf("🎖️ An admin granted you the achievement <b>%s</b>!", esc(title))
}

const (
	maxClaimsListed = 25
	// Telegram rejects messages over 4096 characters.
	maxMessageBytes = 3800
)

// ClaimsMessage renders a user's claim history, oldest first, capped to fit
// one Telegram message.
func ClaimsMessage(claims []models.ClaimedGame) string {
	if len(claims) == 0 {
		return "📭 You have not claimed any games yet. Use /claim &lt;url&gt; &lt;title&gt;."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎮 <b>Your claimed games (%d):</b>\n", len(claims))
	shown := 0
	for i, c := range claims {
		line := fmt.Sprintf("%d. <a href=\"%s\">%s</a> (%s)\n",
			i+1, esc(c.URL), esc(utils.Truncate(c.Title, maxTitleRunes)), c.ClaimedAt.Format("2006-01-02"))
		if shown == maxClaimsListed || b.Len()+len(line) > maxMessageBytes {
			break
		}
		b.WriteString(line)
		shown++
	}
	if rest := len(claims) - shown; rest > 0 {
		fmt.Fprintf(&b, "…and %d more\n", rest)
	}
	return b.String()
}

// AchievementsMessage renders unlocked achievements with their display titles.
func AchievementsMessage(achievements []models.Achievement, table *MilestoneTable) string {
	if len(achievements) == 0 {
		return "🏁 No achievements yet. Claim your first game to unlock one!"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 <b>Your achievements (%d):</b>\n", len(achievements))
	for _, a := range achievements {
		marker := ""
		if a.Source == models.AchievementSourceGrant {
			marker = " 🎖️"
		}
		fmt.Fprintf(&b, "• <b>%s</b>%s (%s)\n",
			esc(table.Title(a.Name)), marker, a.UnlockedAt.Format("2006-01-02"))
	}
	return b.String()
}
