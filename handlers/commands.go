// handlers/commands.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"free-games-bot/models"
	"free-games-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Command handles one bot command and returns the reply for the chat.
// An empty reply means the services already notified the user.
type Command func(ctx context.Context, msg *tgbotapi.Message) string

const helpText = `🎮 <b>Free Games Bot</b>

/start - Subscribe to free game alerts
/stop - Unsubscribe and delete your history
/check - Show the current free games
/claim &lt;url&gt; &lt;title&gt; - Record a game you claimed
/claims - List your claimed games
/achievements - List your achievements
/help - Show this message`

const unknownCommandText = "⚙️ Unknown command. Use /check to see free games or /start to subscribe."

// BotCommands is the menu published with setMyCommands.
var BotCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Subscribe to free game alerts"},
	{Command: "check", Description: "Show the current free games"},
	{Command: "claim", Description: "Record a claimed game: /claim <url> <title>"},
	{Command: "claims", Description: "List your claimed games"},
	{Command: "achievements", Description: "List your achievements"},
	{Command: "stop", Description: "Unsubscribe"},
	{Command: "help", Description: "Show list of commands"},
}

// CommandRouter dispatches Telegram updates to the ledger and digest services.
// Webhook and long polling both feed it.
type CommandRouter struct {
	Subscriptions *services.SubscriptionService
	Claims        *services.ClaimService
	Grants        *services.GrantService
	Digest        *services.DigestService
	Milestones    *services.MilestoneTable
	Dispatcher    *services.Dispatcher

	registry map[string]Command
}

func NewCommandRouter(
	subs *services.SubscriptionService,
	claims *services.ClaimService,
	grants *services.GrantService,
	digest *services.DigestService,
	milestones *services.MilestoneTable,
	dispatcher *services.Dispatcher,
) *CommandRouter {
	r := &CommandRouter{
		Subscriptions: subs,
		Claims:        claims,
		Grants:        grants,
		Digest:        digest,
		Milestones:    milestones,
		Dispatcher:    dispatcher,
	}
	r.registry = map[string]Command{
		"start":        r.handleStart,
		"stop":         r.handleStop,
		"unsubscribe":  r.handleStop,
		"check":        r.handleCheck,
		"claim":        r.handleClaim,
		"claims":       r.handleClaims,
		"achievements": r.handleAchievements,
		"grant":        r.handleGrant,
		"help":         r.handleHelp,
	}
	return r
}

// HandleUpdate routes a message update and sends the reply. Other update
// kinds are ignored.
func (r *CommandRouter) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	chatID := services.ChatIDFromInt(msg.Chat.ID)
	log.Printf("📩 [BOT] chat_id=%s: %s", chatID, msg.Text)

	if reply := r.Reply(ctx, msg); reply != "" {
		r.Dispatcher.Send(ctx, chatID, reply)
	}
}

// Reply runs the command in msg and returns the text to answer with.
func (r *CommandRouter) Reply(ctx context.Context, msg *tgbotapi.Message) string {
	if !msg.IsCommand() {
		return unknownCommandText
	}
	cmd, ok := r.registry[strings.ToLower(msg.Command())]
	if !ok {
		return unknownCommandText
	}
	return cmd(ctx, msg)
}

func chatIDOf(msg *tgbotapi.Message) string {
	return services.ChatIDFromInt(msg.Chat.ID)
}

func profileOf(msg *tgbotapi.Message) models.Profile {
	if msg.From == nil {
		return models.Profile{Username: msg.Chat.UserName, FirstName: msg.Chat.FirstName, LastName: msg.Chat.LastName}
	}
	return models.Profile{Username: msg.From.UserName, FirstName: msg.From.FirstName, LastName: msg.From.LastName}
}

func errorReply(err error) string {
	switch {
	case errors.Is(err, services.ErrUnknownUser):
		return "👋 You are not subscribed yet. Send /start first."
	case errors.Is(err, services.ErrMalformedInput):
		return "⚠️ " + tgbotapi.EscapeText(tgbotapi.ModeHTML, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return "🚫 This command is for administrators only."
	default:
		return "❌ Something went wrong, please try again later."
	}
}

func (r *CommandRouter) handleStart(ctx context.Context, msg *tgbotapi.Message) string {
	created, err := r.Subscriptions.Subscribe(ctx, chatIDOf(msg), profileOf(msg))
	if err != nil {
		log.Printf("[BOT] ❌ subscribe failed: %v", err)
		return errorReply(err)
	}
	if !created {
		return "✅ You are already subscribed.\nUse /check to see the current free games."
	}
	return "👋 Hello! I will notify you when new free games show up.\nUse /check to see the current list."
}

func (r *CommandRouter) handleStop(ctx context.Context, msg *tgbotapi.Message) string {
	if err := r.Subscriptions.Unsubscribe(ctx, chatIDOf(msg)); err != nil {
		log.Printf("[BOT] ❌ unsubscribe failed: %v", err)
		return errorReply(err)
	}
	return "👋 You have been unsubscribed. Send /start to come back."
}

func (r *CommandRouter) handleCheck(ctx context.Context, _ *tgbotapi.Message) string {
	d, err := r.Digest.Run(ctx, false)
	if err != nil || d.Message == "" {
		log.Printf("[BOT] ❌ check failed: %v", err)
		return "❌ Could not fetch the free games list."
	}
	return d.Message
}

func (r *CommandRouter) handleClaim(ctx context.Context, msg *tgbotapi.Message) string {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		return "Usage: /claim &lt;url&gt; &lt;title&gt;"
	}
	// Success and duplicate replies are sent by the claim service itself.
	if _, err := r.Claims.Claim(ctx, chatIDOf(msg), strings.Join(args[1:], " "), args[0]); err != nil {
		return errorReply(err)
	}
	return ""
}

func (r *CommandRouter) handleClaims(ctx context.Context, msg *tgbotapi.Message) string {
	claims, err := r.Subscriptions.ListClaims(ctx, chatIDOf(msg))
	if err != nil {
		return errorReply(err)
	}
	return services.ClaimsMessage(claims)
}

func (r *CommandRouter) handleAchievements(ctx context.Context, msg *tgbotapi.Message) string {
	achievements, err := r.Subscriptions.ListAchievements(ctx, chatIDOf(msg))
	if err != nil {
		return errorReply(err)
	}
	return services.AchievementsMessage(achievements, r.Milestones)
}

func (r *CommandRouter) handleGrant(ctx context.Context, msg *tgbotapi.Message) string {
	requester := chatIDOf(msg)
	if !r.Grants.IsAdmin(requester) {
		return errorReply(services.ErrUnauthorized)
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		return "Usage: /grant &lt;chatId&gt; &lt;achievement&gt;"
	}

	result, err := r.Grants.Grant(ctx, args[0], strings.Join(args[1:], " "), requester)
	if err != nil {
		if errors.Is(err, services.ErrUnknownUser) {
			return fmt.Sprintf("⚠️ No subscriber with chat id %s.", tgbotapi.EscapeText(tgbotapi.ModeHTML, args[0]))
		}
		return errorReply(err)
	}
	title := tgbotapi.EscapeText(tgbotapi.ModeHTML, result.Title)
	if result.Status == services.GrantStatusAlreadyGranted {
		return fmt.Sprintf("ℹ️ %s already has <b>%s</b>.", result.ChatID, title)
	}
	return fmt.Sprintf("✅ Granted <b>%s</b> to %s.", title, result.ChatID)
}

func (r *CommandRouter) handleHelp(_ context.Context, _ *tgbotapi.Message) string {
	return helpText
}
