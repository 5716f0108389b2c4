// handlers/telegram_webhook.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"free-games-bot/middleware"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
)

const WebhookPath = "/api/telegram-webhook"

// SetupTelegramWebhookRoute answers 200 to every authenticated update so
// Telegram never retries; failures are reported to the chat instead.
func SetupTelegramWebhookRoute(app *fiber.App, router *CommandRouter, secret string) {
	app.Post(WebhookPath, middleware.WebhookSecretMiddleware(secret), func(c *fiber.Ctx) error {
		var update tgbotapi.Update
		if err := json.Unmarshal(c.Body(), &update); err != nil {
			log.Printf("[WEBHOOK] ⚠️ Undecodable update: %v", err)
			return c.JSON(fiber.Map{"ok": true, "handled": false})
		}
		if update.Message == nil {
			return c.JSON(fiber.Map{"ok": true, "handled": false})
		}
		router.HandleUpdate(c.UserContext(), update)
		return c.JSON(fiber.Map{"ok": true, "handled": true})
	})
}

// BotAPI is the part of *tgbotapi.BotAPI used for setup.
type BotAPI interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// PublishBotCommands sets the command menu shown in private chats.
func PublishBotCommands(bot BotAPI) {
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(BotCommands...)); err != nil {
		log.Printf("⚠️  Failed to set bot commands: %v", err)
	}
}

// RegisterWebhook points Telegram at baseURL + WebhookPath.
func RegisterWebhook(bot BotAPI, baseURL, secret string) error {
	params := tgbotapi.Params{"url": baseURL + WebhookPath}
	params.AddNonEmpty("secret_token", secret)

	resp, err := bot.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("setWebhook failed: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("setWebhook rejected: %s", resp.Description)
	}
	log.Printf("✅ [BOT] Webhook registered at %s", baseURL+WebhookPath)
	return nil
}

// StartPolling long-polls for updates until ctx is cancelled.
func StartPolling(ctx context.Context, bot *tgbotapi.BotAPI, router *CommandRouter) {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Printf("⚠️  Failed to delete webhook before polling: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	log.Println("🤖 [BOT] Long polling for updates...")

	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	for update := range updates {
		go router.HandleUpdate(ctx, update)
	}
}
