package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers a text message to one chat identity.
type Notifier interface {
	Notify(ctx context.Context, chatID string, text string) error
}

// MessageSender is the slice of *tgbotapi.BotAPI the notifier needs.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends HTML-formatted messages through the Bot API.
type TelegramNotifier struct {
	Bot MessageSender
}

func NewTelegramNotifier(bot MessageSender) *TelegramNotifier {
	return &TelegramNotifier{Bot: bot}
}

func (n *TelegramNotifier) Notify(ctx context.Context, chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: chat id %q", ErrMalformedInput, chatID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = false
	if _, err := n.Bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage to %s failed: %w", chatID, err)
	}
	return nil
}

// DeliveryStats counts notification outcomes for the health endpoint.
type DeliveryStats struct {
	Sent   atomic.Int64
	Failed atomic.Int64
}

func (s *DeliveryStats) Snapshot() map[string]int64 {
	return map[string]int64{
		"sent":   s.Sent.Load(),
		"failed": s.Failed.Load(),
	}
}

// Dispatcher wraps a Notifier with the fire-and-forget contract: a failed
// delivery is logged and counted, never returned to the ledger operation
// that triggered it.
type Dispatcher struct {
	Notifier Notifier
	Stats    *DeliveryStats
}

func NewDispatcher(n Notifier) *Dispatcher {
	return &Dispatcher{Notifier: n, Stats: &DeliveryStats{}}
}

// Send reports whether the message was delivered.
func (d *Dispatcher) Send(ctx context.Context, chatID, text string) bool {
	if d == nil || d.Notifier == nil {
		return false
	}
	if err := d.Notifier.Notify(ctx, chatID, text); err != nil {
		d.Stats.Failed.Add(1)
		log.Printf("[NOTIFY] ❌ delivery failed chat_id=%s: %v", chatID, err)
		return false
	}
	d.Stats.Sent.Add(1)
	return true
}
