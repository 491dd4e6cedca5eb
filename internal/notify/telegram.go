// Package notify reports scrape and application outcomes to Telegram.
// Notifications are fire-and-forget: a delivery failure never fails the
// operation that produced it.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier is the outbound reporting boundary.
type Notifier interface {
	NotifyOutcome(summary string)
	NotifyError(kind, message, context string)
}

// Telegram sends notifications through a bot chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) NotifyOutcome(summary string) {
	t.send("✅ " + summary)
}

func (t *Telegram) NotifyError(kind, message, context string) {
	text := fmt.Sprintf("⚠️ <b>%s</b>\n%s", kind, message)
	if context != "" {
		text += "\n<i>" + context + "</i>"
	}
	t.send(text)
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML" //use HTML for bold/italic
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("⚠️ Failed to send telegram notification: %v", err)
	}
}

// Noop is used when no notification channel is configured.
type Noop struct{}

func (Noop) NotifyOutcome(string)       {}
func (Noop) NotifyError(_, _, _ string) {}
