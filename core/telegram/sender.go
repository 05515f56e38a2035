// Package telegram wraps the Bot API for outbound replies. The bot never
// polls: updates arrive over the webhook and this package only sends.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"postbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Bot is a send-only Telegram client.
type Bot struct {
	bot *tele.Bot
}

// New builds the client and verifies the token against the Bot API.
func New(token string) (*Bot, error) {
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Client: BuildHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	logger.Info(logger.Background(), "tg", "init",
		slog.String("payload", bot.Me.Username),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return &Bot{bot: bot}, nil
}

// Send delivers text to the chat, optionally attaching a reply keyboard.
func (b *Bot) Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := []interface{}{}
	if markup != nil {
		opts = append(opts, markup)
	}
	if _, err := b.bot.Send(tele.ChatID(chatID), text, opts...); err != nil {
		return fmt.Errorf("telegram: send to %d: %w", chatID, err)
	}
	return nil
}
