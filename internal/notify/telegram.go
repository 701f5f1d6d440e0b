// Package notify pushes executed trades and portfolio summaries to Telegram.
// It is an optional output channel; the engine works without it.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TradeAgent/models"
)

// Telegram sends trade notifications to a single chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram creates a notifier for the given bot token and chat
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// HandleSnapshot publishes the tick's executed trades. It is meant to be
// registered as the engine's snapshot subscriber.
func (t *Telegram) HandleSnapshot(snap models.Snapshot) {
	if len(snap.Trades) == 0 {
		return
	}

	var sb strings.Builder
	for _, trade := range snap.Trades {
		fmt.Fprintf(&sb, "%s %s %.2f @ $%.2f\n%s\n\n",
			trade.Type, trade.Symbol, trade.Quantity, trade.Price, trade.Reason)
	}
	fmt.Fprintf(&sb, "Portfolio: $%.2f (%.2f%%), cash $%.2f",
		snap.Portfolio.TotalValue, snap.Portfolio.TotalReturn, snap.Portfolio.Cash)

	msg := tgbotapi.NewMessage(t.chatID, sb.String())
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error().Err(err).Msg("Failed to send trade notification")
	}
}
