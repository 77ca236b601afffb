// Package notify delivers manager alerts over Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"

	"salonbook/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type TelegramNotifier struct {
	bot     domain.TelegramSender
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewTelegramNotifier(bot domain.TelegramSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TelegramNotifier{bot: bot, chatIDs: append([]int64(nil), chatIDs...), logger: logger}
}

// NewBot connects to the Bot API with token.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return bot, nil
}

// NotifyManagers sends text to every configured chat. It fails only when no
// chat received the message.
func (n *TelegramNotifier) NotifyManagers(ctx context.Context, text string) error {
	if len(n.chatIDs) == 0 {
		return errors.New("notify: no manager chats configured")
	}

	var errs []error
	for _, chatID := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.DisableWebPagePreview = true
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	if len(errs) == len(n.chatIDs) {
		return errors.Join(errs...)
	}
	return nil
}

// LogNotifier writes alerts to the log when Telegram is not configured.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyManagers(_ context.Context, text string) error {
	n.logger.Warn().Str("alert", text).Msg("manager alert")
	return nil
}
