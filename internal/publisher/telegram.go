// telegram.go - Telegram delivery for published signals.
package publisher

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/0xLaVaN/prescience/internal/types"
)

// TelegramEmitter sends signals to a Telegram chat.
type TelegramEmitter struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramEmitter connects the bot API.
func NewTelegramEmitter(token string, chatID int64) (*TelegramEmitter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	log.Info().Str("username", api.Self.UserName).Msg("🤖 Telegram bot connected")
	return &TelegramEmitter{api: api, chatID: chatID}, nil
}

// Emit sends one rendered signal message.
func (t *TelegramEmitter) Emit(sig types.Signal) error {
	msg := tgbotapi.NewMessage(t.chatID, sig.Message)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
