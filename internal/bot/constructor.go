package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookkicker/internal/reading"
	"bookkicker/internal/storage"
)

// NewBot creates a new Telegram bot
func NewBot(token string, db storage.Store, sessions storage.SessionStore, tracker *reading.Tracker, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return &Bot{
		api:      api,
		db:       db,
		sessions: sessions,
		tracker:  tracker,
		logger:   logger,
	}, nil
}

// GetAPI returns the bot API for testing
func (b *Bot) GetAPI() *tgbotapi.BotAPI {
	return b.api
}
