package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookkicker/internal/reading"
	"bookkicker/internal/storage"
)

// Bot represents the Telegram bot wrapper
type Bot struct {
	api      *tgbotapi.BotAPI
	db       storage.Store
	sessions storage.SessionStore
	tracker  *reading.Tracker
	logger   *zap.Logger
}
