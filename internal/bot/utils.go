package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sendMessage sends any chattable, logging failures instead of returning them
func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if b.api == nil {
		return // For testing
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

// answerCallback closes the inline button loading state
func (b *Bot) answerCallback(queryID, text string) {
	if b.api == nil {
		return // For testing
	}
	callback := tgbotapi.NewCallback(queryID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}

// editMessage replaces text and markup of an existing menu message
func (b *Bot) editMessage(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if b.api == nil {
		return // For testing
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("Failed to edit message", zap.Error(err))
	}
}
