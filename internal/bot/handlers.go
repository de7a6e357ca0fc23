package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			msg := tgbotapi.NewMessage(message.Chat.ID, msgText("ru", "try_again"))
			b.sendMessage(msg)
		}
	}()

	userID := message.From.ID
	chatID := message.Chat.ID
	ctx := context.Background()

	// Users are created on first contact and never deleted
	if err := b.db.EnsureUser(ctx, userID, chatID); err != nil {
		b.logger.Error("Failed to ensure user",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("op", "ensure_user"),
		)
	}

	lang := b.userLang(ctx, userID)

	// Book uploads arrive as documents
	if message.Document != nil {
		b.handleDocument(ctx, message, lang)
		return
	}

	if !message.IsCommand() {
		msg := tgbotapi.NewMessage(chatID, msgText(lang, "unknown_command"))
		b.sendMessage(msg)
		return
	}

	switch message.Command() {
	case "start":
		b.handleStart(ctx, message, lang)
	case "help":
		b.handleHelp(message, lang)
	case "menu":
		b.handleMenu(message, lang)
	case "more":
		b.handleMore(ctx, message, lang)
	case "skip":
		b.handleSkip(ctx, message, lang)
	case "stats":
		b.handleStats(ctx, message, lang)
	case "library":
		b.handleLibrary(ctx, message, lang)
	case "bookmarks":
		b.handleBookmarks(ctx, message, lang)
	default:
		msg := tgbotapi.NewMessage(chatID, msgText(lang, "unknown_command"))
		b.sendMessage(msg)
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	userID := query.From.ID
	ctx := context.Background()

	if query.Message == nil {
		b.answerCallback(query.ID, "")
		return
	}

	if err := b.db.EnsureUser(ctx, userID, query.Message.Chat.ID); err != nil {
		b.logger.Error("Failed to ensure user",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("op", "ensure_user"),
		)
	}

	lang := b.userLang(ctx, userID)
	data := query.Data

	switch {
	case strings.HasPrefix(data, "menu:"):
		b.handleMenuCallback(ctx, query, lang)
	case strings.HasPrefix(data, "action:"):
		b.handleActionCallback(ctx, query, lang)
	case strings.HasPrefix(data, "setting:"):
		b.handleSettingCallback(ctx, query, lang)
	case strings.HasPrefix(data, "lang:set:"):
		b.handleLangSet(ctx, query)
	case strings.HasPrefix(data, "freq:set:"):
		b.handleFreqSet(ctx, query, lang)
	case strings.HasPrefix(data, "chunk:set:"):
		b.handleChunkSet(ctx, query, lang)
	case strings.HasPrefix(data, "audio:set:"):
		b.handleAudioSet(ctx, query, lang)
	case strings.HasPrefix(data, "book:"):
		b.handleBookCallback(ctx, query, lang)
	case strings.HasPrefix(data, "stats:"):
		b.handleStatsCallback(ctx, query, lang)
	case strings.HasPrefix(data, "bm:del:"):
		b.handleBookmarkDelete(ctx, query, lang)
	default:
		b.answerCallback(query.ID, "")
	}
}

// userLang resolves the user's interface language, defaulting to Russian.
func (b *Bot) userLang(ctx context.Context, userID int64) string {
	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil {
		return "ru"
	}
	return settings.Lang
}
