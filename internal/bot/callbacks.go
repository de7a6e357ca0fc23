package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookkicker/internal/models"
	"bookkicker/internal/storage"
)

// handleMenuCallback switches between top-level menu screens in place.
func (b *Bot) handleMenuCallback(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	b.answerCallback(query.ID, "")

	switch query.Data {
	case "menu:main":
		b.editMessage(chatID, messageID, msgText(lang, "menu"), mainMenu(lang))
	case "menu:settings":
		b.editMessage(chatID, messageID, msgText(lang, "settings"), settingsMenu(lang))
	case "menu:library":
		positions, err := b.db.ListPositions(ctx, userID)
		if err != nil {
			b.logger.Error("Failed to list positions", zap.Error(err), zap.Int64("user_id", userID))
			return
		}
		if len(positions) == 0 {
			b.editMessage(chatID, messageID, msgText(lang, "empty_library"), mainMenu(lang))
			return
		}
		b.editMessage(chatID, messageID, msgText(lang, "library"), libraryMenu(positions, lang))
	case "menu:stats":
		stats, err := b.sessions.TotalStats(ctx, userID)
		if err != nil {
			b.logger.Error("Failed to get stats", zap.Error(err), zap.Int64("user_id", userID))
			return
		}
		if stats.Sessions == 0 {
			b.editMessage(chatID, messageID, msgText(lang, "no_stats"), mainMenu(lang))
			return
		}
		b.editMessage(chatID, messageID, formatTotalStats(stats, lang), statsMenu(lang))
	}
}

// handleActionCallback runs immediate actions triggered from inline buttons.
func (b *Bot) handleActionCallback(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID

	switch query.Data {
	case "action:read_more":
		b.answerCallback(query.ID, "")
		if err := b.sendPortion(ctx, userID, chatID, lang); err != nil {
			b.reportDeliveryError(chatID, userID, "read_more", lang, err)
		}
	case "action:skip":
		settings, err := b.db.GetUserSettings(ctx, userID)
		if err != nil || settings.CurrentBook == "" {
			b.answerCallback(query.ID, msgText(lang, "no_book"))
			return
		}
		if _, err := b.tracker.Advance(ctx, userID, settings.CurrentBook, 100); err != nil {
			b.answerCallback(query.ID, msgText(lang, "try_again"))
			return
		}
		b.answerCallback(query.ID, msgText(lang, "skipped"))
		if err := b.sendPortion(ctx, userID, chatID, lang); err != nil {
			b.reportDeliveryError(chatID, userID, "skip", lang, err)
		}
	case "action:add_bookmark":
		b.addBookmarkAtCurrent(ctx, query, lang)
	case "action:toggle_auto":
		b.toggleAutoSend(ctx, query, lang)
	case "action:help":
		b.answerCallback(query.ID, "")
		b.editMessage(chatID, query.Message.MessageID, msgText(lang, "help"), mainMenu(lang))
	default:
		b.answerCallback(query.ID, "")
	}
}

// addBookmarkAtCurrent stores a bookmark at the current reading position.
func (b *Bot) addBookmarkAtCurrent(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID

	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil || settings.CurrentBook == "" {
		b.answerCallback(query.ID, msgText(lang, "no_book"))
		return
	}

	pos, err := b.tracker.Position(ctx, userID, settings.CurrentBook)
	if err != nil {
		b.answerCallback(query.ID, msgText(lang, "no_book"))
		return
	}

	if err := b.db.AddBookmark(ctx, userID, settings.CurrentBook, pos.Offset, ""); err != nil {
		b.logger.Error("Failed to add bookmark", zap.Error(err), zap.Int64("user_id", userID))
		b.answerCallback(query.ID, msgText(lang, "try_again"))
		return
	}
	b.answerCallback(query.ID, msgText(lang, "bookmark_added"))
}

func (b *Bot) toggleAutoSend(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID

	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil {
		b.answerCallback(query.ID, msgText(lang, "try_again"))
		return
	}

	enabled := !settings.AutoSend
	if err := b.db.SetAutoSend(ctx, userID, enabled); err != nil {
		b.logger.Error("Failed to toggle auto-send", zap.Error(err), zap.Int64("user_id", userID))
		b.answerCallback(query.ID, msgText(lang, "try_again"))
		return
	}

	key := "auto_off"
	if enabled {
		key = "auto_on"
	}
	b.answerCallback(query.ID, msgText(lang, key))
}

// handleSettingCallback opens the per-setting submenus.
func (b *Bot) handleSettingCallback(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	b.answerCallback(query.ID, "")

	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to get user settings", zap.Error(err), zap.Int64("user_id", userID))
		return
	}

	switch query.Data {
	case "setting:frequency":
		b.editMessage(chatID, messageID, msgText(lang, "choose_freq"), frequencyMenu(settings.Frequency, lang))
	case "setting:chunk_size":
		b.editMessage(chatID, messageID, msgText(lang, "choose_chunk"), chunkSizeMenu(settings.ChunkSize, lang))
	case "setting:language":
		b.editMessage(chatID, messageID, msgText(lang, "choose_lang"), languageMenu(lang))
	case "setting:audio":
		b.editMessage(chatID, messageID, msgText(lang, "choose_audio"), audioMenu(settings.Audio, lang))
	}
}

func (b *Bot) handleLangSet(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID
	newLang := strings.TrimPrefix(query.Data, "lang:set:")

	if err := b.db.SetLang(ctx, userID, newLang); err != nil {
		if errors.Is(err, storage.ErrInvalidSetting) {
			b.answerCallback(query.ID, msgText("ru", "bad_setting"))
			return
		}
		b.logger.Error("Failed to set language", zap.Error(err), zap.Int64("user_id", userID))
		b.answerCallback(query.ID, msgText("ru", "try_again"))
		return
	}

	b.answerCallback(query.ID, msgText(newLang, "lang_changed"))
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, msgText(newLang, "settings"), settingsMenu(newLang))
}

func (b *Bot) handleFreqSet(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID

	n, err := strconv.Atoi(strings.TrimPrefix(query.Data, "freq:set:"))
	if err != nil {
		b.answerCallback(query.ID, msgText(lang, "bad_setting"))
		return
	}

	if err := b.db.SetFrequency(ctx, userID, n); err != nil {
		if errors.Is(err, storage.ErrInvalidSetting) {
			b.answerCallback(query.ID, msgText(lang, "bad_setting"))
			return
		}
		b.logger.Error("Failed to set frequency", zap.Error(err), zap.Int64("user_id", userID))
		b.answerCallback(query.ID, msgText(lang, "try_again"))
		return
	}

	b.answerCallback(query.ID, "✅")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, msgText(lang, "choose_freq"), frequencyMenu(n, lang))
}

func (b *Bot) handleChunkSet(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID

	n, err := strconv.Atoi(strings.TrimPrefix(query.Data, "chunk:set:"))
	if err != nil {
		b.answerCallback(query.ID, msgText(lang, "bad_setting"))
		return
	}

	if err := b.db.SetChunkSize(ctx, userID, n); err != nil {
		if errors.Is(err, storage.ErrInvalidSetting) {
			b.answerCallback(query.ID, msgText(lang, "bad_setting"))
			return
		}
		b.logger.Error("Failed to set chunk size", zap.Error(err), zap.Int64("user_id", userID))
		b.answerCallback(query.ID, msgText(lang, "try_again"))
		return
	}

	b.answerCallback(query.ID, "✅")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, msgText(lang, "choose_chunk"), chunkSizeMenu(n, lang))
}

func (b *Bot) handleAudioSet(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID
	enabled := strings.TrimPrefix(query.Data, "audio:set:") == "on"

	if err := b.db.SetAudio(ctx, userID, enabled); err != nil {
		b.logger.Error("Failed to set audio mode", zap.Error(err), zap.Int64("user_id", userID))
		b.answerCallback(query.ID, msgText(lang, "try_again"))
		return
	}

	key := "audio_off"
	if enabled {
		key = "audio_on"
	}
	b.answerCallback(query.ID, msgText(lang, key))
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, msgText(lang, "choose_audio"), audioMenu(enabled, lang))
}

// handleBookCallback selects a book or jumps to a bookmark.
func (b *Bot) handleBookCallback(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	data := query.Data

	switch {
	case strings.HasPrefix(data, "book:set:"):
		name := strings.TrimPrefix(data, "book:set:")
		if err := b.db.SetCurrentBook(ctx, userID, name); err != nil {
			b.logger.Error("Failed to set current book", zap.Error(err), zap.Int64("user_id", userID), zap.String("book", name))
			b.answerCallback(query.ID, msgText(lang, "try_again"))
			return
		}
		b.answerCallback(query.ID, msgText(lang, "book_selected"))
	case strings.HasPrefix(data, "book:jump:"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "book:jump:"), 10, 64)
		if err != nil {
			b.answerCallback(query.ID, "")
			return
		}
		b.jumpToBookmark(ctx, query, id, chatID, lang)
	default:
		b.answerCallback(query.ID, "")
	}
}

// jumpToBookmark moves the current book position to a stored bookmark and
// delivers from there.
func (b *Bot) jumpToBookmark(ctx context.Context, query *tgbotapi.CallbackQuery, bookmarkID, chatID int64, lang string) {
	userID := query.From.ID

	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil || settings.CurrentBook == "" {
		b.answerCallback(query.ID, msgText(lang, "no_book"))
		return
	}

	bookmarks, err := b.db.ListBookmarks(ctx, userID, settings.CurrentBook)
	if err != nil {
		b.answerCallback(query.ID, msgText(lang, "try_again"))
		return
	}

	var target *models.Bookmark
	for i := range bookmarks {
		if bookmarks[i].ID == bookmarkID {
			target = &bookmarks[i]
			break
		}
	}
	if target == nil {
		b.answerCallback(query.ID, msgText(lang, "no_bookmarks"))
		return
	}

	if err := b.tracker.JumpTo(ctx, userID, settings.CurrentBook, target.Offset); err != nil {
		b.logger.Error("Failed to jump to bookmark", zap.Error(err), zap.Int64("user_id", userID))
		b.answerCallback(query.ID, msgText(lang, "try_again"))
		return
	}

	b.answerCallback(query.ID, msgText(lang, "jumped"))
	if err := b.sendPortion(ctx, userID, chatID, lang); err != nil {
		b.reportDeliveryError(chatID, userID, "bookmark_jump", lang, err)
	}
}

// handleStatsCallback switches between stats periods.
func (b *Bot) handleStatsCallback(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	b.answerCallback(query.ID, "")

	switch query.Data {
	case "stats:total":
		stats, err := b.sessions.TotalStats(ctx, userID)
		if err != nil {
			b.logger.Error("Failed to get stats", zap.Error(err), zap.Int64("user_id", userID))
			return
		}
		if stats.Sessions == 0 {
			b.editMessage(chatID, messageID, msgText(lang, "no_stats"), statsMenu(lang))
			return
		}
		b.editMessage(chatID, messageID, formatTotalStats(stats, lang), statsMenu(lang))
	case "stats:week":
		b.showDailyStats(ctx, userID, chatID, messageID, 7, lang)
	case "stats:month":
		b.showDailyStats(ctx, userID, chatID, messageID, 30, lang)
	}
}

func (b *Bot) showDailyStats(ctx context.Context, userID, chatID int64, messageID, days int, lang string) {
	stats, err := b.sessions.DailyStats(ctx, userID, days)
	if err != nil {
		b.logger.Error("Failed to get daily stats", zap.Error(err), zap.Int64("user_id", userID))
		return
	}
	if len(stats) == 0 {
		b.editMessage(chatID, messageID, msgText(lang, "no_stats"), statsMenu(lang))
		return
	}

	var sb strings.Builder
	sb.WriteString(msgText(lang, "stats_title"))
	sb.WriteString("\n\n")
	for _, day := range stats {
		sb.WriteString(fmt.Sprintf("%s — %d %s\n",
			day.Date.Format("02.01"),
			day.Lines,
			label("строк", "lines", lang),
		))
	}
	b.editMessage(chatID, messageID, sb.String(), statsMenu(lang))
}

// handleBookmarkDelete removes a bookmark and refreshes the list.
func (b *Bot) handleBookmarkDelete(ctx context.Context, query *tgbotapi.CallbackQuery, lang string) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	id, err := strconv.ParseInt(strings.TrimPrefix(query.Data, "bm:del:"), 10, 64)
	if err != nil {
		b.answerCallback(query.ID, "")
		return
	}

	// Deleting a missing or foreign bookmark is a silent no-op.
	if err := b.db.DeleteBookmark(ctx, id, userID); err != nil {
		b.logger.Error("Failed to delete bookmark", zap.Error(err), zap.Int64("user_id", userID))
		b.answerCallback(query.ID, msgText(lang, "try_again"))
		return
	}
	b.answerCallback(query.ID, msgText(lang, "bookmark_gone"))

	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil || settings.CurrentBook == "" {
		return
	}
	bookmarks, err := b.db.ListBookmarks(ctx, userID, settings.CurrentBook)
	if err != nil {
		return
	}
	if len(bookmarks) == 0 {
		b.editMessage(chatID, messageID, msgText(lang, "no_bookmarks"), mainMenu(lang))
		return
	}
	b.editMessage(chatID, messageID, msgText(lang, "bookmarks"), bookmarksMenu(bookmarks, lang))
}
