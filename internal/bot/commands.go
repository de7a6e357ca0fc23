package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookkicker/internal/models"
	"bookkicker/internal/storage"
)

// handleStart shows the welcome message and the main menu
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message, lang string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "start"))
	msg.ReplyMarkup = mainMenu(lang)
	b.sendMessage(msg)
}

func (b *Bot) handleHelp(message *tgbotapi.Message, lang string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "help"))
	msg.ReplyMarkup = mainMenu(lang)
	b.sendMessage(msg)
}

func (b *Bot) handleMenu(message *tgbotapi.Message, lang string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "menu"))
	msg.ReplyMarkup = mainMenu(lang)
	b.sendMessage(msg)
}

// handleMore delivers the next portion of the current book
func (b *Bot) handleMore(ctx context.Context, message *tgbotapi.Message, lang string) {
	if err := b.sendPortion(ctx, message.From.ID, message.Chat.ID, lang); err != nil {
		b.reportDeliveryError(message.Chat.ID, message.From.ID, "more", lang, err)
	}
}

// handleSkip jumps ~100 lines ahead and delivers from there
func (b *Bot) handleSkip(ctx context.Context, message *tgbotapi.Message, lang string) {
	userID := message.From.ID

	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil || settings.CurrentBook == "" {
		msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "no_book"))
		b.sendMessage(msg)
		return
	}

	if _, err := b.tracker.Advance(ctx, userID, settings.CurrentBook, 100); err != nil {
		b.reportDeliveryError(message.Chat.ID, userID, "skip", lang, err)
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "skipped"))
	b.sendMessage(msg)

	if err := b.sendPortion(ctx, userID, message.Chat.ID, lang); err != nil {
		b.reportDeliveryError(message.Chat.ID, userID, "skip", lang, err)
	}
}

// handleStats shows total reading statistics
func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message, lang string) {
	userID := message.From.ID

	stats, err := b.sessions.TotalStats(ctx, userID)
	if err != nil {
		b.reportDeliveryError(message.Chat.ID, userID, "stats", lang, err)
		return
	}

	if stats.Sessions == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "no_stats"))
		b.sendMessage(msg)
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatTotalStats(stats, lang))
	msg.ReplyMarkup = statsMenu(lang)
	b.sendMessage(msg)
}

// handleLibrary lists the user's books with progress
func (b *Bot) handleLibrary(ctx context.Context, message *tgbotapi.Message, lang string) {
	userID := message.From.ID

	positions, err := b.db.ListPositions(ctx, userID)
	if err != nil {
		b.reportDeliveryError(message.Chat.ID, userID, "library", lang, err)
		return
	}

	if len(positions) == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "empty_library"))
		b.sendMessage(msg)
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "library"))
	msg.ReplyMarkup = libraryMenu(positions, lang)
	b.sendMessage(msg)
}

// handleBookmarks lists bookmarks of the current book
func (b *Bot) handleBookmarks(ctx context.Context, message *tgbotapi.Message, lang string) {
	userID := message.From.ID

	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil || settings.CurrentBook == "" {
		msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "no_book"))
		b.sendMessage(msg)
		return
	}

	bookmarks, err := b.db.ListBookmarks(ctx, userID, settings.CurrentBook)
	if err != nil {
		b.reportDeliveryError(message.Chat.ID, userID, "bookmarks", lang, err)
		return
	}

	if len(bookmarks) == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "no_bookmarks"))
		b.sendMessage(msg)
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, msgText(lang, "bookmarks"))
	msg.ReplyMarkup = bookmarksMenu(bookmarks, lang)
	b.sendMessage(msg)
}

// reportDeliveryError logs a failed operation and tells the user what to do
func (b *Bot) reportDeliveryError(chatID, userID int64, op, lang string, err error) {
	b.logger.Error("Operation failed",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("op", op),
	)

	key := "try_again"
	if errors.Is(err, storage.ErrNotFound) {
		key = "no_book"
	}
	msg := tgbotapi.NewMessage(chatID, msgText(lang, key))
	b.sendMessage(msg)
}

func formatTotalStats(stats models.TotalStats, lang string) string {
	var sb strings.Builder
	if lang == "en" {
		sb.WriteString("📊 Reading statistics\n\n")
		sb.WriteString(fmt.Sprintf("📚 Books: %d\n", stats.Books))
		sb.WriteString(fmt.Sprintf("📖 Lines read: %d\n", stats.Lines))
		sb.WriteString(fmt.Sprintf("🔤 Characters read: %d\n", stats.Chars))
		sb.WriteString(fmt.Sprintf("🎯 Sessions: %d\n", stats.Sessions))
		if !stats.FirstSession.IsZero() {
			sb.WriteString(fmt.Sprintf("📅 First read: %s\n", stats.FirstSession.Format("2006-01-02")))
			sb.WriteString(fmt.Sprintf("📅 Last read: %s\n", stats.LastSession.Format("2006-01-02")))
		}
	} else {
		sb.WriteString("📊 Статистика чтения\n\n")
		sb.WriteString(fmt.Sprintf("📚 Книг: %d\n", stats.Books))
		sb.WriteString(fmt.Sprintf("📖 Прочитано строк: %d\n", stats.Lines))
		sb.WriteString(fmt.Sprintf("🔤 Прочитано символов: %d\n", stats.Chars))
		sb.WriteString(fmt.Sprintf("🎯 Всего сессий: %d\n", stats.Sessions))
		if !stats.FirstSession.IsZero() {
			sb.WriteString(fmt.Sprintf("📅 Первое чтение: %s\n", stats.FirstSession.Format("2006-01-02")))
			sb.WriteString(fmt.Sprintf("📅 Последнее чтение: %s\n", stats.LastSession.Format("2006-01-02")))
		}
	}
	return sb.String()
}
