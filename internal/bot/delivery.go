package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookkicker/internal/reading"
)

const maxUploadSize = 20 << 20 // Bot API file download limit

// sendPortion delivers the next chunk of the user's current book to the chat.
// It is the single delivery path shared by /more, callbacks and auto-send.
func (b *Bot) sendPortion(ctx context.Context, userID, chatID int64, lang string) error {
	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user settings: %w", err)
	}
	if settings.CurrentBook == "" {
		msg := tgbotapi.NewMessage(chatID, msgText(lang, "no_book"))
		b.sendMessage(msg)
		return nil
	}

	chunk, err := b.tracker.NextChunk(ctx, userID, settings.CurrentBook, settings.ChunkSize)
	if err != nil {
		return fmt.Errorf("failed to get next chunk: %w", err)
	}

	if chunk.Finished {
		msg := tgbotapi.NewMessage(chatID, msgText(lang, "book_finished"))
		msg.ReplyMarkup = mainMenu(lang)
		b.sendMessage(msg)
		return nil
	}

	text := chunk.Text
	if bar := reading.ProgressBar(chunk.Offset, chunk.Total, 10); bar != "" {
		text += "\n\n" + bar
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = readingMenu(lang)
	b.sendMessage(msg)
	return nil
}

// handleDocument ingests an uploaded book file. Only plain text is accepted.
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message, lang string) {
	userID := message.From.ID
	chatID := message.Chat.ID
	doc := message.Document

	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".txt" {
		msg := tgbotapi.NewMessage(chatID, msgText(lang, "bad_file_type"))
		b.sendMessage(msg)
		return
	}

	text, err := b.downloadDocument(ctx, doc)
	if err != nil {
		b.logger.Error("Failed to download document",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("file", doc.FileName),
		)
		msg := tgbotapi.NewMessage(chatID, msgText(lang, "upload_failed"))
		b.sendMessage(msg)
		return
	}

	book, err := b.tracker.Ingest(ctx, userID, doc.FileName, strings.TrimPrefix(ext, "."), text)
	if err != nil {
		b.logger.Error("Failed to ingest book",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("file", doc.FileName),
		)
		msg := tgbotapi.NewMessage(chatID, msgText(lang, "upload_failed"))
		b.sendMessage(msg)
		return
	}

	b.logger.Info("Book added",
		zap.Int64("user_id", userID),
		zap.String("book", book.Name),
		zap.Int("total_lines", book.TotalLines),
	)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgText(lang, "book_added"), book.Title))
	msg.ReplyMarkup = mainMenu(lang)
	b.sendMessage(msg)
}

// downloadDocument fetches the file contents through the Bot API.
func (b *Bot) downloadDocument(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	if b.api == nil {
		return "", fmt.Errorf("bot api is not configured")
	}
	if doc.FileSize > maxUploadSize {
		return "", fmt.Errorf("file too large: %d bytes", doc.FileSize)
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file url: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected download status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read file body: %w", err)
	}
	if len(data) > maxUploadSize {
		return "", fmt.Errorf("file too large")
	}
	return string(data), nil
}
