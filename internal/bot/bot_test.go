package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookkicker/internal/books"
	"bookkicker/internal/reading"
	"bookkicker/internal/storage/stubs"
)

// Note: We can't easily mock tgbotapi.BotAPI, so tests focus on internal logic
// without actually sending messages to Telegram

func newTestBot(t *testing.T) (*Bot, *stubs.MockDB) {
	t.Helper()
	db := stubs.NewMockDB()
	files, err := books.NewFiles(t.TempDir())
	require.NoError(t, err)
	tracker := reading.NewTracker(db, db, files, zap.NewNop())

	bot := &Bot{
		api:      nil, // Not needed for internal logic tests
		db:       db,
		sessions: db,
		tracker:  tracker,
		logger:   zap.NewNop(),
	}
	return bot, db
}

func commandMessage(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func callbackQuery(userID, chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "query-1",
		From: &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{
			MessageID: 1,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
		Data: data,
	}
}

func TestBot_StartCreatesUser(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(commandMessage(123, 456, "/start"))

	s, err := db.GetUserSettings(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, int64(456), s.ChatID)
	assert.Equal(t, "ru", s.Lang)
}

func TestBot_MoreDeliversChunk(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, db.EnsureUser(ctx, 123, 456))
	_, err := bot.tracker.Ingest(ctx, 123, "book.txt", "txt", "line 1\nline 2\nline 3\n")
	require.NoError(t, err)

	bot.handleMessage(commandMessage(123, 456, "/more"))

	pos, err := db.GetPosition(ctx, 123, "book.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, pos.Offset, "the whole short book fits in one default chunk")

	stats, err := db.TotalStats(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sessions)
}

func TestBot_MoreWithoutBook(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	// Must not panic and must not create sessions
	bot.handleMessage(commandMessage(123, 456, "/more"))

	stats, err := db.TotalStats(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sessions)
}

func TestBot_SkipAdvancesPosition(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, db.EnsureUser(ctx, 123, 456))

	var text string
	for i := 0; i < 500; i++ {
		text += "some line of the book\n"
	}
	_, err := bot.tracker.Ingest(ctx, 123, "long.txt", "txt", text)
	require.NoError(t, err)

	bot.handleMessage(commandMessage(123, 456, "/skip"))

	pos, err := db.GetPosition(ctx, 123, "long.txt")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pos.Offset, 100, "skip moves at least 100 lines ahead")
}

func TestBot_FreqCallback(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, db.EnsureUser(ctx, 123, 456))

	bot.handleCallbackQuery(callbackQuery(123, 456, "freq:set:4"))

	s, err := db.GetUserSettings(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Frequency)

	// Invalid frequency keeps the previous value
	bot.handleCallbackQuery(callbackQuery(123, 456, "freq:set:5"))
	s, err = db.GetUserSettings(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Frequency)
}

func TestBot_LangCallback(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, db.EnsureUser(ctx, 123, 456))

	bot.handleCallbackQuery(callbackQuery(123, 456, "lang:set:en"))

	s, err := db.GetUserSettings(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, "en", s.Lang)
}

func TestBot_ToggleAutoSend(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, db.EnsureUser(ctx, 123, 456))

	bot.handleCallbackQuery(callbackQuery(123, 456, "action:toggle_auto"))
	s, _ := db.GetUserSettings(ctx, 123)
	assert.True(t, s.AutoSend)

	bot.handleCallbackQuery(callbackQuery(123, 456, "action:toggle_auto"))
	s, _ = db.GetUserSettings(ctx, 123)
	assert.False(t, s.AutoSend)
}

func TestBot_BookmarkFlow(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, db.EnsureUser(ctx, 123, 456))
	_, err := bot.tracker.Ingest(ctx, 123, "book.txt", "txt", "a\nb\nc\nd\ne\n")
	require.NoError(t, err)
	_, err = bot.tracker.Advance(ctx, 123, "book.txt", 3)
	require.NoError(t, err)

	// Bookmark at the current position
	bot.handleCallbackQuery(callbackQuery(123, 456, "action:add_bookmark"))

	bookmarks, err := db.ListBookmarks(ctx, 123, "book.txt")
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, 3, bookmarks[0].Offset)

	// Move away, then jump back through the bookmark
	_, err = bot.tracker.Advance(ctx, 123, "book.txt", 2)
	require.NoError(t, err)

	bot.handleCallbackQuery(callbackQuery(123, 456, "book:jump:1"))
	pos, err := db.GetPosition(ctx, 123, "book.txt")
	require.NoError(t, err)
	// Jump lands on the bookmark, then the follow-up delivery advances from it
	assert.GreaterOrEqual(t, pos.Offset, 3)

	// Delete it
	bot.handleCallbackQuery(callbackQuery(123, 456, "bm:del:1"))
	bookmarks, err = db.ListBookmarks(ctx, 123, "book.txt")
	require.NoError(t, err)
	assert.Empty(t, bookmarks)
}

func TestBot_SweepOnce(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	// User 1: auto-send on, due at 14:00 UTC with the default frequency
	require.NoError(t, db.EnsureUser(ctx, 1, 100))
	_, err := bot.tracker.Ingest(ctx, 1, "a.txt", "txt", "x\ny\nz\n")
	require.NoError(t, err)
	require.NoError(t, db.SetAutoSend(ctx, 1, true))

	// User 2: auto-send off
	require.NoError(t, db.EnsureUser(ctx, 2, 200))
	_, err = bot.tracker.Ingest(ctx, 2, "b.txt", "txt", "x\ny\nz\n")
	require.NoError(t, err)

	// User 3: auto-send on but frequency 1 is only due at noon
	require.NoError(t, db.EnsureUser(ctx, 3, 300))
	_, err = bot.tracker.Ingest(ctx, 3, "c.txt", "txt", "x\ny\nz\n")
	require.NoError(t, err)
	require.NoError(t, db.SetAutoSend(ctx, 3, true))
	require.NoError(t, db.SetFrequency(ctx, 3, 1))

	tick := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	bot.SweepOnce(ctx, tick)

	pos1, err := db.GetPosition(ctx, 1, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, pos1.Offset, "due user received a delivery")

	pos2, err := db.GetPosition(ctx, 2, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, pos2.Offset, "auto-send off user untouched")

	pos3, err := db.GetPosition(ctx, 3, "c.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, pos3.Offset, "off-slot user untouched")
}

func TestBot_DocumentRejectsNonTxt(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	message := &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 123},
		Chat:     &tgbotapi.Chat{ID: 456},
		Document: &tgbotapi.Document{FileID: "f1", FileName: "book.pdf"},
	}
	bot.handleMessage(message)

	booksList, err := db.ListBooks(ctx, 123)
	require.NoError(t, err)
	assert.Empty(t, booksList)
}

func TestBot_UserLangFallback(t *testing.T) {
	bot, db := newTestBot(t)
	ctx := context.Background()

	assert.Equal(t, "ru", bot.userLang(ctx, 999), "unknown users default to Russian")

	require.NoError(t, db.EnsureUser(ctx, 1, 100))
	require.NoError(t, db.SetLang(ctx, 1, "en"))
	assert.Equal(t, "en", bot.userLang(ctx, 1))
}
