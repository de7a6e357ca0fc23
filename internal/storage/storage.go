package storage

import (
	"context"
	"errors"

	"bookkicker/internal/models"
)

// ErrNotFound is returned when a user, book, position or bookmark does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidSetting is returned when a settings write carries a value outside
// the allowed range. The previous value is kept.
var ErrInvalidSetting = errors.New("invalid setting value")

// ErrUnavailable is returned when the underlying store cannot be reached
// (pool exhausted, connection refused). Callers surface it as a generic
// "try again" message and do not retry.
var ErrUnavailable = errors.New("storage unavailable")

// Store defines the transactional storage operations: user settings, books,
// positions and bookmarks.
type Store interface {
	// User settings. EnsureUser creates the row with defaults on first
	// interaction and is a no-op afterwards.
	EnsureUser(ctx context.Context, userID, chatID int64) error
	GetUserSettings(ctx context.Context, userID int64) (models.UserSettings, error)
	SetCurrentBook(ctx context.Context, userID int64, bookName string) error
	SetAutoSend(ctx context.Context, userID int64, enabled bool) error
	SetLang(ctx context.Context, userID int64, lang string) error
	SetFrequency(ctx context.Context, userID int64, perDay int) error
	SetChunkSize(ctx context.Context, userID int64, chunkSize int) error
	SetAudio(ctx context.Context, userID int64, enabled bool) error
	SetTimezone(ctx context.Context, userID int64, tz string) error

	// ListAutoSendUsers returns settings of every user with auto-send enabled.
	ListAutoSendUsers(ctx context.Context) ([]models.UserSettings, error)

	// Books
	CreateBook(ctx context.Context, book models.Book) error
	GetBook(ctx context.Context, userID int64, name string) (models.Book, error)
	ListBooks(ctx context.Context, userID int64) ([]models.Book, error)

	// Positions. UpsertPosition creates or resets the row;
	// AdvancePosition moves the offset by delta, clamped to [0, total_lines],
	// in a single conditioned update, and returns the new offset.
	UpsertPosition(ctx context.Context, userID int64, bookName string, offset, totalLines int) error
	GetPosition(ctx context.Context, userID int64, bookName string) (models.Position, error)
	AdvancePosition(ctx context.Context, userID int64, bookName string, delta int) (int, error)
	ListPositions(ctx context.Context, userID int64) ([]models.Position, error)

	// Bookmarks
	AddBookmark(ctx context.Context, userID int64, bookName string, offset int, note string) error
	ListBookmarks(ctx context.Context, userID int64, bookName string) ([]models.Bookmark, error)
	DeleteBookmark(ctx context.Context, bookmarkID, userID int64) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}

// SessionStore holds the append-only reading session log and its aggregates.
type SessionStore interface {
	AppendSession(ctx context.Context, s models.ReadingSession) error
	TotalStats(ctx context.Context, userID int64) (models.TotalStats, error)
	DailyStats(ctx context.Context, userID int64, days int) ([]models.DayStat, error)

	Initialize(ctx context.Context) error
	Close() error
}
