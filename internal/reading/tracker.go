package reading

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"bookkicker/internal/books"
	"bookkicker/internal/models"
	"bookkicker/internal/storage"
)

// Tracker owns the (user, book) -> position mapping and the delivery of text
// chunks. Both the bot handlers and the auto-send sweep go through it, so
// every delivered chunk updates the position and appends a reading session.
type Tracker struct {
	store    storage.Store
	sessions storage.SessionStore
	files    *books.Files
	logger   *zap.Logger
}

// NewTracker creates a position tracker.
func NewTracker(store storage.Store, sessions storage.SessionStore, files *books.Files, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:    store,
		sessions: sessions,
		files:    files,
		logger:   logger,
	}
}

// Position returns the stored position for a pair, or storage.ErrNotFound.
func (t *Tracker) Position(ctx context.Context, userID int64, bookName string) (models.Position, error) {
	return t.store.GetPosition(ctx, userID, bookName)
}

// Advance moves the offset by delta, clamped to [0, total], and records a
// reading session sized by the delta actually consumed. Advancing past the
// end clamps instead of erroring, so repeated advances at the boundary are
// no-ops on the offset.
func (t *Tracker) Advance(ctx context.Context, userID int64, bookName string, delta int) (int, error) {
	before, err := t.store.GetPosition(ctx, userID, bookName)
	if err != nil {
		return 0, err
	}

	newPos, err := t.store.AdvancePosition(ctx, userID, bookName, delta)
	if err != nil {
		return 0, err
	}

	consumed := newPos - before.Offset
	if consumed > 0 {
		t.recordSession(ctx, userID, bookName, consumed, 0)
	}
	return newPos, nil
}

// Chunk is one delivered portion of a book.
type Chunk struct {
	Text     string
	Offset   int
	Total    int
	Percent  float64
	Known    bool
	Finished bool
}

// NextChunk reads the next chunk-sized piece of the user's book, advances the
// position by the lines consumed and appends a reading session. A Finished
// chunk carries no text.
func (t *Tracker) NextChunk(ctx context.Context, userID int64, bookName string, chunkSize int) (Chunk, error) {
	pos, err := t.store.GetPosition(ctx, userID, bookName)
	if errors.Is(err, storage.ErrNotFound) {
		// First read of this book: create the row and backfill the total
		// from the book record if we have one.
		total := 0
		if book, berr := t.store.GetBook(ctx, userID, bookName); berr == nil {
			total = book.TotalLines
		}
		if err := t.store.UpsertPosition(ctx, userID, bookName, 0, total); err != nil {
			return Chunk{}, err
		}
		pos, err = t.store.GetPosition(ctx, userID, bookName)
	}
	if err != nil {
		return Chunk{}, err
	}

	// Lazy total backfill for rows created before the book was analyzed.
	if pos.TotalLines == 0 {
		if book, berr := t.store.GetBook(ctx, userID, bookName); berr == nil && book.TotalLines > 0 {
			if uerr := t.store.UpsertPosition(ctx, userID, bookName, pos.Offset, book.TotalLines); uerr == nil {
				pos.TotalLines = book.TotalLines
			}
		}
	}

	piece, err := t.files.ReadPiece(userID, bookName, pos.Offset, chunkSize)
	if err != nil {
		return Chunk{}, fmt.Errorf("failed to read book piece: %w", err)
	}

	if piece.Lines == 0 {
		// End of book. Record the empty session so the finish shows up in
		// the activity log.
		t.recordSession(ctx, userID, bookName, 0, 0)
		percent, known := Progress(pos.Offset, pos.TotalLines)
		return Chunk{Offset: pos.Offset, Total: pos.TotalLines, Percent: percent, Known: known, Finished: true}, nil
	}

	newPos, err := t.store.AdvancePosition(ctx, userID, bookName, piece.Lines)
	if err != nil {
		return Chunk{}, err
	}

	consumed := newPos - pos.Offset
	t.recordSession(ctx, userID, bookName, consumed, piece.Chars)

	percent, known := Progress(newPos, pos.TotalLines)
	return Chunk{
		Text:    piece.Text,
		Offset:  newPos,
		Total:   pos.TotalLines,
		Percent: percent,
		Known:   known,
	}, nil
}

// JumpTo sets the position to an absolute offset (bookmark jump). No session
// is recorded: nothing was read.
func (t *Tracker) JumpTo(ctx context.Context, userID int64, bookName string, offset int) error {
	pos, err := t.store.GetPosition(ctx, userID, bookName)
	if err != nil {
		return err
	}
	return t.store.UpsertPosition(ctx, userID, bookName, offset, pos.TotalLines)
}

// Ingest stores parsed book text, creates the book record with a zeroed
// position and makes it the user's current book. The text must already be
// plain UTF-8; format is the source extension for display only.
func (t *Tracker) Ingest(ctx context.Context, userID int64, name, format, text string) (models.Book, error) {
	title := strings.TrimSuffix(name, filepath.Ext(name))
	name = books.SanitizeName(name)
	if name == "" || text == "" {
		return models.Book{}, storage.ErrInvalidSetting
	}

	totalLines, err := t.files.Save(userID, name, text)
	if err != nil {
		return models.Book{}, fmt.Errorf("failed to save book text: %w", err)
	}

	book := models.Book{
		UserID:     userID,
		Name:       name,
		Title:      title,
		Format:     format,
		SizeBytes:  int64(len(text)),
		TotalLines: totalLines,
		TotalChars: len([]rune(text)),
		AddedAt:    time.Now().UTC(),
	}
	if err := t.store.CreateBook(ctx, book); err != nil {
		return models.Book{}, err
	}
	if err := t.store.UpsertPosition(ctx, userID, name, 0, totalLines); err != nil {
		return models.Book{}, err
	}
	if err := t.store.SetCurrentBook(ctx, userID, name); err != nil {
		return models.Book{}, err
	}
	return book, nil
}

func (t *Tracker) recordSession(ctx context.Context, userID int64, bookName string, lines, chars int) {
	err := t.sessions.AppendSession(ctx, models.ReadingSession{
		UserID:     userID,
		BookName:   bookName,
		LinesRead:  lines,
		CharsRead:  chars,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		// Statistics are best effort; losing a session must not fail delivery.
		t.logger.Warn("Failed to append reading session",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("book", bookName),
		)
	}
}
