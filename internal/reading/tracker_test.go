package reading

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookkicker/internal/books"
	"bookkicker/internal/storage"
	"bookkicker/internal/storage/stubs"
)

func newTestTracker(t *testing.T) (*Tracker, *stubs.MockDB) {
	t.Helper()
	db := stubs.NewMockDB()
	files, err := books.NewFiles(t.TempDir())
	require.NoError(t, err)
	return NewTracker(db, db, files, zap.NewNop()), db
}

// bookText builds n numbered lines.
func bookText(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	return sb.String()
}

func TestTracker_Ingest(t *testing.T) {
	tracker, db := newTestTracker(t)
	ctx := context.Background()
	userID := int64(1)

	require.NoError(t, db.EnsureUser(ctx, userID, 100))

	book, err := tracker.Ingest(ctx, userID, "war.txt", "txt", bookText(10))
	require.NoError(t, err)
	assert.Equal(t, "war.txt", book.Name)
	assert.Equal(t, "war", book.Title)
	assert.Equal(t, 10, book.TotalLines)

	// Position starts at zero with the total backfilled
	pos, err := tracker.Position(ctx, userID, book.Name)
	require.NoError(t, err)
	assert.Equal(t, 0, pos.Offset)
	assert.Equal(t, 10, pos.TotalLines)

	// The uploaded book becomes the current one
	settings, err := db.GetUserSettings(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, book.Name, settings.CurrentBook)
}

func TestTracker_IngestRejectsEmpty(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tracker.Ingest(ctx, 1, "empty.txt", "txt", "")
	assert.ErrorIs(t, err, storage.ErrInvalidSetting)
}

func TestTracker_NextChunk(t *testing.T) {
	tracker, db := newTestTracker(t)
	ctx := context.Background()
	userID := int64(1)

	_, err := tracker.Ingest(ctx, userID, "book.txt", "txt", bookText(4))
	require.NoError(t, err)

	// Each line is 7 bytes; a chunk of 10 consumes two lines.
	chunk, err := tracker.NextChunk(ctx, userID, "book.txt", 10)
	require.NoError(t, err)
	assert.False(t, chunk.Finished)
	assert.Equal(t, "line 1\nline 2\n", chunk.Text)
	assert.Equal(t, 2, chunk.Offset)
	assert.Equal(t, 4, chunk.Total)
	assert.True(t, chunk.Known)
	assert.InDelta(t, 50.0, chunk.Percent, 0.0001)

	// Second chunk picks up where the first stopped
	chunk, err = tracker.NextChunk(ctx, userID, "book.txt", 10)
	require.NoError(t, err)
	assert.Equal(t, "line 3\nline 4\n", chunk.Text)
	assert.Equal(t, 4, chunk.Offset)
	assert.InDelta(t, 100.0, chunk.Percent, 0.0001)

	// Every delivered chunk appended a reading session
	stats, err := db.TotalStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 4, stats.Lines)
}

func TestTracker_NextChunkFinished(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	userID := int64(1)

	_, err := tracker.Ingest(ctx, userID, "short.txt", "txt", bookText(2))
	require.NoError(t, err)

	_, err = tracker.NextChunk(ctx, userID, "short.txt", 1000)
	require.NoError(t, err)

	chunk, err := tracker.NextChunk(ctx, userID, "short.txt", 1000)
	require.NoError(t, err)
	assert.True(t, chunk.Finished)
	assert.Empty(t, chunk.Text)
	assert.Equal(t, 2, chunk.Offset)
}

func TestTracker_NextChunkCreatesMissingPosition(t *testing.T) {
	tracker, db := newTestTracker(t)
	ctx := context.Background()
	userID := int64(1)

	// Book exists but no position row yet
	_, err := tracker.Ingest(ctx, userID, "book.txt", "txt", bookText(3))
	require.NoError(t, err)
	_, err = tracker.Position(ctx, userID, "other.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	chunk, err := tracker.NextChunk(ctx, userID, "book.txt", 10)
	require.NoError(t, err)
	assert.False(t, chunk.Finished)

	pos, err := db.GetPosition(ctx, userID, "book.txt")
	require.NoError(t, err)
	assert.Equal(t, chunk.Offset, pos.Offset)
}

func TestTracker_Advance(t *testing.T) {
	tracker, db := newTestTracker(t)
	ctx := context.Background()
	userID := int64(1)

	_, err := tracker.Ingest(ctx, userID, "book.txt", "txt", bookText(50))
	require.NoError(t, err)

	newPos, err := tracker.Advance(ctx, userID, "book.txt", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, newPos)

	// Advancing past the end clamps to the total
	newPos, err = tracker.Advance(ctx, userID, "book.txt", 100)
	require.NoError(t, err)
	assert.Equal(t, 50, newPos)

	// Repeated advance at the boundary is a no-op and records no session
	newPos, err = tracker.Advance(ctx, userID, "book.txt", 100)
	require.NoError(t, err)
	assert.Equal(t, 50, newPos)

	stats, err := db.TotalStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 50, stats.Lines)
}

func TestTracker_AdvanceUnknownBook(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tracker.Advance(ctx, 1, "nope.txt", 10)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTracker_JumpTo(t *testing.T) {
	tracker, db := newTestTracker(t)
	ctx := context.Background()
	userID := int64(1)

	_, err := tracker.Ingest(ctx, userID, "book.txt", "txt", bookText(20))
	require.NoError(t, err)

	require.NoError(t, tracker.JumpTo(ctx, userID, "book.txt", 15))

	pos, err := tracker.Position(ctx, userID, "book.txt")
	require.NoError(t, err)
	assert.Equal(t, 15, pos.Offset)

	// Jumping records no session
	stats, err := db.TotalStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sessions)

	// Jump target is clamped to the book length
	require.NoError(t, tracker.JumpTo(ctx, userID, "book.txt", 1000))
	pos, err = tracker.Position(ctx, userID, "book.txt")
	require.NoError(t, err)
	assert.Equal(t, 20, pos.Offset)
}
