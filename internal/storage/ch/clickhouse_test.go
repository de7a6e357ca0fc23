package ch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clickhouseTC "github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"bookkicker/internal/models"
)

// runMigrations manually creates the session log table; goose is only used by
// cmd/migrate
func runMigrations(ctx context.Context, db *ClickHouseDB) error {
	_ = db.conn.Exec(ctx, "DROP TABLE IF EXISTS reading_sessions")

	return db.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reading_sessions (
			user_id     Int64,
			book_name   String,
			lines_read  Int32,
			chars_read  Int32,
			occurred_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (user_id, occurred_at)
	`)
}

// setupTestDB creates a test ClickHouse instance using testcontainers
func setupTestDB(t *testing.T) (*ClickHouseDB, func()) {
	ctx := context.Background()

	clickhouseContainer, err := clickhouseTC.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouseTC.WithUsername("default"),
		clickhouseTC.WithPassword(""),
		clickhouseTC.WithDatabase("default"),
	)
	require.NoError(t, err, "Failed to start ClickHouse container")

	host, err := clickhouseContainer.Host(ctx)
	require.NoError(t, err)

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	db, err := NewClickHouseDB(host, port.Int(), "default", "default", "", false)
	require.NoError(t, err, "Failed to connect to ClickHouse")

	err = runMigrations(ctx, db)
	require.NoError(t, err, "Failed to run migrations")

	cleanup := func() {
		db.Close()
		clickhouseContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestClickHouseDB_AppendAndTotalStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	sessions := []models.ReadingSession{
		{UserID: 1, BookName: "war.txt", LinesRead: 10, CharsRead: 500, OccurredAt: base.Add(-2 * time.Hour)},
		{UserID: 1, BookName: "war.txt", LinesRead: 5, CharsRead: 250, OccurredAt: base.Add(-1 * time.Hour)},
		{UserID: 1, BookName: "peace.txt", LinesRead: 3, CharsRead: 100, OccurredAt: base},
		{UserID: 2, BookName: "war.txt", LinesRead: 99, CharsRead: 999, OccurredAt: base},
	}
	for _, s := range sessions {
		require.NoError(t, db.AppendSession(ctx, s))
	}

	stats, err := db.TotalStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Books)
	assert.Equal(t, 18, stats.Lines)
	assert.Equal(t, 850, stats.Chars)
	assert.Equal(t, 3, stats.Sessions)
	assert.WithinDuration(t, base.Add(-2*time.Hour), stats.FirstSession, time.Second)
	assert.WithinDuration(t, base, stats.LastSession, time.Second)

	// Another user's sessions stay separate
	stats, err = db.TotalStats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, 99, stats.Lines)

	// No sessions at all
	stats, err = db.TotalStats(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sessions)
}

func TestClickHouseDB_DailyStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	now := time.Now().UTC()
	sessions := []models.ReadingSession{
		{UserID: 1, BookName: "a", LinesRead: 10, CharsRead: 100, OccurredAt: now.Add(-30 * 24 * time.Hour)},
		{UserID: 1, BookName: "a", LinesRead: 7, CharsRead: 70, OccurredAt: now.Add(-2 * 24 * time.Hour)},
		{UserID: 1, BookName: "a", LinesRead: 5, CharsRead: 50, OccurredAt: now.Add(-time.Hour)},
		{UserID: 1, BookName: "a", LinesRead: 2, CharsRead: 20, OccurredAt: now.Add(-time.Minute)},
	}
	for _, s := range sessions {
		require.NoError(t, db.AppendSession(ctx, s))
	}

	stats, err := db.DailyStats(ctx, 1, 7)
	require.NoError(t, err)
	require.NotEmpty(t, stats)

	// The 30-day-old session is outside the window
	total := 0
	for _, d := range stats {
		total += d.Lines
	}
	assert.Equal(t, 14, total)

	// Newest day first
	for i := 0; i < len(stats)-1; i++ {
		assert.True(t, stats[i].Date.After(stats[i+1].Date))
	}
}

func TestClickHouseDB_ConcurrentAppends(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	numGoroutines := 10
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(idx int) {
			err := db.AppendSession(ctx, models.ReadingSession{
				UserID:     1,
				BookName:   "concurrent.txt",
				LinesRead:  1,
				CharsRead:  10,
				OccurredAt: time.Now().UTC().Add(time.Duration(idx) * time.Minute),
			})
			assert.NoError(t, err)
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	stats, err := db.TotalStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, numGoroutines, stats.Sessions)
}

func TestClickHouseDB_Close(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := db.Close()
	assert.NoError(t, err)
}
