package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"bookkicker/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseDB implements storage.SessionStore. Reading sessions are an
// append-only log, which maps onto a MergeTree table; aggregates are computed
// server side.
type ClickHouseDB struct {
	conn clickhouse.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	return nil
}

// AppendSession records one delivered portion of text
func (db *ClickHouseDB) AppendSession(ctx context.Context, s models.ReadingSession) error {
	occurredAt := s.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	err := db.conn.Exec(ctx,
		`INSERT INTO reading_sessions (user_id, book_name, lines_read, chars_read, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		s.UserID, s.BookName, s.LinesRead, s.CharsRead, occurredAt)
	if err != nil {
		return fmt.Errorf("failed to append reading session: %w", err)
	}
	return nil
}

// TotalStats folds all sessions of a user into one aggregate
func (db *ClickHouseDB) TotalStats(ctx context.Context, userID int64) (models.TotalStats, error) {
	row := db.conn.QueryRow(ctx, `
		SELECT
			uniqExact(book_name),
			toInt64(sum(lines_read)),
			toInt64(sum(chars_read)),
			toInt64(count()),
			min(occurred_at),
			max(occurred_at)
		FROM reading_sessions
		WHERE user_id = ?
	`, userID)

	var (
		books                 uint64
		lines, chars, entries int64
		first, last           time.Time
	)
	if err := row.Scan(&books, &lines, &chars, &entries, &first, &last); err != nil {
		return models.TotalStats{}, fmt.Errorf("failed to get total stats: %w", err)
	}

	return models.TotalStats{
		Books:        int(books),
		Lines:        int(lines),
		Chars:        int(chars),
		Sessions:     int(entries),
		FirstSession: first,
		LastSession:  last,
	}, nil
}

// DailyStats returns per-day line/char counts for the trailing window,
// newest day first.
func (db *ClickHouseDB) DailyStats(ctx context.Context, userID int64, days int) ([]models.DayStat, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT
			toDate(occurred_at) AS day,
			toInt64(sum(lines_read)),
			toInt64(sum(chars_read))
		FROM reading_sessions
		WHERE user_id = ? AND occurred_at >= now() - INTERVAL ? DAY
		GROUP BY day
		ORDER BY day DESC
	`, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DayStat
	for rows.Next() {
		var (
			day          time.Time
			lines, chars int64
		)
		if err := rows.Scan(&day, &lines, &chars); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stats = append(stats, models.DayStat{Date: day, Lines: int(lines), Chars: int(chars)})
	}
	return stats, nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
