package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"bookkicker/internal/models"
	"bookkicker/internal/storage"
)

// ValidFrequencies are the allowed auto-send frequencies (deliveries per day).
var ValidFrequencies = map[int]bool{1: true, 2: true, 4: true, 6: true, 12: true}

const (
	minChunkSize = 100
	maxChunkSize = 4096 // telegram message limit
)

// PostgresDB implements storage.Store on top of PostgreSQL via the pgx
// stdlib driver. Connection pooling is handled by database/sql.
type PostgresDB struct {
	db *sql.DB
}

// NewPostgresDB opens a pooled connection to PostgreSQL and pings it.
func NewPostgresDB(host string, port int, database, user, password string, sslMode string) (*PostgresDB, error) {
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user, password, host, port, database, sslMode)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	// Small bounded pool; checkout blocks until a connection frees up or the
	// caller's context expires.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresDB{db: db}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (p *PostgresDB) Initialize(ctx context.Context) error {
	return nil
}

// ==================== Users ====================

// EnsureUser creates the settings row with defaults on first contact.
func (p *PostgresDB) EnsureUser(ctx context.Context, userID, chatID int64) error {
	const q = `
		INSERT INTO users (user_id, chat_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET chat_id = $2
	`
	if _, err := p.db.ExecContext(ctx, q, userID, chatID); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

func (p *PostgresDB) GetUserSettings(ctx context.Context, userID int64) (models.UserSettings, error) {
	const q = `
		SELECT user_id, chat_id, COALESCE(current_book, ''), auto_send, lang,
		       frequency, chunk_size, audio, timezone, created_at, updated_at
		FROM users WHERE user_id = $1
	`
	var s models.UserSettings
	err := p.db.QueryRowContext(ctx, q, userID).Scan(
		&s.UserID, &s.ChatID, &s.CurrentBook, &s.AutoSend, &s.Lang,
		&s.Frequency, &s.ChunkSize, &s.Audio, &s.Timezone, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserSettings{}, storage.ErrNotFound
	}
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("failed to get user settings: %w", err)
	}
	return s, nil
}

func (p *PostgresDB) setUserField(ctx context.Context, userID int64, field string, value any) error {
	q := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = now() WHERE user_id = $1`, field)
	res, err := p.db.ExecContext(ctx, q, userID, value)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *PostgresDB) SetCurrentBook(ctx context.Context, userID int64, bookName string) error {
	return p.setUserField(ctx, userID, "current_book", bookName)
}

func (p *PostgresDB) SetAutoSend(ctx context.Context, userID int64, enabled bool) error {
	return p.setUserField(ctx, userID, "auto_send", enabled)
}

func (p *PostgresDB) SetLang(ctx context.Context, userID int64, lang string) error {
	if lang != "ru" && lang != "en" {
		return storage.ErrInvalidSetting
	}
	return p.setUserField(ctx, userID, "lang", lang)
}

func (p *PostgresDB) SetFrequency(ctx context.Context, userID int64, perDay int) error {
	if !ValidFrequencies[perDay] {
		return storage.ErrInvalidSetting
	}
	return p.setUserField(ctx, userID, "frequency", perDay)
}

func (p *PostgresDB) SetChunkSize(ctx context.Context, userID int64, chunkSize int) error {
	if chunkSize < minChunkSize || chunkSize > maxChunkSize {
		return storage.ErrInvalidSetting
	}
	return p.setUserField(ctx, userID, "chunk_size", chunkSize)
}

func (p *PostgresDB) SetAudio(ctx context.Context, userID int64, enabled bool) error {
	return p.setUserField(ctx, userID, "audio", enabled)
}

func (p *PostgresDB) SetTimezone(ctx context.Context, userID int64, tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return storage.ErrInvalidSetting
	}
	return p.setUserField(ctx, userID, "timezone", tz)
}

// ListAutoSendUsers returns settings of every user with auto-send enabled.
func (p *PostgresDB) ListAutoSendUsers(ctx context.Context) ([]models.UserSettings, error) {
	const q = `
		SELECT user_id, chat_id, COALESCE(current_book, ''), auto_send, lang,
		       frequency, chunk_size, audio, timezone, created_at, updated_at
		FROM users
		WHERE auto_send = TRUE
		ORDER BY user_id
	`
	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-send users: %w", err)
	}
	defer rows.Close()

	var users []models.UserSettings
	for rows.Next() {
		var s models.UserSettings
		if err := rows.Scan(&s.UserID, &s.ChatID, &s.CurrentBook, &s.AutoSend, &s.Lang,
			&s.Frequency, &s.ChunkSize, &s.Audio, &s.Timezone, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user settings: %w", err)
		}
		users = append(users, s)
	}
	return users, rows.Err()
}

// ==================== Books ====================

func (p *PostgresDB) CreateBook(ctx context.Context, book models.Book) error {
	const q = `
		INSERT INTO books (user_id, name, title, format, size_bytes, total_lines, total_chars)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, name) DO UPDATE SET
			title = EXCLUDED.title,
			format = EXCLUDED.format,
			size_bytes = EXCLUDED.size_bytes,
			total_lines = EXCLUDED.total_lines,
			total_chars = EXCLUDED.total_chars
	`
	_, err := p.db.ExecContext(ctx, q,
		book.UserID, book.Name, book.Title, book.Format, book.SizeBytes, book.TotalLines, book.TotalChars)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (p *PostgresDB) GetBook(ctx context.Context, userID int64, name string) (models.Book, error) {
	const q = `
		SELECT user_id, name, title, format, size_bytes, total_lines, total_chars, added_at
		FROM books WHERE user_id = $1 AND name = $2
	`
	var b models.Book
	err := p.db.QueryRowContext(ctx, q, userID, name).Scan(
		&b.UserID, &b.Name, &b.Title, &b.Format, &b.SizeBytes, &b.TotalLines, &b.TotalChars, &b.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("failed to get book: %w", err)
	}
	return b, nil
}

func (p *PostgresDB) ListBooks(ctx context.Context, userID int64) ([]models.Book, error) {
	const q = `
		SELECT user_id, name, title, format, size_bytes, total_lines, total_chars, added_at
		FROM books WHERE user_id = $1 ORDER BY added_at DESC
	`
	rows, err := p.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.UserID, &b.Name, &b.Title, &b.Format, &b.SizeBytes,
			&b.TotalLines, &b.TotalChars, &b.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// ==================== Positions ====================

func (p *PostgresDB) UpsertPosition(ctx context.Context, userID int64, bookName string, offset, totalLines int) error {
	// On conflict the offset is clamped against the effective total: the new
	// one when given, the stored one otherwise.
	const q = `
		INSERT INTO positions (user_id, book_name, pos, total_lines, last_read_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, book_name) DO UPDATE SET
			total_lines = COALESCE(NULLIF(EXCLUDED.total_lines, 0), positions.total_lines),
			pos = LEAST(EXCLUDED.pos,
				CASE WHEN COALESCE(NULLIF(EXCLUDED.total_lines, 0), positions.total_lines) > 0
				     THEN COALESCE(NULLIF(EXCLUDED.total_lines, 0), positions.total_lines)
				     ELSE EXCLUDED.pos END),
			last_read_at = now()
	`
	if offset < 0 {
		offset = 0
	}
	if totalLines > 0 && offset > totalLines {
		offset = totalLines
	}
	if _, err := p.db.ExecContext(ctx, q, userID, bookName, offset, totalLines); err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}
	return nil
}

func (p *PostgresDB) GetPosition(ctx context.Context, userID int64, bookName string) (models.Position, error) {
	const q = `
		SELECT user_id, book_name, pos, total_lines, last_read_at
		FROM positions WHERE user_id = $1 AND book_name = $2
	`
	var pos models.Position
	err := p.db.QueryRowContext(ctx, q, userID, bookName).Scan(
		&pos.UserID, &pos.BookName, &pos.Offset, &pos.TotalLines, &pos.LastReadAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Position{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Position{}, fmt.Errorf("failed to get position: %w", err)
	}
	return pos, nil
}

// AdvancePosition moves the offset by delta in one conditioned update. The
// offset never leaves [0, total_lines]; concurrent advances (manual read and
// scheduler tick) serialize on the row lock instead of application locking.
func (p *PostgresDB) AdvancePosition(ctx context.Context, userID int64, bookName string, delta int) (int, error) {
	const q = `
		UPDATE positions
		SET pos = LEAST(GREATEST(pos + $3, 0), CASE WHEN total_lines > 0 THEN total_lines ELSE pos + $3 END),
		    last_read_at = now()
		WHERE user_id = $1 AND book_name = $2
		RETURNING pos
	`
	var newPos int
	err := p.db.QueryRowContext(ctx, q, userID, bookName, delta).Scan(&newPos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to advance position: %w", err)
	}
	return newPos, nil
}

func (p *PostgresDB) ListPositions(ctx context.Context, userID int64) ([]models.Position, error) {
	const q = `
		SELECT user_id, book_name, pos, total_lines, last_read_at
		FROM positions WHERE user_id = $1 ORDER BY last_read_at DESC
	`
	rows, err := p.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var pos models.Position
		if err := rows.Scan(&pos.UserID, &pos.BookName, &pos.Offset, &pos.TotalLines, &pos.LastReadAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// ==================== Bookmarks ====================

func (p *PostgresDB) AddBookmark(ctx context.Context, userID int64, bookName string, offset int, note string) error {
	const q = `
		INSERT INTO bookmarks (user_id, book_name, pos, note)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`
	if _, err := p.db.ExecContext(ctx, q, userID, bookName, offset, note); err != nil {
		return fmt.Errorf("failed to add bookmark: %w", err)
	}
	return nil
}

func (p *PostgresDB) ListBookmarks(ctx context.Context, userID int64, bookName string) ([]models.Bookmark, error) {
	const q = `
		SELECT id, user_id, book_name, pos, COALESCE(note, ''), created_at
		FROM bookmarks
		WHERE user_id = $1 AND book_name = $2
		ORDER BY created_at
	`
	rows, err := p.db.QueryContext(ctx, q, userID, bookName)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []models.Bookmark
	for rows.Next() {
		var bm models.Bookmark
		if err := rows.Scan(&bm.ID, &bm.UserID, &bm.BookName, &bm.Offset, &bm.Note, &bm.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, bm)
	}
	return bookmarks, rows.Err()
}

// DeleteBookmark removes a bookmark owned by the user. Deleting someone
// else's bookmark is a silent no-op.
func (p *PostgresDB) DeleteBookmark(ctx context.Context, bookmarkID, userID int64) error {
	const q = `DELETE FROM bookmarks WHERE id = $1 AND user_id = $2`
	if _, err := p.db.ExecContext(ctx, q, bookmarkID, userID); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (p *PostgresDB) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
