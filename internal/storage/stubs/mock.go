package stubs

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookkicker/internal/models"
	"bookkicker/internal/storage"
)

type posKey struct {
	userID   int64
	bookName string
}

// MockDB is an in-memory implementation of storage.Store and
// storage.SessionStore for testing and local development.
type MockDB struct {
	mu             sync.RWMutex
	users          map[int64]models.UserSettings
	books          map[posKey]models.Book
	positions      map[posKey]models.Position
	bookmarks      []models.Bookmark
	sessions       []models.ReadingSession
	nextBookmarkID int64
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		users:          make(map[int64]models.UserSettings),
		books:          make(map[posKey]models.Book),
		positions:      make(map[posKey]models.Position),
		nextBookmarkID: 1,
	}
}

// Initialize does nothing for the mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// ==================== Users ====================

func (m *MockDB) EnsureUser(ctx context.Context, userID, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.users[userID]; ok {
		s.ChatID = chatID
		m.users[userID] = s
		return nil
	}
	now := time.Now().UTC()
	m.users[userID] = models.UserSettings{
		UserID:    userID,
		ChatID:    chatID,
		Lang:      "ru",
		Frequency: 12,
		ChunkSize: 893,
		Timezone:  "UTC",
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (m *MockDB) GetUserSettings(ctx context.Context, userID int64) (models.UserSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.users[userID]
	if !ok {
		return models.UserSettings{}, storage.ErrNotFound
	}
	return s, nil
}

func (m *MockDB) updateUser(userID int64, fn func(*models.UserSettings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	fn(&s)
	s.UpdatedAt = time.Now().UTC()
	m.users[userID] = s
	return nil
}

func (m *MockDB) SetCurrentBook(ctx context.Context, userID int64, bookName string) error {
	return m.updateUser(userID, func(s *models.UserSettings) { s.CurrentBook = bookName })
}

func (m *MockDB) SetAutoSend(ctx context.Context, userID int64, enabled bool) error {
	return m.updateUser(userID, func(s *models.UserSettings) { s.AutoSend = enabled })
}

func (m *MockDB) SetLang(ctx context.Context, userID int64, lang string) error {
	if lang != "ru" && lang != "en" {
		return storage.ErrInvalidSetting
	}
	return m.updateUser(userID, func(s *models.UserSettings) { s.Lang = lang })
}

func (m *MockDB) SetFrequency(ctx context.Context, userID int64, perDay int) error {
	switch perDay {
	case 1, 2, 4, 6, 12:
	default:
		return storage.ErrInvalidSetting
	}
	return m.updateUser(userID, func(s *models.UserSettings) { s.Frequency = perDay })
}

func (m *MockDB) SetChunkSize(ctx context.Context, userID int64, chunkSize int) error {
	if chunkSize < 100 || chunkSize > 4096 {
		return storage.ErrInvalidSetting
	}
	return m.updateUser(userID, func(s *models.UserSettings) { s.ChunkSize = chunkSize })
}

func (m *MockDB) SetAudio(ctx context.Context, userID int64, enabled bool) error {
	return m.updateUser(userID, func(s *models.UserSettings) { s.Audio = enabled })
}

func (m *MockDB) SetTimezone(ctx context.Context, userID int64, tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return storage.ErrInvalidSetting
	}
	return m.updateUser(userID, func(s *models.UserSettings) { s.Timezone = tz })
}

func (m *MockDB) ListAutoSendUsers(ctx context.Context) ([]models.UserSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []models.UserSettings
	for _, s := range m.users {
		if s.AutoSend {
			users = append(users, s)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

// ==================== Books ====================

func (m *MockDB) CreateBook(ctx context.Context, book models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if book.AddedAt.IsZero() {
		book.AddedAt = time.Now().UTC()
	}
	m.books[posKey{book.UserID, book.Name}] = book
	return nil
}

func (m *MockDB) GetBook(ctx context.Context, userID int64, name string) (models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[posKey{userID, name}]
	if !ok {
		return models.Book{}, storage.ErrNotFound
	}
	return b, nil
}

func (m *MockDB) ListBooks(ctx context.Context, userID int64) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var books []models.Book
	for k, b := range m.books {
		if k.userID == userID {
			books = append(books, b)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].AddedAt.After(books[j].AddedAt) })
	return books, nil
}

// ==================== Positions ====================

func (m *MockDB) UpsertPosition(ctx context.Context, userID int64, bookName string, offset, totalLines int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := posKey{userID, bookName}
	pos, ok := m.positions[key]
	if !ok {
		pos = models.Position{UserID: userID, BookName: bookName}
	}
	if totalLines > 0 {
		pos.TotalLines = totalLines
	}
	pos.Offset = clamp(offset, pos.TotalLines)
	pos.LastReadAt = time.Now().UTC()
	m.positions[key] = pos
	return nil
}

func (m *MockDB) GetPosition(ctx context.Context, userID int64, bookName string) (models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.positions[posKey{userID, bookName}]
	if !ok {
		return models.Position{}, storage.ErrNotFound
	}
	return pos, nil
}

func (m *MockDB) AdvancePosition(ctx context.Context, userID int64, bookName string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := posKey{userID, bookName}
	pos, ok := m.positions[key]
	if !ok {
		return 0, storage.ErrNotFound
	}
	pos.Offset = clamp(pos.Offset+delta, pos.TotalLines)
	pos.LastReadAt = time.Now().UTC()
	m.positions[key] = pos
	return pos.Offset, nil
}

func (m *MockDB) ListPositions(ctx context.Context, userID int64) ([]models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var positions []models.Position
	for k, pos := range m.positions {
		if k.userID == userID {
			positions = append(positions, pos)
		}
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].LastReadAt.After(positions[j].LastReadAt)
	})
	return positions, nil
}

func clamp(offset, total int) int {
	if offset < 0 {
		return 0
	}
	if total > 0 && offset > total {
		return total
	}
	return offset
}

// ==================== Bookmarks ====================

func (m *MockDB) AddBookmark(ctx context.Context, userID int64, bookName string, offset int, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bookmarks = append(m.bookmarks, models.Bookmark{
		ID:        m.nextBookmarkID,
		UserID:    userID,
		BookName:  bookName,
		Offset:    offset,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	})
	m.nextBookmarkID++
	return nil
}

func (m *MockDB) ListBookmarks(ctx context.Context, userID int64, bookName string) ([]models.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var bookmarks []models.Bookmark
	for _, bm := range m.bookmarks {
		if bm.UserID == userID && bm.BookName == bookName {
			bookmarks = append(bookmarks, bm)
		}
	}
	sort.Slice(bookmarks, func(i, j int) bool {
		return bookmarks[i].CreatedAt.Before(bookmarks[j].CreatedAt)
	})
	return bookmarks, nil
}

func (m *MockDB) DeleteBookmark(ctx context.Context, bookmarkID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, bm := range m.bookmarks {
		if bm.ID == bookmarkID && bm.UserID == userID {
			m.bookmarks = append(m.bookmarks[:i], m.bookmarks[i+1:]...)
			return nil
		}
	}
	// Not owned or not found: no-op
	return nil
}

// ==================== Reading sessions ====================

func (m *MockDB) AppendSession(ctx context.Context, s models.ReadingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.OccurredAt.IsZero() {
		s.OccurredAt = time.Now().UTC()
	}
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *MockDB) TotalStats(ctx context.Context, userID int64) (models.TotalStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats models.TotalStats
	books := make(map[string]bool)
	for _, s := range m.sessions {
		if s.UserID != userID {
			continue
		}
		books[s.BookName] = true
		stats.Lines += s.LinesRead
		stats.Chars += s.CharsRead
		stats.Sessions++
		if stats.FirstSession.IsZero() || s.OccurredAt.Before(stats.FirstSession) {
			stats.FirstSession = s.OccurredAt
		}
		if s.OccurredAt.After(stats.LastSession) {
			stats.LastSession = s.OccurredAt
		}
	}
	stats.Books = len(books)
	return stats, nil
}

func (m *MockDB) DailyStats(ctx context.Context, userID int64, days int) ([]models.DayStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	byDay := make(map[time.Time]*models.DayStat)
	for _, s := range m.sessions {
		if s.UserID != userID || s.OccurredAt.Before(cutoff) {
			continue
		}
		day := s.OccurredAt.UTC().Truncate(24 * time.Hour)
		stat, ok := byDay[day]
		if !ok {
			stat = &models.DayStat{Date: day}
			byDay[day] = stat
		}
		stat.Lines += s.LinesRead
		stat.Chars += s.CharsRead
	}

	var stats []models.DayStat
	for _, stat := range byDay {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date.After(stats[j].Date) })
	return stats, nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
