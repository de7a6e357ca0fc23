package models

import "time"

// UserSettings holds the per-user settings row. A row is created on first
// interaction and never deleted.
type UserSettings struct {
	UserID      int64
	ChatID      int64
	CurrentBook string
	AutoSend    bool
	Lang        string
	Frequency   int // deliveries per day: 1, 2, 4, 6 or 12
	ChunkSize   int // characters per delivered portion
	Audio       bool
	Timezone    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Book represents an uploaded book
type Book struct {
	UserID     int64
	Name       string
	Title      string
	Format     string
	SizeBytes  int64
	TotalLines int
	TotalChars int
	AddedAt    time.Time
}

// Position is the current read offset for a (user, book) pair
type Position struct {
	UserID     int64
	BookName   string
	Offset     int
	TotalLines int
	LastReadAt time.Time
}

// Bookmark is a saved position with an optional note
type Bookmark struct {
	ID        int64
	UserID    int64
	BookName  string
	Offset    int
	Note      string
	CreatedAt time.Time
}

// ReadingSession is one append-only log entry of delivered text
type ReadingSession struct {
	UserID     int64
	BookName   string
	LinesRead  int
	CharsRead  int
	OccurredAt time.Time
}

// TotalStats aggregates all reading sessions of a user
type TotalStats struct {
	Books        int
	Lines        int
	Chars        int
	Sessions     int
	FirstSession time.Time
	LastSession  time.Time
}

// DayStat is one calendar day of reading activity
type DayStat struct {
	Date  time.Time
	Lines int
	Chars int
}
