package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bookkicker/internal/models"
	"bookkicker/internal/storage"
)

const entryTTL = 5 * time.Minute

// Store decorates a storage.Store with a read-through cache on the hot
// per-user reads: settings and positions. Every write to a cached value
// invalidates its key first, so the next read repopulates from the store.
type Store struct {
	storage.Store
	cache  Cache
	logger *zap.Logger
}

// NewStore wraps the underlying store with the given cache.
func NewStore(underlying storage.Store, cache Cache, logger *zap.Logger) *Store {
	return &Store{Store: underlying, cache: cache, logger: logger}
}

func settingsKey(userID int64) string {
	return fmt.Sprintf("settings:%d", userID)
}

func positionKey(userID int64, bookName string) string {
	return fmt.Sprintf("pos:%d:%s", userID, bookName)
}

func (s *Store) GetUserSettings(ctx context.Context, userID int64) (models.UserSettings, error) {
	key := settingsKey(userID)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var cached models.UserSettings
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		s.cache.Invalidate(ctx, key)
	}

	settings, err := s.Store.GetUserSettings(ctx, userID)
	if err != nil {
		return models.UserSettings{}, err
	}
	s.put(ctx, key, settings)
	return settings, nil
}

func (s *Store) GetPosition(ctx context.Context, userID int64, bookName string) (models.Position, error) {
	key := positionKey(userID, bookName)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var cached models.Position
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		s.cache.Invalidate(ctx, key)
	}

	pos, err := s.Store.GetPosition(ctx, userID, bookName)
	if err != nil {
		return models.Position{}, err
	}
	s.put(ctx, key, pos)
	return pos, nil
}

func (s *Store) put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Debug("Failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	s.cache.Set(ctx, key, string(raw), entryTTL)
}

// ==================== invalidating writes ====================

func (s *Store) EnsureUser(ctx context.Context, userID, chatID int64) error {
	s.cache.Invalidate(ctx, settingsKey(userID))
	return s.Store.EnsureUser(ctx, userID, chatID)
}

func (s *Store) setting(ctx context.Context, userID int64, write func() error) error {
	s.cache.Invalidate(ctx, settingsKey(userID))
	return write()
}

func (s *Store) SetCurrentBook(ctx context.Context, userID int64, bookName string) error {
	return s.setting(ctx, userID, func() error { return s.Store.SetCurrentBook(ctx, userID, bookName) })
}

func (s *Store) SetAutoSend(ctx context.Context, userID int64, enabled bool) error {
	return s.setting(ctx, userID, func() error { return s.Store.SetAutoSend(ctx, userID, enabled) })
}

func (s *Store) SetLang(ctx context.Context, userID int64, lang string) error {
	return s.setting(ctx, userID, func() error { return s.Store.SetLang(ctx, userID, lang) })
}

func (s *Store) SetFrequency(ctx context.Context, userID int64, perDay int) error {
	return s.setting(ctx, userID, func() error { return s.Store.SetFrequency(ctx, userID, perDay) })
}

func (s *Store) SetChunkSize(ctx context.Context, userID int64, chunkSize int) error {
	return s.setting(ctx, userID, func() error { return s.Store.SetChunkSize(ctx, userID, chunkSize) })
}

func (s *Store) SetAudio(ctx context.Context, userID int64, enabled bool) error {
	return s.setting(ctx, userID, func() error { return s.Store.SetAudio(ctx, userID, enabled) })
}

func (s *Store) SetTimezone(ctx context.Context, userID int64, tz string) error {
	return s.setting(ctx, userID, func() error { return s.Store.SetTimezone(ctx, userID, tz) })
}

func (s *Store) UpsertPosition(ctx context.Context, userID int64, bookName string, offset, totalLines int) error {
	s.cache.Invalidate(ctx, positionKey(userID, bookName))
	return s.Store.UpsertPosition(ctx, userID, bookName, offset, totalLines)
}

func (s *Store) AdvancePosition(ctx context.Context, userID int64, bookName string, delta int) (int, error) {
	s.cache.Invalidate(ctx, positionKey(userID, bookName))
	return s.Store.AdvancePosition(ctx, userID, bookName, delta)
}
