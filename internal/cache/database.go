package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
)

var errNoDatabase = errors.New("cache: database store has no connection")

// DatabaseStore keeps cache entries in the cache_entries table. It backs the
// cache when Redis is disabled; expired rows are hidden on read and removed by
// PurgeExpired.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db, now: time.Now}
}

func (s *DatabaseStore) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, errNoDatabase
	}
	return s.db.WithContext(ensureContext(ctx)), nil
}

// Set writes value under key. A non-positive ttl stores the entry without expiry.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	entry := models.CacheEntry{Key: key, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}
	return db.Clauses(upsert).Create(&entry).Error
}

func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, false, err
	}

	var entry models.CacheEntry
	switch err := db.Take(&entry, "key = ?", key).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	if entry.Expired(s.now()) {
		return nil, false, db.Delete(&models.CacheEntry{}, "key = ?", key).Error
	}
	return entry.Value, true, nil
}

func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	db, err := s.conn(ctx)
	if err != nil || len(keys) == 0 {
		return err
	}
	return db.Delete(&models.CacheEntry{}, "key IN ?", keys).Error
}

// PurgeExpired deletes entries that expired before now and reports how many went.
func (s *DatabaseStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("expires_at > ? AND expires_at < ?", time.Time{}, now).Delete(&models.CacheEntry{})
	return res.RowsAffected, res.Error
}
