package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"suarawarga/internal/models"
)

// GormStore keeps entries in the kv_store table (postgres or sqlite).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string) (Entry, error) {
	var row models.KVEntry
	err := s.db.WithContext(ctx).Where("store_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("gorm get %s: %w", key, err)
	}
	return Entry{Key: row.Key, Value: []byte(row.Value), Version: row.Version}, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	db := s.db.WithContext(ctx)
	for attempt := 0; attempt < 2; attempt++ {
		res := db.Model(&models.KVEntry{}).
			Where("store_key = ?", key).
			Updates(map[string]any{
				"value":      string(value),
				"version":    gorm.Expr("version + ?", 1),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("gorm set %s: %w", key, res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		err := db.Create(&models.KVEntry{Key: key, Value: string(value), Version: 1}).Error
		if err == nil {
			return nil
		}
		// 并发创建同一个 key 时回退为更新
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("gorm set %s: %w", key, err)
		}
	}
	return fmt.Errorf("gorm set %s: %w", key, ErrVersionConflict)
}

func (s *GormStore) GetByPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	var rows []models.KVEntry
	err := s.db.WithContext(ctx).
		Where("store_key LIKE ? ESCAPE ?", escapeLike(prefix)+"%", `\`).
		Order("store_key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("gorm scan %s: %w", prefix, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{Key: row.Key, Value: []byte(row.Value), Version: row.Version})
	}
	return entries, nil
}

func (s *GormStore) CompareAndSwap(ctx context.Context, key string, value []byte, version uint64) (uint64, error) {
	db := s.db.WithContext(ctx)

	if version == 0 {
		err := db.Create(&models.KVEntry{Key: key, Value: string(value), Version: 1}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrVersionConflict
		}
		if err != nil {
			return 0, fmt.Errorf("gorm create %s: %w", key, err)
		}
		return 1, nil
	}

	res := db.Model(&models.KVEntry{}).
		Where("store_key = ? AND version = ?", key, version).
		Updates(map[string]any{
			"value":      string(value),
			"version":    version + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm cas %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrVersionConflict
	}
	return version + 1, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
