package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/himanishpuri/MixCue/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultCacheFile = "mixcue-cache.sqlite3"

// RecognitionEntry caches one fingerprint-service answer so repeated runs
// over the same mix stop burning service quota. Keyed by the mix content
// hash and the segment window in milliseconds.
type RecognitionEntry struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	MixHash    string `gorm:"uniqueIndex:idx_mix_segment,priority:1"`
	StartMs    int    `gorm:"uniqueIndex:idx_mix_segment,priority:2"`
	DurationMs int
	Source     string
	Title      string
	Performer  string
	Confidence float64
	CreatedAt  time.Time
}

type CacheClient struct {
	DB *gorm.DB
	db *sql.DB
}

func NewCacheClient(dbPath string) (*CacheClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&RecognitionEntry{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &CacheClient{DB: db, db: sqlDB}, nil
}

func (c *CacheClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the cached result for a segment, or nil on a cache miss. A
// cached entry with an empty title records a past definitive "no match" and
// is returned as (nil, true) so the services are not asked again.
func (c *CacheClient) Lookup(mixHash string, startMs int) (*model.RecognitionResult, bool, error) {
	if c == nil || c.DB == nil {
		return nil, false, nil
	}

	var entry RecognitionEntry
	err := c.DB.Where("mix_hash = ? AND start_ms = ?", mixHash, startMs).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}

	if entry.Title == "" {
		return nil, true, nil
	}
	return &model.RecognitionResult{
		Source:     entry.Source,
		Title:      entry.Title,
		Performer:  entry.Performer,
		Confidence: entry.Confidence,
	}, true, nil
}

// Store saves a recognition outcome for a segment; result may be nil to
// record a miss.
func (c *CacheClient) Store(mixHash string, startMs, durationMs int, result *model.RecognitionResult) error {
	if c == nil || c.DB == nil {
		return nil
	}

	entry := RecognitionEntry{
		MixHash:    mixHash,
		StartMs:    startMs,
		DurationMs: durationMs,
	}
	if result != nil {
		entry.Source = result.Source
		entry.Title = result.Title
		entry.Performer = result.Performer
		entry.Confidence = result.Confidence
	}

	err := c.DB.Where("mix_hash = ? AND start_ms = ?", mixHash, startMs).
		Assign(entry).
		FirstOrCreate(&RecognitionEntry{}).Error
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Purge drops every cached entry for one mix.
func (c *CacheClient) Purge(mixHash string) error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Where("mix_hash = ?", mixHash).Delete(&RecognitionEntry{}).Error
}
