package storage

import (
	"path/filepath"
	"testing"

	"github.com/himanishpuri/MixCue/internal/model"
)

// Helper to create a temporary cache database
func setupTestCache(t *testing.T) *CacheClient {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test-cache.sqlite3")
	client, err := NewCacheClient(dbPath)
	if err != nil {
		t.Fatalf("Failed to create cache client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func TestCacheStoreAndLookup(t *testing.T) {
	cache := setupTestCache(t)

	result := &model.RecognitionResult{
		Source:     "acoustid",
		Title:      "One More Time",
		Performer:  "Daft Punk",
		Confidence: 0.92,
	}
	if err := cache.Store("hash-a", 120000, 30000, result); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, hit, err := cache.Lookup("hash-a", 120000)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !hit {
		t.Fatal("Expected a cache hit")
	}
	if got == nil || got.Title != result.Title || got.Performer != result.Performer {
		t.Errorf("Cached result %+v does not match stored %+v", got, result)
	}
	if got.Source != "acoustid" || got.Confidence != 0.92 {
		t.Errorf("Source/confidence not round-tripped: %+v", got)
	}
}

func TestCacheMiss(t *testing.T) {
	cache := setupTestCache(t)

	got, hit, err := cache.Lookup("unknown-hash", 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit || got != nil {
		t.Errorf("Expected a clean miss, got hit=%v result=%+v", hit, got)
	}
}

func TestCacheNegativeResult(t *testing.T) {
	cache := setupTestCache(t)

	// a nil result records a definitive "no match"
	if err := cache.Store("hash-b", 60000, 30000, nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, hit, err := cache.Lookup("hash-b", 60000)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !hit {
		t.Error("Expected a hit for the cached negative result")
	}
	if got != nil {
		t.Errorf("Expected nil result for a cached miss, got %+v", got)
	}
}

func TestCacheUpsert(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.Store("hash-c", 0, 30000, nil); err != nil {
		t.Fatalf("First store failed: %v", err)
	}
	updated := &model.RecognitionResult{Source: "shazam", Title: "Found Later", Confidence: 0.95}
	if err := cache.Store("hash-c", 0, 30000, updated); err != nil {
		t.Fatalf("Second store failed: %v", err)
	}

	got, hit, err := cache.Lookup("hash-c", 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !hit || got == nil || got.Title != "Found Later" {
		t.Errorf("Upsert did not replace the entry: hit=%v result=%+v", hit, got)
	}

	var count int64
	if err := cache.DB.Model(&RecognitionEntry{}).Where("mix_hash = ?", "hash-c").Count(&count).Error; err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected a single row after upsert, got %d", count)
	}
}

func TestCacheSegmentIsolation(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.Store("hash-d", 0, 30000, &model.RecognitionResult{Title: "First"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := cache.Store("hash-d", 300000, 30000, &model.RecognitionResult{Title: "Second"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	first, _, _ := cache.Lookup("hash-d", 0)
	second, _, _ := cache.Lookup("hash-d", 300000)
	if first == nil || second == nil || first.Title == second.Title {
		t.Errorf("Segments not isolated: %+v vs %+v", first, second)
	}
}

func TestCachePurge(t *testing.T) {
	cache := setupTestCache(t)

	cache.Store("hash-e", 0, 30000, &model.RecognitionResult{Title: "Gone"})
	cache.Store("hash-f", 0, 30000, &model.RecognitionResult{Title: "Kept"})

	if err := cache.Purge("hash-e"); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}

	if _, hit, _ := cache.Lookup("hash-e", 0); hit {
		t.Error("Purged entry still present")
	}
	if _, hit, _ := cache.Lookup("hash-f", 0); !hit {
		t.Error("Purge removed an unrelated mix")
	}
}
