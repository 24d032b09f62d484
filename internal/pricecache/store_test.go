package pricecache

import (
	"path/filepath"
	"testing"
	"time"

	"complex-tracker/internal/config"
	"complex-tracker/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&models.PriceCache{}); err != nil {
		t.Fatal(err)
	}
	return NewStore(db, &config.CacheConfig{TTLDays: 30})
}

func TestGetSetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if _, _, ok := store.Get(models.CacheKindRealPrice, "11680", "202608"); ok {
		t.Fatal("expected miss on empty cache")
	}

	payload := []byte(`[{"dealAmount":"3억 5,000"}]`)
	store.Set(models.CacheKindRealPrice, "11680", "202608", payload, 1)

	data, totalCount, ok := store.Get(models.CacheKindRealPrice, "11680", "202608")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if string(data) != string(payload) || totalCount != 1 {
		t.Errorf("got %s count=%d", data, totalCount)
	}

	// other kind and other month stay independent
	if _, _, ok := store.Get(models.CacheKindRentPrice, "11680", "202608"); ok {
		t.Error("rent kind should miss")
	}
	if _, _, ok := store.Get(models.CacheKindRealPrice, "11680", "202607"); ok {
		t.Error("other month should miss")
	}
}

func TestSetReplacesExistingEntry(t *testing.T) {
	store := newTestStore(t)

	store.Set(models.CacheKindRealPrice, "11680", "202608", []byte(`["old"]`), 1)
	store.Set(models.CacheKindRealPrice, "11680", "202608", []byte(`["new"]`), 2)

	data, totalCount, ok := store.Get(models.CacheKindRealPrice, "11680", "202608")
	if !ok || string(data) != `["new"]` || totalCount != 2 {
		t.Errorf("hit=%v data=%s count=%d, want new payload", ok, data, totalCount)
	}
}

func TestGetHonorsTTL(t *testing.T) {
	store := newTestStore(t)

	writeTime := time.Now()
	store.now = func() time.Time { return writeTime }
	store.Set(models.CacheKindRealPrice, "11680", "202608", []byte(`[]`), 0)

	// one second before expiry: still a hit
	store.now = func() time.Time { return writeTime.Add(store.ttl - time.Second) }
	if _, _, ok := store.Get(models.CacheKindRealPrice, "11680", "202608"); !ok {
		t.Fatal("expected hit just before expiry")
	}

	// one second after expiry: a miss, and the row is reaped
	store.now = func() time.Time { return writeTime.Add(store.ttl + time.Second) }
	if _, _, ok := store.Get(models.CacheKindRealPrice, "11680", "202608"); ok {
		t.Fatal("expected miss just after expiry")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		var count int64
		if err := store.db.Model(&models.PriceCache{}).Count(&count).Error; err != nil {
			t.Fatal(err)
		}
		if count == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expired entry not deleted, %d row(s) remain", count)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestInvalidate(t *testing.T) {
	store := newTestStore(t)

	store.Set(models.CacheKindRealPrice, "11680", "202607", []byte(`[]`), 0)
	store.Set(models.CacheKindRealPrice, "11680", "202608", []byte(`[]`), 0)
	store.Set(models.CacheKindRentPrice, "11680", "202608", []byte(`[]`), 0)
	store.Set(models.CacheKindRealPrice, "11215", "202608", []byte(`[]`), 0)

	removed, err := store.Invalidate("11680")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3 (both kinds, all months)", removed)
	}
	if _, _, ok := store.Get(models.CacheKindRealPrice, "11215", "202608"); !ok {
		t.Error("other district should survive")
	}

	// absent district is not an error
	removed, err = store.Invalidate("99999")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestCleanExpiredAndStats(t *testing.T) {
	store := newTestStore(t)

	past := time.Now().Add(-time.Hour)
	store.now = func() time.Time { return past.Add(-store.ttl) }
	store.Set(models.CacheKindRealPrice, "11680", "202601", []byte(`[]`), 0)

	store.now = time.Now
	store.Set(models.CacheKindRentPrice, "11680", "202608", []byte(`[]`), 0)

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.Expired != 1 {
		t.Errorf("stats = %+v, want total 2 expired 1", stats)
	}
	if stats.ByKind[models.CacheKindRealPrice] != 1 || stats.ByKind[models.CacheKindRentPrice] != 1 {
		t.Errorf("byKind = %+v", stats.ByKind)
	}

	removed, err := store.CleanExpired()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}
