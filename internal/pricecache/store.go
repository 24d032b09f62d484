package pricecache

import (
	"log"
	"time"

	"complex-tracker/internal/config"
	"complex-tracker/internal/models"

	"gorm.io/gorm"
)

// Store is a database-backed TTL cache for transaction price lookups.
// All storage failures degrade to cache misses so a broken cache never
// blocks a crawl.
type Store struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewStore(db *gorm.DB, cfg *config.CacheConfig) *Store {
	ttl := cfg.GetTTL()
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Store{db: db, ttl: ttl, now: time.Now}
}

// Get returns the cached payload for a district and month. Expired
// entries count as misses and are deleted in the background.
func (s *Store) Get(kind, lawdCd, dealYmd string) ([]byte, int, bool) {
	var entry models.PriceCache
	err := s.db.
		Where("kind = ? AND lawd_cd = ? AND deal_ymd = ?", kind, lawdCd, dealYmd).
		First(&entry).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Warning: price cache read failed: %v", err)
		}
		return nil, 0, false
	}

	if entry.Expired(s.now()) {
		go func(id uint) {
			if err := s.db.Delete(&models.PriceCache{}, id).Error; err != nil {
				log.Printf("Warning: failed to delete expired cache entry %d: %v", id, err)
			}
		}(entry.ID)
		return nil, 0, false
	}

	return entry.CachedData, entry.TotalCount, true
}

// Set stores a payload, replacing any existing entry for the key.
// A write failure is logged and dropped; the caller already has the
// payload and the next reader simply misses.
func (s *Store) Set(kind, lawdCd, dealYmd string, data []byte, totalCount int) {
	entry := models.PriceCache{
		Kind:       kind,
		LawdCd:     lawdCd,
		DealYmd:    dealYmd,
		CachedData: data,
		TotalCount: totalCount,
		ExpiresAt:  s.now().Add(s.ttl),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("kind = ? AND lawd_cd = ? AND deal_ymd = ?", kind, lawdCd, dealYmd).
			Delete(&models.PriceCache{}).Error; err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		log.Printf("Warning: price cache write failed for %s/%s/%s: %v", kind, lawdCd, dealYmd, err)
	}
}

// Invalidate drops all cached months for a district, or the whole
// cache when lawdCd is empty
func (s *Store) Invalidate(lawdCd string) (int64, error) {
	query := s.db
	if lawdCd != "" {
		query = query.Where("lawd_cd = ?", lawdCd)
	} else {
		query = query.Where("1 = 1")
	}
	result := query.Delete(&models.PriceCache{})
	return result.RowsAffected, result.Error
}

// CleanExpired removes entries past their TTL
func (s *Store) CleanExpired() (int64, error) {
	result := s.db.Where("expires_at <= ?", s.now()).Delete(&models.PriceCache{})
	return result.RowsAffected, result.Error
}

// Stats summarizes cache occupancy
type Stats struct {
	Total   int64            `json:"total"`
	Expired int64            `json:"expired"`
	ByKind  map[string]int64 `json:"by_kind"`
}

func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{ByKind: make(map[string]int64)}

	if err := s.db.Model(&models.PriceCache{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.PriceCache{}).
		Where("expires_at <= ?", s.now()).
		Count(&stats.Expired).Error; err != nil {
		return nil, err
	}

	type kindCount struct {
		Kind  string
		Count int64
	}
	var rows []kindCount
	if err := s.db.Model(&models.PriceCache{}).
		Select("kind, COUNT(*) as count").
		Group("kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByKind[row.Kind] = row.Count
	}
	return stats, nil
}
