package models

import (
	"time"

	"gorm.io/datatypes"
)

// Cache kind discriminators. Two caches (actual-sale and rent price
// lookups) share the same table and logic.
const (
	CacheKindRealPrice = "realPrice"
	CacheKindRentPrice = "rentPrice"
)

// PriceCache is one region/period cache entry for external price lookups.
// An entry past its ExpiresAt is treated as absent by every reader even if
// still stored; physical deletion is opportunistic.
type PriceCache struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind   string `gorm:"type:varchar(20);not null;uniqueIndex:idx_cache_key" json:"kind"`
	LawdCd string `gorm:"type:varchar(5);not null;uniqueIndex:idx_cache_key" json:"lawd_cd"`
	// DealYmd is the period token, YYYYMM.
	DealYmd string `gorm:"type:varchar(6);not null;uniqueIndex:idx_cache_key" json:"deal_ymd"`

	CachedData datatypes.JSON `gorm:"type:json" json:"cached_data"`
	TotalCount int            `gorm:"type:int;not null;default:0" json:"total_count"`

	ExpiresAt time.Time `gorm:"type:datetime;not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (PriceCache) TableName() string {
	return "price_caches"
}

// Expired reports whether the entry must be treated as absent at now.
func (c *PriceCache) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
