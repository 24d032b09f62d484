package models

import "time"

// ComplexLease is a per-complex advisory lock row. A job acquires the lease
// before replacing a complex's listing set; a concurrent job that cannot
// acquire it fails fast for that complex instead of racing the replacement.
type ComplexLease struct {
	ComplexNo string    `gorm:"type:varchar(20);primaryKey" json:"complex_no"`
	JobID     string    `gorm:"type:varchar(36);not null" json:"job_id"`
	ExpiresAt time.Time `gorm:"type:datetime;not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (ComplexLease) TableName() string {
	return "complex_leases"
}

// LeaseTTL bounds how long a job may hold a complex lease before it is
// considered abandoned.
const LeaseTTL = 10 * time.Minute

// Expired reports whether the lease is stale and may be taken over.
func (l *ComplexLease) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
