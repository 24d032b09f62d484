package models

import (
	"time"

	"gorm.io/datatypes"
)

// Schedule is a stored cron schedule that fires one-shot crawl jobs.
type Schedule struct {
	ID         string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string                      `gorm:"type:varchar(100);not null" json:"name"`
	CronExpr   string                      `gorm:"type:varchar(50);not null" json:"cron_expr"`
	ComplexNos datatypes.JSONSlice[string] `gorm:"type:json;not null" json:"complex_nos"`
	UserID     string                      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Enabled    bool                        `gorm:"not null;default:true;index" json:"enabled"`
	LastRun    *time.Time                  `gorm:"type:datetime" json:"last_run,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Schedule) TableName() string {
	return "schedules"
}

// ScheduleLog is one run-log entry written when a scheduled job reaches a
// terminal state.
type ScheduleLog struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ScheduleID    string    `gorm:"type:varchar(36);not null;index" json:"schedule_id"`
	Status        string    `gorm:"type:varchar(20);not null" json:"status"`
	Duration      int       `gorm:"type:int;not null" json:"duration"`
	ListingsCount int       `gorm:"type:int;default:0" json:"listings_count"`
	ErrorMessage  string    `gorm:"type:text" json:"error_message,omitempty"`
	ExecutedAt    time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"executed_at"`
}

// TableName specifies the table name
func (ScheduleLog) TableName() string {
	return "schedule_logs"
}

// Schedule log status constants
const (
	ScheduleRunSuccess = "success"
	ScheduleRunFailed  = "failed"
)
