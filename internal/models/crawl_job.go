package models

import (
	"time"

	"gorm.io/datatypes"
)

// CrawlJob records one run of the crawl orchestration pipeline. Rows are
// kept as audit history; observers poll this row for progress.
type CrawlJob struct {
	ID         string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	ComplexNos datatypes.JSONSlice[string] `gorm:"type:json;not null" json:"complex_nos"`
	UserID     string                      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	ScheduleID *string                     `gorm:"type:varchar(36);index" json:"schedule_id,omitempty"`

	Status      JobStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CurrentStep string    `gorm:"type:varchar(200)" json:"current_step"`

	SuccessCount  int `gorm:"type:int;default:0" json:"success_count"`
	ErrorCount    int `gorm:"type:int;default:0" json:"error_count"`
	TotalListings int `gorm:"type:int;default:0" json:"total_listings"`

	// Duration in seconds once terminal.
	Duration     int    `gorm:"type:int;default:0" json:"duration"`
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime;index:idx_job_created,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (CrawlJob) TableName() string {
	return "crawl_jobs"
}

// JobStatus is the crawl job state machine status.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusCrawling JobStatus = "crawling"
	JobStatusSaving   JobStatus = "saving"
	JobStatusSuccess  JobStatus = "success"
	JobStatusPartial  JobStatus = "partial"
	JobStatusFailed   JobStatus = "failed"
)

// IsTerminal reports whether the status is a terminal state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSuccess || s == JobStatusPartial || s == JobStatusFailed
}
