package schedule

import (
	"time"

	"complex-tracker/internal/models"

	"gorm.io/gorm"
)

// RunRecorder persists the outcome of one scheduled crawl
type RunRecorder interface {
	RecordRun(scheduleID, status string, duration, listingsCount int, errorMessage string) error
}

// GormRunRecorder writes schedule logs and bumps the schedule's
// last-run timestamp
type GormRunRecorder struct {
	db *gorm.DB
}

func NewGormRunRecorder(db *gorm.DB) *GormRunRecorder {
	return &GormRunRecorder{db: db}
}

func (r *GormRunRecorder) RecordRun(scheduleID, status string, duration, listingsCount int, errorMessage string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		logRow := models.ScheduleLog{
			ScheduleID:    scheduleID,
			Status:        status,
			Duration:      duration,
			ListingsCount: listingsCount,
			ErrorMessage:  errorMessage,
			ExecutedAt:    time.Now(),
		}
		if err := tx.Create(&logRow).Error; err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&models.Schedule{}).
			Where("id = ?", scheduleID).
			Update("last_run", &now).Error
	})
}
