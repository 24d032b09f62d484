package database

import (
	"time"

	"complex-tracker/internal/models"
)

// CreateCrawlJob inserts a new crawl job record
func (gdb *GormDB) CreateCrawlJob(job *models.CrawlJob) error {
	return gdb.db.Create(job).Error
}

// UpdateJobStep updates a job's status and current step
func (gdb *GormDB) UpdateJobStep(jobID string, status models.JobStatus, step string) error {
	return gdb.db.Model(&models.CrawlJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":       status,
			"current_step": step,
		}).Error
}

// FinalizeJob records the terminal state of a job
func (gdb *GormDB) FinalizeJob(job *models.CrawlJob) error {
	return gdb.db.Model(&models.CrawlJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":         job.Status,
			"current_step":   job.CurrentStep,
			"success_count":  job.SuccessCount,
			"error_count":    job.ErrorCount,
			"total_listings": job.TotalListings,
			"duration":       job.Duration,
			"error_message":  job.ErrorMessage,
		}).Error
}

// GetCrawlJob retrieves a crawl job by ID
func (gdb *GormDB) GetCrawlJob(id string) (*models.CrawlJob, error) {
	var job models.CrawlJob
	if err := gdb.db.Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListCrawlJobs retrieves recent crawl jobs, newest first
func (gdb *GormDB) ListCrawlJobs(limit int) ([]models.CrawlJob, error) {
	if limit <= 0 {
		limit = 20
	}
	var jobs []models.CrawlJob
	err := gdb.db.Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

// JobSample is a completed job's duration together with how many
// complexes the job covered. Used for timeout estimation.
type JobSample struct {
	Duration     int
	ComplexCount int
}

// RecentJobSamples returns duration samples from the most recent
// successful or partial jobs within the given window.
func (gdb *GormDB) RecentJobSamples(limit int, window time.Duration) ([]JobSample, error) {
	var jobs []models.CrawlJob
	since := time.Now().Add(-window)
	err := gdb.db.
		Where("status IN ? AND created_at >= ? AND duration > 0",
			[]models.JobStatus{models.JobStatusSuccess, models.JobStatusPartial}, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	samples := make([]JobSample, 0, len(jobs))
	for _, job := range jobs {
		samples = append(samples, JobSample{
			Duration:     job.Duration,
			ComplexCount: len(job.ComplexNos),
		})
	}
	return samples, nil
}
