package reconcile

import (
	"fmt"
	"time"

	"complex-tracker/internal/models"

	"gorm.io/gorm"
)

// ErrLeaseHeld is returned when another job holds an unexpired lease
var ErrLeaseHeld = fmt.Errorf("complex lease held by another job")

// LeaseManager hands out per-complex advisory locks so concurrent jobs
// never reconcile the same complex at once. Acquisition is fail-fast.
type LeaseManager struct {
	db *gorm.DB
}

func NewLeaseManager(db *gorm.DB) *LeaseManager {
	return &LeaseManager{db: db}
}

// Acquire takes the lease for a complex on behalf of a job. Returns
// ErrLeaseHeld if a different job holds an unexpired lease.
func (m *LeaseManager) Acquire(complexNo, jobID string) error {
	now := time.Now()
	return m.db.Transaction(func(tx *gorm.DB) error {
		var lease models.ComplexLease
		err := tx.Where("complex_no = ?", complexNo).First(&lease).Error

		switch {
		case err == gorm.ErrRecordNotFound:
			return tx.Create(&models.ComplexLease{
				ComplexNo: complexNo,
				JobID:     jobID,
				ExpiresAt: now.Add(models.LeaseTTL),
			}).Error
		case err != nil:
			return err
		}

		if lease.JobID != jobID && !lease.Expired(now) {
			return ErrLeaseHeld
		}

		lease.JobID = jobID
		lease.ExpiresAt = now.Add(models.LeaseTTL)
		return tx.Save(&lease).Error
	})
}

// Release drops the lease if it is still owned by the given job
func (m *LeaseManager) Release(complexNo, jobID string) error {
	return m.db.
		Where("complex_no = ? AND job_id = ?", complexNo, jobID).
		Delete(&models.ComplexLease{}).Error
}
