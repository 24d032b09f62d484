package reconcile

import (
	"context"
	"log"

	"complex-tracker/internal/artifact"
	"complex-tracker/internal/geocode"
	"complex-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ComplexReconciler merges collector output into persisted complexes
type ComplexReconciler struct {
	db       *gorm.DB
	geocoder geocode.Resolver
}

func NewComplexReconciler(db *gorm.DB, geocoder geocode.Resolver) *ComplexReconciler {
	return &ComplexReconciler{db: db, geocoder: geocoder}
}

// Reconcile upserts the complex described by a collector record and
// returns the persisted row. Freshly crawled fields win over stored
// ones, except administrative divisions where stored values are kept.
func (r *ComplexReconciler) Reconcile(ctx context.Context, rec artifact.Record, userID string) (*models.Complex, error) {
	next := buildComplex(rec, userID)

	var existing models.Complex
	err := r.db.Where("complex_no = ?", next.ComplexNo).First(&existing).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		next.ID = uuid.NewString()
	case err != nil:
		return nil, err
	default:
		mergeExisting(next, &existing)
	}

	r.enrich(ctx, next)

	if err := r.db.Save(next).Error; err != nil {
		return nil, err
	}
	return next, nil
}

// buildComplex maps a collector record onto the persistence model
func buildComplex(rec artifact.Record, userID string) *models.Complex {
	c := &models.Complex{
		ComplexNo: rec.ComplexNo,
		UserID:    userID,
	}
	ov := rec.Overview
	if ov == nil {
		return c
	}

	c.ComplexName = ov.ComplexName
	c.TotalHousehold = ov.TotalHousehold
	c.TotalDong = ov.TotalDong
	c.Latitude = ov.Latitude
	c.Longitude = ov.Longitude
	c.Address = ov.Address
	c.RoadAddress = ov.RoadAddress
	c.JibunAddress = ov.JibunAddress
	c.Beopjungdong = ov.Beopjungdong
	c.Haengjeongdong = ov.Haengjeongdong
	c.LawdCd = ov.LawdCd
	c.Pyeongs = ov.Pyeongs
	return c
}

// mergeExisting fills gaps in the crawled complex from the stored row.
// Crawled values take precedence when present; administrative
// divisions keep the stored value once one exists.
func mergeExisting(next, existing *models.Complex) {
	next.ID = existing.ID
	next.CreatedAt = existing.CreatedAt
	if next.UserID == "" {
		next.UserID = existing.UserID
	}

	if next.ComplexName == "" {
		next.ComplexName = existing.ComplexName
	}
	if next.TotalHousehold == nil {
		next.TotalHousehold = existing.TotalHousehold
	}
	if next.TotalDong == nil {
		next.TotalDong = existing.TotalDong
	}
	if next.Latitude == nil {
		next.Latitude = existing.Latitude
	}
	if next.Longitude == nil {
		next.Longitude = existing.Longitude
	}
	if next.Address == "" {
		next.Address = existing.Address
	}
	if next.RoadAddress == "" {
		next.RoadAddress = existing.RoadAddress
	}
	if next.JibunAddress == "" {
		next.JibunAddress = existing.JibunAddress
	}
	if len(next.Pyeongs) == 0 {
		next.Pyeongs = existing.Pyeongs
	}

	// Divisions come from geocoding and rarely change
	if existing.Beopjungdong != "" {
		next.Beopjungdong = existing.Beopjungdong
	}
	if existing.Haengjeongdong != "" {
		next.Haengjeongdong = existing.Haengjeongdong
	}
	if existing.LawdCd != "" {
		next.LawdCd = existing.LawdCd
	}
}

// enrich fills in administrative divisions via reverse geocoding when
// the complex has coordinates but no legal division yet. Lookup
// failures are logged and skipped.
func (r *ComplexReconciler) enrich(ctx context.Context, c *models.Complex) {
	if r.geocoder == nil || !c.HasCoordinates() || c.Beopjungdong != "" {
		return
	}

	result, err := r.geocoder.Resolve(ctx, *c.Latitude, *c.Longitude)
	if err != nil {
		log.Printf("Warning: geocode failed for complex %s: %v", c.ComplexNo, err)
		return
	}

	c.Beopjungdong = result.Beopjungdong
	if c.Haengjeongdong == "" {
		c.Haengjeongdong = result.Haengjeongdong
	}
	if c.LawdCd == "" {
		c.LawdCd = result.LawdCd
	}
}
