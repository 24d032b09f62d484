package reconcile

import (
	"complex-tracker/internal/artifact"
	"complex-tracker/internal/models"
	"complex-tracker/internal/price"

	"gorm.io/gorm"
)

// ListingStore replaces a complex's listings atomically
type ListingStore struct {
	db        *gorm.DB
	chunkSize int
}

func NewListingStore(db *gorm.DB, chunkSize int) *ListingStore {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &ListingStore{db: db, chunkSize: chunkSize}
}

// PrepareListings maps collector articles onto listing rows. Duplicate
// listing numbers keep the first occurrence only.
func PrepareListings(complexID string, articles []artifact.Article) []models.Listing {
	seen := make(map[string]bool, len(articles))
	listings := make([]models.Listing, 0, len(articles))

	for _, a := range articles {
		if a.ArticleNo == "" || seen[a.ArticleNo] {
			continue
		}
		seen[a.ArticleNo] = true

		listings = append(listings, models.Listing{
			ComplexID:     complexID,
			ListingNo:     a.ArticleNo,
			TradeTypeName: a.TradeTypeName,
			DealPrice:     a.DealOrWarrantPrc,
			RentPrice:     a.RentPrc,
			DealPriceWon:  price.ParseToWon(a.DealOrWarrantPrc),
			RentPriceWon:  price.ParseToWon(a.RentPrc),
			Area1:         a.Area1,
			Area2:         a.Area2,
			FloorInfo:     a.FloorInfo,
			BuildingName:  a.BuildingName,
			Direction:     a.Direction,
			ConfirmedDate: a.ArticleConfirmYmd,
			BrokerName:    a.RealtorName,
			FeatureDesc:   a.ArticleFeatureDesc,
			SameAddrCount: a.SameAddrCnt,
			Latitude:      a.Latitude,
			Longitude:     a.Longitude,
		})
	}
	return listings
}

// Snapshot returns the currently stored listings for a complex
func (s *ListingStore) Snapshot(complexID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Where("complex_id = ?", complexID).Find(&listings).Error
	return listings, err
}

// Replace swaps out all listings of a complex in one transaction
func (s *ListingStore) Replace(complexID string, listings []models.Listing) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("complex_id = ?", complexID).Delete(&models.Listing{}).Error; err != nil {
			return err
		}
		if len(listings) == 0 {
			return nil
		}
		return tx.CreateInBatches(listings, s.chunkSize).Error
	})
}
