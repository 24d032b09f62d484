package changes

import "complex-tracker/internal/models"

// PriceChange pairs the previous and current state of a listing whose
// asking price moved
type PriceChange struct {
	Old models.Listing
	New models.Listing
}

// ChangeSet describes how a complex's listings moved between crawls
type ChangeSet struct {
	ComplexID    string
	ComplexNo    string
	ComplexName  string
	Added        []models.Listing
	Removed      []models.Listing
	PriceChanged []PriceChange
}

// Empty reports whether the crawl produced no listing changes
func (cs *ChangeSet) Empty() bool {
	return len(cs.Added) == 0 && len(cs.Removed) == 0 && len(cs.PriceChanged) == 0
}

// Detect compares the previous and current listings of a complex,
// keyed by listing number. A listing present in both counts as a
// price change when either its sale or rent price moved.
func Detect(cx *models.Complex, prev, curr []models.Listing) *ChangeSet {
	cs := &ChangeSet{ComplexID: cx.ID, ComplexNo: cx.ComplexNo, ComplexName: cx.ComplexName}

	prevByNo := make(map[string]models.Listing, len(prev))
	for _, l := range prev {
		prevByNo[l.ListingNo] = l
	}
	currByNo := make(map[string]models.Listing, len(curr))
	for _, l := range curr {
		currByNo[l.ListingNo] = l
	}

	for _, l := range curr {
		old, ok := prevByNo[l.ListingNo]
		if !ok {
			cs.Added = append(cs.Added, l)
			continue
		}
		if !wonEqual(old.DealPriceWon, l.DealPriceWon) || !wonEqual(old.RentPriceWon, l.RentPriceWon) {
			cs.PriceChanged = append(cs.PriceChanged, PriceChange{Old: old, New: l})
		}
	}

	for _, l := range prev {
		if _, ok := currByNo[l.ListingNo]; !ok {
			cs.Removed = append(cs.Removed, l)
		}
	}

	return cs
}

func wonEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
