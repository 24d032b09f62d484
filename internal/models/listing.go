package models

import "time"

// Listing is one property offer belonging to exactly one Complex. The full
// listing set of a complex is replaced atomically on every successful crawl;
// there is no listing-level update.
type Listing struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ComplexID string `gorm:"type:varchar(36);not null;index:idx_listing_complex" json:"complex_id"`
	ListingNo string `gorm:"type:varchar(30);not null;index" json:"listing_no"`

	TradeTypeName string `gorm:"type:varchar(20);not null;index" json:"trade_type_name"`

	// Human-formatted price strings plus derived won values for fast
	// comparison and sorting.
	DealPrice    string `gorm:"type:varchar(50)" json:"deal_price"`
	RentPrice    string `gorm:"type:varchar(50)" json:"rent_price,omitempty"`
	DealPriceWon *int64 `gorm:"type:bigint;index" json:"deal_price_won,omitempty"`
	RentPriceWon *int64 `gorm:"type:bigint" json:"rent_price_won,omitempty"`

	Area1 float64  `gorm:"type:decimal(10,2)" json:"area1"`
	Area2 *float64 `gorm:"type:decimal(10,2)" json:"area2,omitempty"`

	FloorInfo     string `gorm:"type:varchar(20)" json:"floor_info,omitempty"`
	BuildingName  string `gorm:"type:varchar(100)" json:"building_name,omitempty"`
	Direction     string `gorm:"type:varchar(20)" json:"direction,omitempty"`
	ConfirmedDate string `gorm:"type:varchar(10)" json:"confirmed_date,omitempty"`

	BrokerName    string `gorm:"type:varchar(100)" json:"broker_name,omitempty"`
	FeatureDesc   string `gorm:"type:text" json:"feature_desc,omitempty"`
	SameAddrCount *int   `gorm:"type:int" json:"same_addr_count,omitempty"`

	Latitude  *float64 `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Listing) TableName() string {
	return "listings"
}

// Trade type constants
const (
	TradeTypeSale    = "매매"
	TradeTypeLease   = "전세"
	TradeTypeMonthly = "월세"
)
