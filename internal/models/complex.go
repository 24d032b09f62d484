package models

import (
	"time"

	"gorm.io/datatypes"
)

// Pyeong describes one floor-plan/unit-type of a complex.
type Pyeong struct {
	PyeongNo       string  `json:"pyeongNo,omitempty"`
	PyeongName     string  `json:"pyeongName,omitempty"`
	SupplyArea     float64 `json:"supplyArea,omitempty"`
	ExclusiveArea  float64 `json:"exclusiveArea,omitempty"`
	HouseholdCount int     `json:"householdCount,omitempty"`
}

// Complex is a tracked property development, identified by its external
// complex number. Created on first sighting, updated on every successful
// reconciliation, never deleted here.
type Complex struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	ComplexNo string `gorm:"type:varchar(20);not null;uniqueIndex" json:"complex_no"`

	ComplexName    string `gorm:"type:varchar(200);not null" json:"complex_name"`
	TotalHousehold *int   `gorm:"type:int" json:"total_household,omitempty"`
	TotalDong      *int   `gorm:"type:int" json:"total_dong,omitempty"`

	Latitude  *float64 `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`

	// Address representations. Administrative-division fields, once known,
	// are never overwritten with empty values by later crawls.
	Address        string `gorm:"type:text" json:"address,omitempty"`
	RoadAddress    string `gorm:"type:text" json:"road_address,omitempty"`
	JibunAddress   string `gorm:"type:text" json:"jibun_address,omitempty"`
	Beopjungdong   string `gorm:"type:varchar(100);index" json:"beopjungdong,omitempty"`
	Haengjeongdong string `gorm:"type:varchar(100)" json:"haengjeongdong,omitempty"`
	LawdCd         string `gorm:"type:varchar(5);index" json:"lawd_cd,omitempty"`

	Pyeongs datatypes.JSONSlice[Pyeong] `gorm:"type:json" json:"pyeongs,omitempty"`

	UserID string `gorm:"type:varchar(36);index" json:"user_id"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Complex) TableName() string {
	return "complexes"
}

// HasCoordinates reports whether both coordinates are known.
func (c *Complex) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}
