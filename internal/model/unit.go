package model

import "time"

// UnitType is the closed set of space kinds a Unit can be.
type UnitType string

const (
	UnitTypeApartment UnitType = "Apartment"
	UnitTypeOffice    UnitType = "Office"
	UnitTypeGarden    UnitType = "Garden"
	UnitTypeParking   UnitType = "Parking"
)

// UnitTypes lists every valid UnitType.
var UnitTypes = []UnitType{UnitTypeApartment, UnitTypeOffice, UnitTypeGarden, UnitTypeParking}

// Unit is a leasable or ownable space inside a Building.
type Unit struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	BuildingID       string    `gorm:"size:36;not null;index" json:"building_id"`
	UnitNumber       string    `gorm:"size:64;not null" json:"unit_number"`
	Type             UnitType  `gorm:"size:16;not null;check:chk_units_type,type IN ('Apartment','Office','Garden','Parking')" json:"type"`
	Floor            *int      `json:"floor"`
	Entrance         *string   `gorm:"size:64" json:"entrance"`
	SizeSqm          *float64  `json:"size_sqm"`
	CoOwnershipShare *float64  `json:"co_ownership_share"` // percent
	ConstructionYear *int      `json:"construction_year"`
	Rooms            *int      `json:"rooms"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Building *Building `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
