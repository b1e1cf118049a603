package model

import "time"

// DefaultCountry is stored when a building is created without a country.
const DefaultCountry = "Germany"

// Building is a physical structure with an address, owned by one Property.
type Building struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	PropertyID       string    `gorm:"size:36;not null;index" json:"property_id"`
	Name             *string   `gorm:"size:255" json:"name"`
	Street           string    `gorm:"size:255;not null" json:"street"`
	HouseNumber      string    `gorm:"size:32;not null" json:"house_number"`
	PostalCode       *string   `gorm:"size:16" json:"postal_code"`
	City             *string   `gorm:"size:128" json:"city"`
	Country          string    `gorm:"size:128;default:'Germany'" json:"country"`
	ConstructionYear *int      `json:"construction_year"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Property *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
