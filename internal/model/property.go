package model

import "time"

// PropertyType distinguishes an owners' community (WEG) from a rental portfolio (MV).
type PropertyType string

const (
	PropertyTypeWEG PropertyType = "WEG"
	PropertyTypeMV  PropertyType = "MV"
)

// PropertyTypes lists every valid PropertyType.
var PropertyTypes = []PropertyType{PropertyTypeWEG, PropertyTypeMV}

// Property is the top-level managed real-estate asset.
type Property struct {
	ID              string       `gorm:"primaryKey;size:36" json:"id"`
	Name            string       `gorm:"size:255;not null" json:"name"`
	Type            PropertyType `gorm:"size:8;not null;check:chk_properties_type,type IN ('WEG','MV')" json:"type"`
	PropertyNumber  string       `gorm:"size:32;uniqueIndex;not null" json:"property_number"`
	PropertyManager *string      `gorm:"size:255" json:"property_manager"`
	Accountant      *string      `gorm:"size:255" json:"accountant"`
	DeclarationFile *string      `gorm:"size:255" json:"declaration_file"`
	CreatedAt       time.Time    `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}
