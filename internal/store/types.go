package store

import (
	"errors"

	"property-backend/internal/model"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// PropertySummary is a Property row with aggregated child counts.
type PropertySummary struct {
	model.Property
	BuildingCount int64 `json:"building_count"`
	UnitCount     int64 `json:"unit_count"`
}

// PropertyTree is a Property with the rows created alongside it.
type PropertyTree struct {
	Property  *model.Property
	Buildings []model.Building
	Units     []model.Unit
}

// Numbering issues property numbers. Numbers starting with Prefix form one
// sequence and end in its decimal position.
type Numbering interface {
	Prefix() string
	Next(seq int64) string
}
