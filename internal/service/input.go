package service

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	"property-backend/internal/model"
	"property-backend/internal/parse"
)

// PropertyInput is the payload for creating a property with optional nested children.
type PropertyInput struct {
	Name            parse.Field[string] `json:"name" validate:"required"`
	Type            parse.Field[string] `json:"type" validate:"required"`
	PropertyManager parse.Field[string] `json:"property_manager"`
	Accountant      parse.Field[string] `json:"accountant"`
	Buildings       []BuildingInput     `json:"buildings"`
	Units           []UnitInput         `json:"units"`
}

// PropertyPatch carries the editable fields of a property update.
type PropertyPatch struct {
	Name            parse.Field[string] `json:"name"`
	Type            parse.Field[string] `json:"type"`
	PropertyManager parse.Field[string] `json:"property_manager"`
	Accountant      parse.Field[string] `json:"accountant"`
}

// BuildingInput is the payload for creating a building. Inside a nested property
// create, TempID (or ID) is the key units use to point at it.
type BuildingInput struct {
	TempID           parse.Field[string] `json:"tempId"`
	ID               parse.Field[string] `json:"id"`
	Name             parse.Field[string] `json:"name"`
	Street           parse.Field[string] `json:"street" validate:"required"`
	HouseNumber      parse.Field[string] `json:"house_number" validate:"required"`
	PostalCode       parse.Field[string] `json:"postal_code"`
	City             parse.Field[string] `json:"city"`
	Country          parse.Field[string] `json:"country"`
	ConstructionYear parse.Field[int]    `json:"construction_year"`
}

// key returns the client-side reference of a nested building.
func (in BuildingInput) key() string {
	if v := in.TempID.Present(); v != nil {
		return *v
	}
	if v := in.ID.Present(); v != nil {
		return *v
	}
	return ""
}

// BuildingPatch is a partial building update; absent keys keep their value.
type BuildingPatch struct {
	Name             parse.Field[string] `json:"name"`
	Street           parse.Field[string] `json:"street"`
	HouseNumber      parse.Field[string] `json:"house_number"`
	PostalCode       parse.Field[string] `json:"postal_code"`
	City             parse.Field[string] `json:"city"`
	Country          parse.Field[string] `json:"country"`
	ConstructionYear parse.Field[int]    `json:"construction_year"`
}

// UnitInput is the payload for creating a unit.
type UnitInput struct {
	BuildingID       parse.Field[string]  `json:"building_id"`
	UnitNumber       parse.Field[string]  `json:"unit_number" validate:"required"`
	Type             parse.Field[string]  `json:"type" validate:"required"`
	Floor            parse.Field[int]     `json:"floor"`
	Entrance         parse.Field[string]  `json:"entrance"`
	SizeSqm          parse.Field[float64] `json:"size_sqm"`
	CoOwnershipShare parse.Field[float64] `json:"co_ownership_share"`
	ConstructionYear parse.Field[int]     `json:"construction_year"`
	Rooms            parse.Field[int]     `json:"rooms"`
}

// UnitPatch is a partial unit update; absent keys keep their value.
type UnitPatch struct {
	UnitNumber       parse.Field[string]  `json:"unit_number"`
	Type             parse.Field[string]  `json:"type"`
	Floor            parse.Field[int]     `json:"floor"`
	Entrance         parse.Field[string]  `json:"entrance"`
	SizeSqm          parse.Field[float64] `json:"size_sqm"`
	CoOwnershipShare parse.Field[float64] `json:"co_ownership_share"`
	ConstructionYear parse.Field[int]     `json:"construction_year"`
	Rooms            parse.Field[int]     `json:"rooms"`
}

// PropertyDetail is a property with every building and unit beneath it.
type PropertyDetail struct {
	model.Property
	Buildings []model.Building `json:"buildings"`
	Units     []model.Unit     `json:"units"`
}

// StaffSuggestions lists the distinct staff names already in use.
type StaffSuggestions struct {
	Managers    []string `json:"managers"`
	Accountants []string `json:"accountants"`
}

// newValidator returns a validator that sees a string Field as its trimmed value,
// so "required" rejects absent, null and blank input alike.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		f, ok := field.Interface().(parse.Field[string])
		if !ok {
			return nil
		}
		if p := f.Present(); p != nil {
			return *p
		}
		return ""
	}, parse.Field[string]{})
	return v
}

// check runs struct validation and reports any failure with the given message.
func (d *deps) check(in any, message string) error {
	if err := d.validate.Struct(in); err != nil {
		return Validationf("%s", message)
	}
	return nil
}

func unitFrom(in UnitInput, buildingID string, unitType model.UnitType) model.Unit {
	return model.Unit{
		BuildingID:       buildingID,
		UnitNumber:       *in.UnitNumber.Present(),
		Type:             unitType,
		Floor:            in.Floor.Ptr(),
		Entrance:         in.Entrance.Present(),
		SizeSqm:          in.SizeSqm.Ptr(),
		CoOwnershipShare: in.CoOwnershipShare.Ptr(),
		ConstructionYear: in.ConstructionYear.Ptr(),
		Rooms:            in.Rooms.Ptr(),
	}
}

func buildingFrom(in BuildingInput, propertyID string) model.Building {
	country := model.DefaultCountry
	if c := in.Country.Present(); c != nil {
		country = *c
	}
	return model.Building{
		PropertyID:       propertyID,
		Name:             in.Name.Present(),
		Street:           *in.Street.Present(),
		HouseNumber:      *in.HouseNumber.Present(),
		PostalCode:       in.PostalCode.Present(),
		City:             in.City.Present(),
		Country:          country,
		ConstructionYear: in.ConstructionYear.Ptr(),
	}
}
