package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"property-backend/internal/ident"
	"property-backend/internal/model"
)

// BuildingService manages the buildings of a property.
type BuildingService struct {
	*deps
}

// ListByProperty returns the buildings of an existing property.
func (s *BuildingService) ListByProperty(ctx context.Context, propertyID string) ([]model.Building, error) {
	if _, err := s.store.GetProperty(ctx, propertyID); err != nil {
		return nil, lookup(err, "Property")
	}
	buildings, err := s.store.ListBuildings(ctx, propertyID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return buildings, nil
}

func (s *BuildingService) Get(ctx context.Context, id string) (*model.Building, error) {
	b, err := s.store.GetBuilding(ctx, id)
	if err != nil {
		return nil, lookup(err, "Building")
	}
	return b, nil
}

// Create adds a building to an existing property. Country defaults to Germany.
func (s *BuildingService) Create(ctx context.Context, propertyID string, in BuildingInput) (*model.Building, error) {
	if _, err := s.store.GetProperty(ctx, propertyID); err != nil {
		return nil, lookup(err, "Property")
	}
	if err := s.check(in, "Street and house number are required"); err != nil {
		return nil, err
	}

	b := buildingFrom(in, propertyID)
	b.ID = ident.NewID()
	created, err := s.store.CreateBuilding(ctx, &b)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.log.Info("building created", zap.String("id", created.ID), zap.String("property_id", propertyID))
	return created, nil
}

// Update replaces every mutable column of the building with the values in b.
// Optional fields left nil are stored as null.
func (s *BuildingService) Update(ctx context.Context, b *model.Building) (*model.Building, error) {
	if b.Street == "" || b.HouseNumber == "" {
		return nil, Validationf("Street and house number are required")
	}
	updated, err := s.store.UpdateBuilding(ctx, b)
	if err != nil {
		return nil, lookup(err, "Building")
	}
	return updated, nil
}

// Patch merges the present keys of patch into the stored building, then
// replaces it through Update.
func (s *BuildingService) Patch(ctx context.Context, id string, patch BuildingPatch) (*model.Building, error) {
	b, err := s.store.GetBuilding(ctx, id)
	if err != nil {
		return nil, lookup(err, "Building")
	}

	b.Name = patch.Name.Or(b.Name)
	b.Street = stringOr(patch.Street, b.Street)
	b.HouseNumber = stringOr(patch.HouseNumber, b.HouseNumber)
	b.PostalCode = patch.PostalCode.Or(b.PostalCode)
	b.City = patch.City.Or(b.City)
	if country := patch.Country.Or(&b.Country); country != nil {
		b.Country = *country
	} else {
		b.Country = model.DefaultCountry
	}
	b.ConstructionYear = patch.ConstructionYear.Or(b.ConstructionYear)

	return s.Update(ctx, b)
}

// Delete removes the building and its units.
func (s *BuildingService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteBuilding(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}
	if !deleted {
		return NotFound("Building")
	}
	s.log.Info("building deleted", zap.String("id", id))
	return nil
}
