package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"property-backend/internal/ident"
	"property-backend/internal/model"
	"property-backend/internal/parse"
	"property-backend/internal/store"
)

// PropertyService manages properties and their nested creation.
type PropertyService struct {
	*deps
}

// List returns every property, newest first, with building and unit counts.
func (s *PropertyService) List(ctx context.Context) ([]store.PropertySummary, error) {
	summaries, err := s.store.ListPropertySummaries(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return summaries, nil
}

// Get returns a property with all of its buildings and their units.
func (s *PropertyService) Get(ctx context.Context, id string) (*PropertyDetail, error) {
	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, lookup(err, "Property")
	}
	buildings, err := s.store.ListBuildings(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	ids := make([]string, len(buildings))
	for i, b := range buildings {
		ids[i] = b.ID
	}
	units, err := s.store.ListUnits(ctx, ids...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &PropertyDetail{Property: *p, Buildings: buildings, Units: units}, nil
}

// Validate checks a create payload, nested children included, without touching
// the store. Callers use it to reject a request before storing an upload.
func (s *PropertyService) Validate(in PropertyInput) error {
	_, err := s.plan(in, nil)
	return err
}

// Create inserts the property, its buildings and its units in one transaction.
// declarationFile is the stored upload reference, or nil.
func (s *PropertyService) Create(ctx context.Context, in PropertyInput, declarationFile *string) (*model.Property, error) {
	tree, err := s.plan(in, declarationFile)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreatePropertyTree(ctx, tree, ident.NewPropertyNumbers()); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, Validationf("Unit references an unknown building")
		}
		return nil, errors.WithStack(err)
	}
	s.log.Info("property created",
		zap.String("id", tree.Property.ID),
		zap.String("property_number", tree.Property.PropertyNumber),
		zap.Int("buildings", len(tree.Buildings)),
		zap.Int("units", len(tree.Units)),
	)
	return s.refetch(ctx, tree.Property)
}

// plan validates the payload and assigns ids, resolving each nested unit's
// building reference through the client keys of the nested buildings.
func (s *PropertyService) plan(in PropertyInput, declarationFile *string) (store.PropertyTree, error) {
	if err := s.check(in, "Name and type are required"); err != nil {
		return store.PropertyTree{}, err
	}
	propertyType, err := parse.PropertyType(*in.Type.Present())
	if err != nil {
		return store.PropertyTree{}, Validationf("%s", err.Error())
	}

	p := &model.Property{
		ID:              ident.NewID(),
		Name:            *in.Name.Present(),
		Type:            propertyType,
		PropertyManager: in.PropertyManager.Present(),
		Accountant:      in.Accountant.Present(),
		DeclarationFile: declarationFile,
	}

	realIDs := make(map[string]string, len(in.Buildings))
	buildings := make([]model.Building, 0, len(in.Buildings))
	for _, bi := range in.Buildings {
		if err := s.check(bi, "Street and house number are required"); err != nil {
			return store.PropertyTree{}, err
		}
		b := buildingFrom(bi, p.ID)
		b.ID = ident.NewID()
		if key := bi.key(); key != "" {
			if _, dup := realIDs[key]; dup {
				return store.PropertyTree{}, Validationf("Duplicate building reference %q", key)
			}
			realIDs[key] = b.ID
		}
		buildings = append(buildings, b)
	}

	units := make([]model.Unit, 0, len(in.Units))
	for _, ui := range in.Units {
		if err := s.check(ui, "Each unit must have unit_number and type"); err != nil {
			return store.PropertyTree{}, err
		}
		unitType, err := parse.UnitType(*ui.Type.Present())
		if err != nil {
			return store.PropertyTree{}, Validationf("%s", err.Error())
		}
		ref := ""
		if v := ui.BuildingID.Present(); v != nil {
			ref = *v
		}
		buildingID, ok := realIDs[ref]
		if !ok {
			buildingID = ref
		}
		u := unitFrom(ui, buildingID, unitType)
		u.ID = ident.NewID()
		units = append(units, u)
	}

	return store.PropertyTree{Property: p, Buildings: buildings, Units: units}, nil
}

// Update merges the patch into the stored property and saves it. Name and type
// keep their value when blank; staff fields keep theirs when absent or null.
func (s *PropertyService) Update(ctx context.Context, id string, patch PropertyPatch) (*model.Property, error) {
	existing, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, lookup(err, "Property")
	}

	if name := patch.Name.Present(); name != nil {
		existing.Name = *name
	}
	if raw := patch.Type.Present(); raw != nil {
		t, err := parse.PropertyType(*raw)
		if err != nil {
			return nil, Validationf("%s", err.Error())
		}
		existing.Type = t
	}
	if patch.PropertyManager.Value != nil {
		existing.PropertyManager = patch.PropertyManager.Present()
	}
	if patch.Accountant.Value != nil {
		existing.Accountant = patch.Accountant.Present()
	}

	updated, err := s.store.UpdateProperty(ctx, existing)
	if err != nil {
		return nil, lookup(err, "Property")
	}
	return updated, nil
}

// Delete removes the property and everything beneath it.
func (s *PropertyService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteProperty(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}
	if !deleted {
		return NotFound("Property")
	}
	s.log.Info("property deleted", zap.String("id", id))
	return nil
}

func (s *PropertyService) refetch(ctx context.Context, p *model.Property) (*model.Property, error) {
	stored, err := s.store.GetProperty(ctx, p.ID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return stored, nil
}
