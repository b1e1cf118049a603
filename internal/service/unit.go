package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"property-backend/internal/ident"
	"property-backend/internal/model"
	"property-backend/internal/parse"
)

// UnitService manages the units of a building.
type UnitService struct {
	*deps
}

// ListByBuilding returns the units of an existing building.
func (s *UnitService) ListByBuilding(ctx context.Context, buildingID string) ([]model.Unit, error) {
	if _, err := s.store.GetBuilding(ctx, buildingID); err != nil {
		return nil, lookup(err, "Building")
	}
	units, err := s.store.ListUnits(ctx, buildingID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return units, nil
}

func (s *UnitService) Get(ctx context.Context, id string) (*model.Unit, error) {
	u, err := s.store.GetUnit(ctx, id)
	if err != nil {
		return nil, lookup(err, "Unit")
	}
	return u, nil
}

// Create adds one unit to an existing building.
func (s *UnitService) Create(ctx context.Context, buildingID string, in UnitInput) (*model.Unit, error) {
	if _, err := s.store.GetBuilding(ctx, buildingID); err != nil {
		return nil, lookup(err, "Building")
	}
	u, err := s.prepare(in, buildingID, "Unit number and type are required")
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateUnits(ctx, []model.Unit{u}); err != nil {
		return nil, s.insertError(err)
	}
	return s.Get(ctx, u.ID)
}

// CreateBulk validates every unit before inserting any, then inserts them all in
// one transaction. The result keeps the input order.
func (s *UnitService) CreateBulk(ctx context.Context, buildingID string, in []UnitInput) ([]model.Unit, error) {
	if len(in) == 0 {
		return nil, Validationf("Units array is required and must not be empty")
	}
	if _, err := s.store.GetBuilding(ctx, buildingID); err != nil {
		return nil, lookup(err, "Building")
	}

	units := make([]model.Unit, 0, len(in))
	for _, ui := range in {
		u, err := s.prepare(ui, buildingID, "Each unit must have unit_number and type")
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}

	if err := s.store.CreateUnits(ctx, units); err != nil {
		return nil, s.insertError(err)
	}
	s.log.Info("units created", zap.String("building_id", buildingID), zap.Int("count", len(units)))
	return units, nil
}

// Update replaces every mutable column of the unit with the values in u.
func (s *UnitService) Update(ctx context.Context, u *model.Unit) (*model.Unit, error) {
	if u.UnitNumber == "" || u.Type == "" {
		return nil, Validationf("Unit number and type are required")
	}
	if _, err := parse.UnitType(string(u.Type)); err != nil {
		return nil, Validationf("%s", err.Error())
	}
	updated, err := s.store.UpdateUnit(ctx, u)
	if err != nil {
		return nil, lookup(err, "Unit")
	}
	return updated, nil
}

// Patch merges the present keys of patch into the stored unit, then replaces it
// through Update.
func (s *UnitService) Patch(ctx context.Context, id string, patch UnitPatch) (*model.Unit, error) {
	u, err := s.store.GetUnit(ctx, id)
	if err != nil {
		return nil, lookup(err, "Unit")
	}

	u.UnitNumber = stringOr(patch.UnitNumber, u.UnitNumber)
	u.Type = model.UnitType(stringOr(patch.Type, string(u.Type)))
	u.Floor = patch.Floor.Or(u.Floor)
	u.Entrance = patch.Entrance.Or(u.Entrance)
	u.SizeSqm = patch.SizeSqm.Or(u.SizeSqm)
	u.CoOwnershipShare = patch.CoOwnershipShare.Or(u.CoOwnershipShare)
	u.ConstructionYear = patch.ConstructionYear.Or(u.ConstructionYear)
	u.Rooms = patch.Rooms.Or(u.Rooms)

	return s.Update(ctx, u)
}

func (s *UnitService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteUnit(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}
	if !deleted {
		return NotFound("Unit")
	}
	return nil
}

func (s *UnitService) prepare(in UnitInput, buildingID, message string) (model.Unit, error) {
	if err := s.check(in, message); err != nil {
		return model.Unit{}, err
	}
	unitType, err := parse.UnitType(*in.Type.Present())
	if err != nil {
		return model.Unit{}, Validationf("%s", err.Error())
	}
	u := unitFrom(in, buildingID, unitType)
	u.ID = ident.NewID()
	return u, nil
}

// insertError reports a building removed between the existence check and the
// insert as not found.
func (s *UnitService) insertError(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return NotFound("Building")
	}
	return errors.WithStack(err)
}

// stringOr applies a patch to a required string column: absent keeps the
// current value and anything else, blank included, replaces it.
func stringOr(f parse.Field[string], current string) string {
	if v := f.Or(&current); v != nil {
		return *v
	}
	return ""
}
