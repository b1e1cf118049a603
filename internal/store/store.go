package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"property-backend/internal/model"
)

// maxNumberAttempts bounds how often CreatePropertyTree retries after another
// property grabbed the same number.
const maxNumberAttempts = 5

// Store defines the interface for all database operations.
type Store interface {
	ListPropertySummaries(ctx context.Context) ([]PropertySummary, error)
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	CreatePropertyTree(ctx context.Context, tree PropertyTree, numbers Numbering) error
	UpdateProperty(ctx context.Context, p *model.Property) (*model.Property, error)
	DeleteProperty(ctx context.Context, id string) (bool, error)

	ListBuildings(ctx context.Context, propertyID string) ([]model.Building, error)
	GetBuilding(ctx context.Context, id string) (*model.Building, error)
	CreateBuilding(ctx context.Context, b *model.Building) (*model.Building, error)
	UpdateBuilding(ctx context.Context, b *model.Building) (*model.Building, error)
	DeleteBuilding(ctx context.Context, id string) (bool, error)

	ListUnits(ctx context.Context, buildingIDs ...string) ([]model.Unit, error)
	GetUnit(ctx context.Context, id string) (*model.Unit, error)
	CreateUnits(ctx context.Context, units []model.Unit) error
	UpdateUnit(ctx context.Context, u *model.Unit) (*model.Unit, error)
	DeleteUnit(ctx context.Context, id string) (bool, error)

	DistinctStaff(ctx context.Context) (managers, accountants []string, err error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// ListPropertySummaries returns every property, newest first, with the number of
// buildings it owns and the number of units across those buildings.
func (s *gormStore) ListPropertySummaries(ctx context.Context) ([]PropertySummary, error) {
	summaries := make([]PropertySummary, 0)
	err := s.db.WithContext(ctx).
		Model(&model.Property{}).
		Select("properties.*, COUNT(DISTINCT buildings.id) AS building_count, COUNT(DISTINCT units.id) AS unit_count").
		Joins("LEFT JOIN buildings ON buildings.property_id = properties.id").
		Joins("LEFT JOIN units ON units.building_id = buildings.id").
		Group("properties.id").
		Order("properties.created_at DESC").
		Order("properties.property_number DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return summaries, nil
}

func (s *gormStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	var p model.Property
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, notFound(err, "property", id)
	}
	return &p, nil
}

// CreatePropertyTree inserts a property with its buildings and units in one
// transaction. The property number follows the larger of the property count
// and the highest sequence already issued under the numbering's prefix, both
// read inside that transaction. When the unique index still rejects it because
// a concurrent creation took it first, the whole transaction is retried with
// the next candidate.
func (s *gormStore) CreatePropertyTree(ctx context.Context, tree PropertyTree, numbers Numbering) error {
	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		lastErr = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&model.Property{}).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count properties: %w", err)
			}
			highest, err := highestSequence(tx, numbers.Prefix())
			if err != nil {
				return err
			}
			tree.Property.PropertyNumber = numbers.Next(max(count, highest) + int64(attempt))

			if err := tx.Create(tree.Property).Error; err != nil {
				return fmt.Errorf("failed to insert property: %w", err)
			}
			if len(tree.Buildings) > 0 {
				if err := tx.Create(&tree.Buildings).Error; err != nil {
					return fmt.Errorf("failed to insert buildings: %w", err)
				}
			}
			if len(tree.Units) > 0 {
				if err := tx.Create(&tree.Units).Error; err != nil {
					return fmt.Errorf("failed to insert units: %w", err)
				}
			}
			return nil
		})
		if !errors.Is(lastErr, gorm.ErrDuplicatedKey) {
			return lastErr
		}
	}
	return lastErr
}

// highestSequence returns the largest numeric suffix among the property numbers
// starting with prefix, or 0 if there are none.
func highestSequence(tx *gorm.DB, prefix string) (int64, error) {
	var numbers []string
	err := tx.Model(&model.Property{}).
		Where("property_number LIKE ?", prefix+"%").
		Order("LENGTH(property_number) DESC").
		Order("property_number DESC").
		Limit(1).
		Pluck("property_number", &numbers).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read highest property number: %w", err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(numbers[0], prefix), 10, 64)
	if err != nil {
		// not ours; fall back to the count
		return 0, nil
	}
	return seq, nil
}

// UpdateProperty replaces the editable columns of a property. The property
// number and declaration file are never touched.
func (s *gormStore) UpdateProperty(ctx context.Context, p *model.Property) (*model.Property, error) {
	p.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).
		Model(&model.Property{ID: p.ID}).
		Select("name", "type", "property_manager", "accountant", "updated_at").
		Updates(p)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update property %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetProperty(ctx, p.ID)
}

// DeleteProperty removes a property; buildings and units go with it through
// ON DELETE CASCADE.
func (s *gormStore) DeleteProperty(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Property{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete property %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) ListBuildings(ctx context.Context, propertyID string) ([]model.Building, error) {
	buildings := make([]model.Building, 0)
	if err := s.db.WithContext(ctx).Where("property_id = ?", propertyID).Find(&buildings).Error; err != nil {
		return nil, fmt.Errorf("failed to list buildings of property %s: %w", propertyID, err)
	}
	return buildings, nil
}

func (s *gormStore) GetBuilding(ctx context.Context, id string) (*model.Building, error) {
	var b model.Building
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, notFound(err, "building", id)
	}
	return &b, nil
}

func (s *gormStore) CreateBuilding(ctx context.Context, b *model.Building) (*model.Building, error) {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, fmt.Errorf("failed to insert building: %w", err)
	}
	return s.GetBuilding(ctx, b.ID)
}

// UpdateBuilding overwrites every mutable column with the values in b, nils
// included. Callers merge patches into the existing row first.
func (s *gormStore) UpdateBuilding(ctx context.Context, b *model.Building) (*model.Building, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Building{ID: b.ID}).
		Select("name", "street", "house_number", "postal_code", "city", "country", "construction_year").
		Updates(b)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update building %s: %w", b.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetBuilding(ctx, b.ID)
}

// DeleteBuilding removes a building and, by cascade, its units.
func (s *gormStore) DeleteBuilding(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Building{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete building %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListUnits returns the units of the given buildings.
func (s *gormStore) ListUnits(ctx context.Context, buildingIDs ...string) ([]model.Unit, error) {
	units := make([]model.Unit, 0)
	if len(buildingIDs) == 0 {
		return units, nil
	}
	if err := s.db.WithContext(ctx).Where("building_id IN ?", buildingIDs).Find(&units).Error; err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

func (s *gormStore) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	var u model.Unit
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, notFound(err, "unit", id)
	}
	return &u, nil
}

// CreateUnits inserts all units in a single transaction.
func (s *gormStore) CreateUnits(ctx context.Context, units []model.Unit) error {
	if len(units) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&units).Error; err != nil {
			return fmt.Errorf("failed to insert units: %w", err)
		}
		return nil
	})
}

// UpdateUnit overwrites every mutable column with the values in u, nils included.
func (s *gormStore) UpdateUnit(ctx context.Context, u *model.Unit) (*model.Unit, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Unit{ID: u.ID}).
		Select("unit_number", "type", "floor", "entrance", "size_sqm", "co_ownership_share", "construction_year", "rooms").
		Updates(u)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update unit %s: %w", u.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetUnit(ctx, u.ID)
}

func (s *gormStore) DeleteUnit(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Unit{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete unit %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DistinctStaff returns every distinct non-empty manager and accountant name.
func (s *gormStore) DistinctStaff(ctx context.Context) ([]string, []string, error) {
	managers := make([]string, 0)
	if err := s.db.WithContext(ctx).
		Model(&model.Property{}).
		Where("property_manager IS NOT NULL AND property_manager <> ''").
		Distinct().
		Pluck("property_manager", &managers).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to collect property managers: %w", err)
	}

	accountants := make([]string, 0)
	if err := s.db.WithContext(ctx).
		Model(&model.Property{}).
		Where("accountant IS NOT NULL AND accountant <> ''").
		Distinct().
		Pluck("accountant", &accountants).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to collect accountants: %w", err)
	}
	return managers, accountants, nil
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to load %s %s: %w", kind, id, err)
}
