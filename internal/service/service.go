// Package service implements the property, building, unit and suggestion
// operations on top of a store.Store.
package service

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"property-backend/internal/store"
)

// deps is shared by every entity service.
type deps struct {
	store    store.Store
	log      *zap.Logger
	validate *validator.Validate
}

// Services groups the entity services handed to the HTTP layer.
type Services struct {
	Properties  *PropertyService
	Buildings   *BuildingService
	Units       *UnitService
	Suggestions *SuggestionService
}

// New wires every service against the given store.
func New(st store.Store, log *zap.Logger) *Services {
	d := &deps{store: st, log: log, validate: newValidator()}
	return &Services{
		Properties:  &PropertyService{d},
		Buildings:   &BuildingService{d},
		Units:       &UnitService{d},
		Suggestions: &SuggestionService{d},
	}
}

// lookup maps store.ErrNotFound to a NotFound error for resource and attaches a
// stack to anything else.
func lookup(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return NotFound(resource)
	}
	return errors.WithStack(err)
}
