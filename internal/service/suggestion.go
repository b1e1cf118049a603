package service

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// SuggestionService feeds autocomplete for staff fields.
type SuggestionService struct {
	*deps
}

// StaffSuggestions returns the distinct non-empty property managers and
// accountants, sorted.
func (s *SuggestionService) StaffSuggestions(ctx context.Context) (*StaffSuggestions, error) {
	managers, accountants, err := s.store.DistinctStaff(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sort.Strings(managers)
	sort.Strings(accountants)
	return &StaffSuggestions{Managers: managers, Accountants: accountants}, nil
}
