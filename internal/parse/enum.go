package parse

import (
	"fmt"
	"strings"

	"property-backend/internal/model"
)

// PropertyType maps untrusted input onto model.PropertyType.
func PropertyType(raw string) (model.PropertyType, error) {
	for _, t := range model.PropertyTypes {
		if raw == string(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("Type must be either %s", joinTypes(model.PropertyTypes, " or "))
}

// UnitType maps untrusted input onto model.UnitType.
func UnitType(raw string) (model.UnitType, error) {
	for _, t := range model.UnitTypes {
		if raw == string(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("Type must be one of: %s", joinTypes(model.UnitTypes, ", "))
}

func joinTypes[T ~string](types []T, sep string) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, sep)
}
