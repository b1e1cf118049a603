package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// List decodes a nested collection that may arrive either as a JSON array or as a
// string holding a JSON array (multipart form fields). Blank input yields nil.
func List[T any](raw []byte, field string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%s must be a JSON array", field)
		}
		return List[T]([]byte(inner), field)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s must be a JSON array: %v", field, err)
	}
	return items, nil
}
