package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Scalar is the set of column types a Field can carry.
type Scalar interface {
	string | int | float64
}

// Field is an optional input value that remembers whether its key was present.
// Browser forms send numbers as strings and blanks as "", so numeric fields accept
// JSON numbers and numeric strings, and a blank string decodes to a nil Value.
type Field[T Scalar] struct {
	Set   bool
	Value *T
}

// Some returns a present Field holding v.
func Some[T Scalar](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a present Field with an explicit null.
func Null[T Scalar]() Field[T] {
	return Field[T]{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	f.Value = nil

	raw := bytes.TrimSpace(b)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}

	text, err := scalarText(raw)
	if err != nil {
		return err
	}

	var v T
	switch p := any(&v).(type) {
	case *string:
		*p = text
	case *int:
		if strings.TrimSpace(text) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return fmt.Errorf("invalid integer %q", text)
		}
		*p = n
	case *float64:
		if strings.TrimSpace(text) == "" {
			return nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", text)
		}
		*p = n
	}
	f.Value = &v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}

// Ptr returns the decoded value, or nil when the field was absent or null.
func (f Field[T]) Ptr() *T {
	if f.Value == nil {
		return nil
	}
	v := *f.Value
	return &v
}

// Present is Ptr with blank strings folded to nil.
func (f Field[T]) Present() *T {
	v := f.Ptr()
	if v == nil {
		return nil
	}
	if s, ok := any(*v).(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return v
}

// Or merges the field over an existing value: absent keeps existing, anything
// else (including null and blank) replaces it.
func (f Field[T]) Or(existing *T) *T {
	if !f.Set {
		return existing
	}
	return f.Present()
}

// scalarText returns the textual form of a JSON string or number literal.
func scalarText(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected a string or number, got %s", raw)
	}
	return n.String(), nil
}
