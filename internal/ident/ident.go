// Package ident generates entity identifiers and human-readable property numbers.
package ident

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random UUID string used as a primary key.
func NewID() string {
	return uuid.NewString()
}

// PropertyNumbers issues the PROP-<year>-<sequence> numbers of one calendar year.
type PropertyNumbers struct {
	At time.Time
}

// NewPropertyNumbers returns the numbering for properties created now.
func NewPropertyNumbers() PropertyNumbers {
	return PropertyNumbers{At: time.Now()}
}

// Prefix is shared by every number of the year.
func (n PropertyNumbers) Prefix() string {
	return fmt.Sprintf("PROP-%04d-", n.At.Year())
}

// Next returns the number following sequence seq.
func (n PropertyNumbers) Next(seq int64) string {
	return PropertyNumberAt(seq, n.At)
}

// PropertyNumberAt formats PROP-<year>-<existingCount+1, five digits>.
func PropertyNumberAt(existingCount int64, at time.Time) string {
	return fmt.Sprintf("PROP-%04d-%05d", at.Year(), existingCount+1)
}
