// Package id generates identifiers for closing snapshots and requests.
// UUIDv7 keeps snapshot ids ordered by creation time.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// NewString generates a new UUIDv7 in canonical text form.
func NewString() string {
	return New().String()
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
