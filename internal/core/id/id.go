// Package id defines the identifier type shared by every ledger entity.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID identifies products, categories, locations and journal entries.
type ID = uuid.UUID

// New generates a time-ordered UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}

// ParseList parses ids given as repeated values, each possibly
// comma-separated. Blank entries are skipped; the first invalid one fails.
func ParseList(values []string) ([]ID, error) {
	var ids []ID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			parsed, err := uuid.Parse(part)
			if err != nil {
				return nil, &ListError{Value: part, Err: err}
			}
			ids = append(ids, parsed)
		}
	}
	return ids, nil
}

// ListError reports the offending value of ParseList.
type ListError struct {
	Value string
	Err   error
}

func (e *ListError) Error() string { return fmt.Sprintf("invalid id %q: %v", e.Value, e.Err) }

func (e *ListError) Unwrap() error { return e.Err }
