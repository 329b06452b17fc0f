package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "roster/pkg/domain-errors"
)

// Person is the aggregate root for one tracked crew member. It owns the
// person's duty segments and at most one status snapshot.
//
// Invariants:
//   - Name is non-empty after trimming and at most 200 characters
//   - NormalizedName (upper, trimmed) is unique across all persons; the
//     storage layer's unique index is the authoritative backstop under races
type Person struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizedName returns the uniqueness key for a display name.
func NormalizedName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NewPerson validates the display name and constructs a Person.
func NewPerson(name string, now time.Time) (*Person, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "person name is required")
	}
	if len(trimmed) > 200 {
		return nil, dErrors.New(dErrors.CodeValidation, "person name must be 200 characters or less")
	}
	return &Person{
		ID:        uuid.New(),
		Name:      trimmed,
		CreatedAt: now,
	}, nil
}

// PersonStatus pairs a person with their derived status snapshot, if any.
// A person registered before their first duty has a nil Snapshot.
type PersonStatus struct {
	Person   Person          `json:"person"`
	Snapshot *StatusSnapshot `json:"snapshot,omitempty"`
}
