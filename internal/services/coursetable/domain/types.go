// Package domain defines the course table shapes and ports
package domain

import (
	"time"

	"github.com/google/uuid"

	"courseboard/internal/core/conflict"
	"courseboard/internal/core/timetable"
)

// CourseTable is one user's selection of offerings for a term. Version is
// the optimistic concurrency token bumped by every mutation
type CourseTable struct {
	ID      uuid.UUID      `json:"id" db:"id"`
	OwnerID string         `json:"owner_id" db:"owner_id"`
	Name    string         `json:"name" db:"name"`
	Term    timetable.Term `json:"term" db:"term"`
	Version int            `json:"version" db:"version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Selections []Selection `json:"selections,omitempty"`
}

// Selection is one offering reference held by a table. The natural identity
// rides along so a reference stays readable even when the offering row is
// superseded or removed later
type Selection struct {
	OfferingID uuid.UUID `json:"offering_id" db:"offering_id"`
	Code       string    `json:"code" db:"code"`
	Section    string    `json:"section" db:"section"`
	AddedAt    time.Time `json:"added_at" db:"added_at"`
}

// CreateInput names a new table
type CreateInput struct {
	Name string `json:"name" validate:"required,max=80"`
	Term string `json:"term" validate:"required,term"`
}

// RenameInput renames a table
type RenameInput struct {
	Name string `json:"name" validate:"required,max=80"`
}

// AddInput selects one offering
type AddInput struct {
	OfferingID string `json:"offering_id" validate:"required,uuid4"`
}

// ValidateInput is the preview-validation request; nothing persists
type ValidateInput struct {
	TableID    string   `json:"table_id" validate:"required,uuid4"`
	OfferingID string   `json:"offering_id" validate:"required,uuid4"`
	Completed  []string `json:"completed,omitempty"`
}

// AddResult pairs the mutated table with the conflict report. A non-ok
// report means the add was rejected and the table is unchanged; that is an
// expected outcome, not a system error
type AddResult struct {
	Table  CourseTable     `json:"table"`
	Report conflict.Report `json:"report"`
}
