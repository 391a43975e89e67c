package domain

import (
	"context"

	"github.com/google/uuid"

	"courseboard/internal/core/conflict"
)

// TablePort is the user-facing course table surface
type TablePort interface {
	Create(ctx context.Context, ownerID string, in CreateInput) (CourseTable, error)
	List(ctx context.Context, ownerID string) ([]CourseTable, error)
	Get(ctx context.Context, ownerID string, tableID uuid.UUID) (CourseTable, error)
	Rename(ctx context.Context, ownerID string, tableID uuid.UUID, in RenameInput) (CourseTable, error)
	Delete(ctx context.Context, ownerID string, tableID uuid.UUID) error

	// AddOffering re-resolves the offering against the current snapshot and
	// validates before persisting. Remove is unconditional
	AddOffering(ctx context.Context, ownerID string, tableID, offeringID uuid.UUID) (AddResult, error)
	RemoveOffering(ctx context.Context, ownerID string, tableID, offeringID uuid.UUID) (CourseTable, error)

	// Validate previews an add without persisting anything
	Validate(ctx context.Context, ownerID string, in ValidateInput) (conflict.Report, error)

	// Check revalidates a whole table against the current catalog, for
	// surfacing conflicts introduced by a crawl changing offerings underneath
	Check(ctx context.Context, ownerID string, tableID uuid.UUID) (conflict.Report, error)
}
