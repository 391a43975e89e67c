package domain

import (
	"context"

	"github.com/google/uuid"
)

// ReaderPort serves catalog lookups for the HTTP layer and the table service
type ReaderPort interface {
	List(ctx context.Context, f Filters, limit, offset int) ([]CourseOffering, error)
	Get(ctx context.Context, id uuid.UUID) (CourseOffering, error)
	// Current returns the currently published snapshot, nil before first load
	Current() *Snapshot
}

// PublisherPort swaps the current snapshot; only the ingest committer calls it
type PublisherPort interface {
	Publish(s *Snapshot)
	// Reload rebuilds the current snapshot from storage, used at boot
	Reload(ctx context.Context) error
}
