// Package domain defines the ingest pipeline's diff and report shapes
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"courseboard/internal/core/timetable"
	catalogdom "courseboard/internal/services/catalog/domain"
)

// DiffKind classifies one offering between two snapshots
type DiffKind string

// Diff classifications
const (
	Added     DiffKind = "added"
	Changed   DiffKind = "changed"
	Removed   DiffKind = "removed"
	Unchanged DiffKind = "unchanged"
)

// DiffRecord is one classified offering in a crawl run. Ephemeral: it lives
// for the duration of a commit and the run's audit trail
type DiffRecord struct {
	Key  catalogdom.OfferingKey `json:"key"`
	Kind DiffKind               `json:"kind"`

	// BeforeChecksum is empty for Added, AfterChecksum empty for Removed
	BeforeChecksum string `json:"before_checksum,omitempty"`
	AfterChecksum  string `json:"after_checksum,omitempty"`

	// PrevID is the superseded or removed row, zero for Added
	PrevID uuid.UUID `json:"prev_id,omitempty"`
	// Incoming carries the normalized offering for Added and Changed
	Incoming *catalogdom.CourseOffering `json:"-"`
}

// NormalizationReason says why one raw record failed to normalize
type NormalizationReason string

// Normalization failure reasons
const (
	MissingField       NormalizationReason = "missing_field"
	UnparsableTimeSlot NormalizationReason = "unparsable_time_slot"
	InvalidCapacity    NormalizationReason = "invalid_capacity"
)

// NormalizationError is a per-record failure. Collected into the run report,
// never fatal to the batch
type NormalizationError struct {
	Reason     NormalizationReason `json:"reason"`
	Field      string              `json:"field,omitempty"`
	Department string              `json:"department,omitempty"`
	Page       int                 `json:"page,omitempty"`
	Detail     string              `json:"detail,omitempty"`
}

// Error satisfies the error interface
func (e NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s field %s: %s", e.Reason, e.Field, e.Detail)
}

// RunState tracks a crawl run through the scheduler state machine
type RunState string

// Crawl run states
const (
	RunRunning    RunState = "running"
	RunCommitting RunState = "committing"
	RunSucceeded  RunState = "succeeded"
	RunFailed     RunState = "failed"
)

// RunReport is the structured outcome of one crawl run, consumed by the
// surrounding notification layer
type RunReport struct {
	RunID      uuid.UUID      `json:"run_id"`
	Term       timetable.Term `json:"term"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	State      RunState       `json:"state"`

	Fetched   int `json:"fetched"`
	Added     int `json:"added"`
	Changed   int `json:"changed"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`

	// NormFailures lists per-record rejects; they never fail the run
	NormFailures []NormalizationError `json:"norm_failures,omitempty"`

	// AffectedUsers lists owners of tables still referencing a removed
	// offering so the caller can warn them
	AffectedUsers []string `json:"affected_users,omitempty"`

	// SnapshotID is set only when the commit produced a new snapshot
	SnapshotID uuid.UUID `json:"snapshot_id,omitempty"`
	// Err holds the whole-run failure message when State is failed
	Err string `json:"error,omitempty"`
}

// Effective reports whether the diff carried at least one real change
func (r RunReport) Effective() bool { return r.Added+r.Changed+r.Removed > 0 }
