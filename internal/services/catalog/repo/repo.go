// Package repo provides the catalog read-side repository
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"courseboard/internal/core/timetable"
	"courseboard/internal/modkit/repokit"
	perr "courseboard/internal/platform/errors"
	"courseboard/internal/platform/store"
	"courseboard/internal/services/catalog/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the catalog read repository
type Storage interface {
	ListOfferings(ctx context.Context, f domain.Filters, limit, offset int) ([]domain.CourseOffering, error)
	GetOffering(ctx context.Context, id uuid.UUID) (domain.CourseOffering, error)
	CurrentSnapshotMeta(ctx context.Context) (domain.SnapshotMeta, error)
	SnapshotOfferings(ctx context.Context, snapshotID uuid.UUID) ([]domain.CourseOffering, error)
}

const offeringCols = `
	o.id, o.code, o.section, o.term, o.title, o.teachers, o.slots,
	o.capacity, o.credits, o.course_type, o.campus, o.classroom,
	o.prereqs, o.suspended, o.checksum, o.superseded, o.removed, o.created_at`

// ScanOffering maps one offerings row; slots travel as jsonb
func ScanOffering(r store.Row) (domain.CourseOffering, error) {
	var (
		o     domain.CourseOffering
		term  string
		slots []byte
	)
	err := r.Scan(
		&o.ID, &o.Code, &o.Section, &term, &o.Title, &o.Teachers, &slots,
		&o.Capacity, &o.Credits, &o.CourseType, &o.Campus, &o.Classroom,
		&o.Prereqs, &o.Suspended, &o.Checksum, &o.Superseded, &o.Removed, &o.CreatedAt,
	)
	if err != nil {
		return domain.CourseOffering{}, err
	}
	o.Term = timetable.Term(term)
	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &o.Slots); err != nil {
			return domain.CourseOffering{}, perr.Wrapf(err, perr.ErrorCodeDB, "offering %s slots decode", o.ID)
		}
	}
	return o, nil
}

// ListOfferings implements Storage; only current (non superseded) versions list
func (s *pg) ListOfferings(ctx context.Context, f domain.Filters, limit, offset int) ([]domain.CourseOffering, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`SELECT ` + offeringCols + `
		FROM offerings o
		WHERE o.superseded = FALSE`)
	if !f.IncludeRemoved {
		sb.WriteString(" AND o.removed = FALSE")
	}
	if f.Term != "" {
		sb.WriteString(" AND o.term = " + arg(f.Term))
	}
	if f.Code != "" {
		sb.WriteString(" AND o.code = " + arg(f.Code))
	}
	if f.Teacher != "" {
		sb.WriteString(" AND " + arg(f.Teacher) + " = ANY(o.teachers)")
	}
	sb.WriteString(" ORDER BY o.code, o.section")
	sb.WriteString(" LIMIT " + arg(limit) + " OFFSET " + arg(offset))

	rows, err := store.Many(ctx, s.q, ScanOffering, sb.String(), args...)
	if err != nil {
		return nil, perr.FromPostgres(err, "catalog list offerings")
	}
	return rows, nil
}

// GetOffering implements Storage
func (s *pg) GetOffering(ctx context.Context, id uuid.UUID) (domain.CourseOffering, error) {
	o, err := store.One(ctx, s.q, ScanOffering,
		`SELECT `+offeringCols+` FROM offerings o WHERE o.id = $1`, id)
	if err != nil {
		return domain.CourseOffering{}, perr.FromPostgres(err, "catalog get offering")
	}
	return o, nil
}

// CurrentSnapshotMeta implements Storage
func (s *pg) CurrentSnapshotMeta(ctx context.Context) (domain.SnapshotMeta, error) {
	m, err := store.One(ctx, s.q, func(r store.Row) (domain.SnapshotMeta, error) {
		var m domain.SnapshotMeta
		var term string
		if err := r.Scan(&m.ID, &m.RunID, &term, &m.TakenAt, &m.Size); err != nil {
			return m, err
		}
		m.Term = timetable.Term(term)
		return m, nil
	}, `
		SELECT s.id, s.run_id, s.term, s.taken_at,
			(SELECT COUNT(*) FROM snapshot_members m WHERE m.snapshot_id = s.id)
		FROM snapshots s
		WHERE s.is_current = TRUE`)
	if err != nil {
		return domain.SnapshotMeta{}, perr.FromPostgres(err, "catalog current snapshot")
	}
	return m, nil
}

// SnapshotOfferings implements Storage
func (s *pg) SnapshotOfferings(ctx context.Context, snapshotID uuid.UUID) ([]domain.CourseOffering, error) {
	rows, err := store.Many(ctx, s.q, ScanOffering, `
		SELECT `+offeringCols+`
		FROM snapshot_members m
		JOIN offerings o ON o.id = m.offering_id
		WHERE m.snapshot_id = $1
		ORDER BY o.code, o.section`, snapshotID)
	if err != nil {
		return nil, perr.FromPostgres(err, "catalog snapshot offerings")
	}
	return rows, nil
}
