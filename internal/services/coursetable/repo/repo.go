// Package repo provides the course table repository
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"courseboard/internal/core/timetable"
	"courseboard/internal/modkit/repokit"
	perr "courseboard/internal/platform/errors"
	"courseboard/internal/platform/store"
	"courseboard/internal/services/coursetable/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the course table repository. BumpVersion carries the
// optimistic concurrency check: it fails with a conflict when the caller's
// view of the table is stale
type Storage interface {
	Insert(ctx context.Context, t domain.CourseTable) error
	List(ctx context.Context, ownerID string) ([]domain.CourseTable, error)
	Get(ctx context.Context, tableID uuid.UUID) (domain.CourseTable, error)
	Rename(ctx context.Context, tableID uuid.UUID, name string) error
	Delete(ctx context.Context, tableID uuid.UUID) error

	BumpVersion(ctx context.Context, tableID uuid.UUID, fromVersion int) error
	InsertSelection(ctx context.Context, tableID uuid.UUID, sel domain.Selection) error
	DeleteSelection(ctx context.Context, tableID, offeringID uuid.UUID) (bool, error)
}

func scanTable(r store.Row) (domain.CourseTable, error) {
	var t domain.CourseTable
	var term string
	err := r.Scan(&t.ID, &t.OwnerID, &t.Name, &term, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.Term = timetable.Term(term)
	return t, nil
}

// Insert implements Storage
func (s *pg) Insert(ctx context.Context, t domain.CourseTable) error {
	err := store.ExecOne(ctx, s.q, `
		INSERT INTO course_tables (id, owner_id, name, term, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		t.ID, t.OwnerID, t.Name, string(t.Term), t.Version, t.CreatedAt)
	return perr.FromPostgresWithField(err, "coursetable insert")
}

// List implements Storage; selections are not hydrated for listings
func (s *pg) List(ctx context.Context, ownerID string) ([]domain.CourseTable, error) {
	tables, err := store.Many(ctx, s.q, scanTable, `
		SELECT id, owner_id, name, term, version, created_at, updated_at
		FROM course_tables
		WHERE owner_id = $1
		ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, perr.FromPostgres(err, "coursetable list")
	}
	return tables, nil
}

// Get implements Storage, hydrating selections
func (s *pg) Get(ctx context.Context, tableID uuid.UUID) (domain.CourseTable, error) {
	t, err := store.One(ctx, s.q, scanTable, `
		SELECT id, owner_id, name, term, version, created_at, updated_at
		FROM course_tables
		WHERE id = $1`, tableID)
	if err != nil {
		return domain.CourseTable{}, perr.FromPostgres(err, "coursetable get")
	}
	sels, err := store.Many(ctx, s.q, func(r store.Row) (domain.Selection, error) {
		var sel domain.Selection
		err := r.Scan(&sel.OfferingID, &sel.Code, &sel.Section, &sel.AddedAt)
		return sel, err
	}, `
		SELECT offering_id, code, section, added_at
		FROM table_selections
		WHERE table_id = $1
		ORDER BY added_at`, tableID)
	if err != nil {
		return domain.CourseTable{}, perr.FromPostgres(err, "coursetable selections")
	}
	t.Selections = sels
	return t, nil
}

// Rename implements Storage
func (s *pg) Rename(ctx context.Context, tableID uuid.UUID, name string) error {
	err := store.ExecOne(ctx, s.q, `
		UPDATE course_tables SET name = $2, updated_at = $3 WHERE id = $1`,
		tableID, name, time.Now().UTC())
	return perr.FromPostgres(err, "coursetable rename")
}

// Delete implements Storage; selections go with the table
func (s *pg) Delete(ctx context.Context, tableID uuid.UUID) error {
	if _, err := store.Exec(ctx, s.q,
		`DELETE FROM table_selections WHERE table_id = $1`, tableID); err != nil {
		return perr.FromPostgres(err, "coursetable delete selections")
	}
	err := store.ExecOne(ctx, s.q, `DELETE FROM course_tables WHERE id = $1`, tableID)
	return perr.FromPostgres(err, "coursetable delete")
}

// BumpVersion implements Storage. Zero rows means another writer got there
// first; the caller retries its validation against the fresh state
func (s *pg) BumpVersion(ctx context.Context, tableID uuid.UUID, fromVersion int) error {
	err := store.ExecOne(ctx, s.q, `
		UPDATE course_tables
		SET version = version + 1, updated_at = $3
		WHERE id = $1 AND version = $2`,
		tableID, fromVersion, time.Now().UTC())
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeConflict) {
			return perr.Conflictf("course table changed concurrently")
		}
		return perr.FromPostgres(err, "coursetable bump version")
	}
	return nil
}

// InsertSelection implements Storage
func (s *pg) InsertSelection(ctx context.Context, tableID uuid.UUID, sel domain.Selection) error {
	err := store.ExecOne(ctx, s.q, `
		INSERT INTO table_selections (table_id, offering_id, code, section, added_at)
		VALUES ($1, $2, $3, $4, $5)`,
		tableID, sel.OfferingID, sel.Code, sel.Section, sel.AddedAt)
	return perr.FromPostgres(err, "coursetable insert selection")
}

// DeleteSelection implements Storage; reports whether a row existed
func (s *pg) DeleteSelection(ctx context.Context, tableID, offeringID uuid.UUID) (bool, error) {
	tag, err := store.Exec(ctx, s.q, `
		DELETE FROM table_selections WHERE table_id = $1 AND offering_id = $2`,
		tableID, offeringID)
	if err != nil {
		return false, perr.FromPostgres(err, "coursetable delete selection")
	}
	return tag.RowsAffected() == 1, nil
}
