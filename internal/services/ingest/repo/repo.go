// Package repo provides the ingest write-side repository
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"courseboard/internal/modkit/repokit"
	perr "courseboard/internal/platform/errors"
	"courseboard/internal/platform/store"
	ptime "courseboard/internal/platform/time"
	catalogdom "courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/ingest/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the ingest write repository. Every method is expected to
// run inside the single commit transaction except the crawl run bookkeeping
type Storage interface {
	InsertOffering(ctx context.Context, o catalogdom.CourseOffering) error
	Supersede(ctx context.Context, id uuid.UUID) error
	MarkRemoved(ctx context.Context, id uuid.UUID) error
	InsertSnapshot(ctx context.Context, meta catalogdom.SnapshotMeta, memberIDs []uuid.UUID) error
	AffectedUsers(ctx context.Context, removedIDs []uuid.UUID) ([]string, error)

	InsertRun(ctx context.Context, runID uuid.UUID, term string, startedAt time.Time) error
	FinishRun(ctx context.Context, rep domain.RunReport) error
}

// InsertOffering implements Storage
func (s *pg) InsertOffering(ctx context.Context, o catalogdom.CourseOffering) error {
	slots, err := json.Marshal(o.Slots)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "ingest encode slots for %s/%s", o.Code, o.Section)
	}
	err = store.ExecOne(ctx, s.q, `
		INSERT INTO offerings
			(id, code, section, term, title, teachers, slots, capacity, credits,
			course_type, campus, classroom, prereqs, suspended, checksum,
			superseded, removed, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,FALSE,FALSE,$16)`,
		o.ID, o.Code, o.Section, string(o.Term), o.Title, o.Teachers, slots,
		o.Capacity, o.Credits, o.CourseType, o.Campus, o.Classroom,
		o.Prereqs, o.Suspended, o.Checksum, o.CreatedAt,
	)
	return perr.FromPostgresf(err, "ingest insert offering %s/%s", o.Code, o.Section)
}

// Supersede implements Storage
func (s *pg) Supersede(ctx context.Context, id uuid.UUID) error {
	err := store.ExecOne(ctx, s.q,
		`UPDATE offerings SET superseded = TRUE WHERE id = $1 AND superseded = FALSE`, id)
	return perr.FromPostgresf(err, "ingest supersede offering %s", id)
}

// MarkRemoved implements Storage; the row survives so table references keep
// resolving, they just resolve to a removed offering
func (s *pg) MarkRemoved(ctx context.Context, id uuid.UUID) error {
	err := store.ExecOne(ctx, s.q,
		`UPDATE offerings SET removed = TRUE WHERE id = $1 AND removed = FALSE`, id)
	return perr.FromPostgresf(err, "ingest mark removed %s", id)
}

// InsertSnapshot implements Storage; flips is_current inside the same tx so
// exactly one snapshot is current at any moment
func (s *pg) InsertSnapshot(ctx context.Context, meta catalogdom.SnapshotMeta, memberIDs []uuid.UUID) error {
	if _, err := store.Exec(ctx, s.q,
		`UPDATE snapshots SET is_current = FALSE WHERE is_current = TRUE`); err != nil {
		return perr.FromPostgres(err, "ingest clear current snapshot")
	}
	if err := store.ExecOne(ctx, s.q, `
		INSERT INTO snapshots (id, run_id, term, taken_at, is_current)
		VALUES ($1, $2, $3, $4, TRUE)`,
		meta.ID, meta.RunID, string(meta.Term), meta.TakenAt); err != nil {
		return perr.FromPostgres(err, "ingest insert snapshot")
	}
	for _, id := range memberIDs {
		if err := store.ExecOne(ctx, s.q, `
			INSERT INTO snapshot_members (snapshot_id, offering_id)
			VALUES ($1, $2)`, meta.ID, id); err != nil {
			return perr.FromPostgresf(err, "ingest insert snapshot member %s", id)
		}
	}
	return nil
}

// AffectedUsers implements Storage; owners of tables still referencing one
// of the removed offerings, for the caller's warning fan-out
func (s *pg) AffectedUsers(ctx context.Context, removedIDs []uuid.UUID) ([]string, error) {
	if len(removedIDs) == 0 {
		return nil, nil
	}
	users, err := store.Many(ctx, s.q, func(r store.Row) (string, error) {
		var u string
		err := r.Scan(&u)
		return u, err
	}, `
		SELECT DISTINCT t.owner_id
		FROM course_tables t
		JOIN table_selections sel ON sel.table_id = t.id
		WHERE sel.offering_id = ANY($1)
		ORDER BY t.owner_id`, removedIDs)
	if err != nil {
		return nil, perr.FromPostgres(err, "ingest affected users")
	}
	return users, nil
}

// InsertRun implements Storage
func (s *pg) InsertRun(ctx context.Context, runID uuid.UUID, term string, startedAt time.Time) error {
	err := store.ExecOne(ctx, s.q, `
		INSERT INTO crawl_runs (id, term, state, started_at)
		VALUES ($1, $2, $3, $4)`,
		runID, term, string(domain.RunRunning), startedAt)
	return perr.FromPostgres(err, "ingest insert crawl run")
}

// FinishRun implements Storage
func (s *pg) FinishRun(ctx context.Context, rep domain.RunReport) error {
	report, err := json.Marshal(rep)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "ingest encode run report")
	}
	err = store.ExecOne(ctx, s.q, `
		UPDATE crawl_runs
		SET state = $2, finished_at = $3, report = $4
		WHERE id = $1`,
		rep.RunID, string(rep.State), ptime.Ptr(rep.FinishedAt), report)
	return perr.FromPostgres(err, "ingest finish crawl run")
}
