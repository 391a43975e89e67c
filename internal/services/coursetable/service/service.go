// Package service implements the course table operations
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"courseboard/internal/core/conflict"
	"courseboard/internal/core/timetable"
	"courseboard/internal/modkit/repokit"
	perr "courseboard/internal/platform/errors"
	"courseboard/internal/platform/logger"
	catalogdom "courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/coursetable/domain"
	"courseboard/internal/services/coursetable/repo"
)

// Config for the course table service
type Config struct {
	Rules conflict.Rules
}

// Service implements domain.TablePort.
//
// Mutations against one table are serialized two ways: an in-process keyed
// lock, and a version column bumped under a matching-version predicate so
// two instances behind a balancer still cannot both pass a stale validation
type Service struct {
	tx      repokit.TxRunner
	binder  repokit.Binder[repo.Storage]
	catalog catalogdom.ReaderPort
	engine  *conflict.Engine
	locks   *keyedLocks
	log     logger.Logger
	now     func() time.Time
}

// New constructs the course table service
func New(tx repokit.TxRunner, binder repokit.Binder[repo.Storage], catalog catalogdom.ReaderPort, cfg Config) *Service {
	return &Service{
		tx:      tx,
		binder:  binder,
		catalog: catalog,
		engine:  conflict.New(cfg.Rules),
		locks:   newKeyedLocks(),
		log:     *logger.Named("coursetable"),
		now:     time.Now,
	}
}

// Create implements domain.TablePort
func (s *Service) Create(ctx context.Context, ownerID string, in domain.CreateInput) (domain.CourseTable, error) {
	term, err := timetable.ParseTerm(in.Term)
	if err != nil {
		return domain.CourseTable{}, perr.WithField(err, "term")
	}
	t := domain.CourseTable{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Term:      term,
		Version:   1,
		CreatedAt: s.now().UTC(),
	}
	t.UpdatedAt = t.CreatedAt
	err = repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).Insert(ctx, t)
	})
	if err != nil {
		return domain.CourseTable{}, err
	}
	return t, nil
}

// List implements domain.TablePort
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.CourseTable, error) {
	var out []domain.CourseTable
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).List(ctx, ownerID)
		return err
	})
	return out, err
}

// Get implements domain.TablePort
func (s *Service) Get(ctx context.Context, ownerID string, tableID uuid.UUID) (domain.CourseTable, error) {
	var out domain.CourseTable
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		var err error
		out, err = s.ownedTable(ctx, s.binder.Bind(q), ownerID, tableID)
		return err
	})
	return out, err
}

// Rename implements domain.TablePort
func (s *Service) Rename(ctx context.Context, ownerID string, tableID uuid.UUID, in domain.RenameInput) (domain.CourseTable, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	var out domain.CourseTable
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		st := s.binder.Bind(q)
		if _, err := s.ownedTable(ctx, st, ownerID, tableID); err != nil {
			return err
		}
		if err := st.Rename(ctx, tableID, in.Name); err != nil {
			return err
		}
		var err error
		out, err = st.Get(ctx, tableID)
		return err
	})
	return out, err
}

// Delete implements domain.TablePort
func (s *Service) Delete(ctx context.Context, ownerID string, tableID uuid.UUID) error {
	unlock := s.locks.lock(tableID)
	defer unlock()

	return repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		st := s.binder.Bind(q)
		if _, err := s.ownedTable(ctx, st, ownerID, tableID); err != nil {
			return err
		}
		return st.Delete(ctx, tableID)
	})
}

// AddOffering implements domain.TablePort. The offering re-resolves against
// the currently published snapshot on every call, never a cached copy. A
// failed validation returns the report with the table untouched
func (s *Service) AddOffering(ctx context.Context, ownerID string, tableID, offeringID uuid.UUID) (domain.AddResult, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	var res domain.AddResult
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		st := s.binder.Bind(q)
		t, err := s.ownedTable(ctx, st, ownerID, tableID)
		if err != nil {
			return err
		}

		o, err := s.resolveOffering(ctx, offeringID)
		if err != nil {
			return err
		}
		if o.Suspended {
			return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "offering %s/%s is suspended this term", o.Code, o.Section), "offering_id")
		}
		if o.Term != t.Term {
			return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "offering term %s does not match table term %s", o.Term, t.Term), "offering_id")
		}

		existing := s.resolveSelections(ctx, t)
		rep := s.engine.Validate(existing, asCourse(o), nil)
		if !rep.Ok() {
			res = domain.AddResult{Table: t, Report: rep}
			return nil
		}

		if err := st.BumpVersion(ctx, tableID, t.Version); err != nil {
			return err
		}
		if err := st.InsertSelection(ctx, tableID, domain.Selection{
			OfferingID: o.ID,
			Code:       o.Code,
			Section:    o.Section,
			AddedAt:    s.now().UTC(),
		}); err != nil {
			return err
		}

		fresh, err := st.Get(ctx, tableID)
		if err != nil {
			return err
		}
		res = domain.AddResult{Table: fresh, Report: rep}
		return nil
	})
	if err != nil {
		return domain.AddResult{}, err
	}
	return res, nil
}

// RemoveOffering implements domain.TablePort; removal cannot create a
// conflict so it is unconditional
func (s *Service) RemoveOffering(ctx context.Context, ownerID string, tableID, offeringID uuid.UUID) (domain.CourseTable, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	var out domain.CourseTable
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		st := s.binder.Bind(q)
		t, err := s.ownedTable(ctx, st, ownerID, tableID)
		if err != nil {
			return err
		}
		existed, err := st.DeleteSelection(ctx, tableID, offeringID)
		if err != nil {
			return err
		}
		if existed {
			if err := st.BumpVersion(ctx, tableID, t.Version); err != nil {
				return err
			}
		}
		out, err = st.Get(ctx, tableID)
		return err
	})
	return out, err
}

// Validate implements domain.TablePort; same checks as AddOffering with no
// persistence side effect
func (s *Service) Validate(ctx context.Context, ownerID string, in domain.ValidateInput) (conflict.Report, error) {
	tableID, err := uuid.Parse(in.TableID)
	if err != nil {
		return conflict.Report{}, perr.InvalidArgf("table_id must be a uuid")
	}
	offeringID, err := uuid.Parse(in.OfferingID)
	if err != nil {
		return conflict.Report{}, perr.InvalidArgf("offering_id must be a uuid")
	}

	var rep conflict.Report
	err = repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		t, err := s.ownedTable(ctx, s.binder.Bind(q), ownerID, tableID)
		if err != nil {
			return err
		}
		o, err := s.resolveOffering(ctx, offeringID)
		if err != nil {
			return err
		}

		completed := make(conflict.CompletedSet, len(in.Completed))
		for _, c := range in.Completed {
			completed[c] = struct{}{}
		}
		rep = s.engine.Validate(s.resolveSelections(ctx, t), asCourse(o), completed)
		return nil
	})
	return rep, err
}

// Check implements domain.TablePort. Pairwise plus aggregate revalidation of
// the member set as it resolves right now; a table that was clean when built
// can drift into conflict after a crawl moves an offering's slots
func (s *Service) Check(ctx context.Context, ownerID string, tableID uuid.UUID) (conflict.Report, error) {
	var rep conflict.Report
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		t, err := s.ownedTable(ctx, s.binder.Bind(q), ownerID, tableID)
		if err != nil {
			return err
		}
		rep = s.engine.ValidateTable(s.resolveSelections(ctx, t), nil)
		return nil
	})
	return rep, err
}

// ownedTable loads a table and hides other users' tables behind not found
func (s *Service) ownedTable(ctx context.Context, st repo.Storage, ownerID string, tableID uuid.UUID) (domain.CourseTable, error) {
	t, err := st.Get(ctx, tableID)
	if err != nil {
		return domain.CourseTable{}, err
	}
	if t.OwnerID != ownerID {
		return domain.CourseTable{}, perr.NotFoundf("course table %s not found", tableID)
	}
	return t, nil
}

// resolveOffering looks the offering up in the published snapshot first and
// falls back to storage so removed offerings still resolve
func (s *Service) resolveOffering(ctx context.Context, id uuid.UUID) (catalogdom.CourseOffering, error) {
	if snap := s.catalog.Current(); snap != nil {
		if o, ok := snap.Get(id); ok {
			return o, nil
		}
	}
	o, err := s.catalog.Get(ctx, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return catalogdom.CourseOffering{}, perr.WithField(perr.NotFoundf("offering %s not found in catalog", id), "offering_id")
		}
		return catalogdom.CourseOffering{}, err
	}
	if o.Removed {
		return catalogdom.CourseOffering{}, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "offering %s/%s was removed from the catalog", o.Code, o.Section), "offering_id")
	}
	return o, nil
}

// resolveSelections maps a table's references to conflict engine inputs.
// A reference that no longer resolves anywhere still counts: its stored
// identity is kept with no slots so duplicate detection keeps working
func (s *Service) resolveSelections(ctx context.Context, t domain.CourseTable) []conflict.Course {
	snap := s.catalog.Current()
	out := make([]conflict.Course, 0, len(t.Selections))
	for _, sel := range t.Selections {
		if snap != nil {
			if o, ok := snap.Get(sel.OfferingID); ok {
				out = append(out, asCourse(o))
				continue
			}
		}
		if o, err := s.catalog.Get(ctx, sel.OfferingID); err == nil {
			out = append(out, asCourse(o))
			continue
		}
		s.log.Warn().
			Str("table_id", t.ID.String()).
			Str("offering_id", sel.OfferingID.String()).
			Msg("table selection no longer resolves")
		out = append(out, conflict.Course{ID: sel.OfferingID.String(), Code: sel.Code})
	}
	return out
}

func asCourse(o catalogdom.CourseOffering) conflict.Course {
	return conflict.Course{
		ID:      o.ID.String(),
		Code:    o.Code,
		Credits: o.Credits,
		Slots:   o.Slots,
		Prereqs: o.Prereqs,
	}
}
