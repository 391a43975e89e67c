// Package service runs the ingest pipeline: fetch, normalize, diff, commit
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"courseboard/internal/core/timetable"
	"courseboard/internal/modkit/repokit"
	perr "courseboard/internal/platform/errors"
	"courseboard/internal/platform/logger"
	catalogdom "courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/ingest/audit"
	"courseboard/internal/services/ingest/diff"
	"courseboard/internal/services/ingest/domain"
	"courseboard/internal/services/ingest/normalize"
	"courseboard/internal/services/ingest/repo"
)

// Service implements domain.RunnerPort
type Service struct {
	tx        repokit.TxRunner
	binder    repokit.Binder[repo.Storage]
	fetcher   domain.FetcherPort
	norm      *normalize.Normalizer
	reader    catalogdom.ReaderPort
	publisher catalogdom.PublisherPort
	sink      *audit.Sink
	log       logger.Logger
	now       func() time.Time
}

// New constructs the pipeline service
func New(
	tx repokit.TxRunner,
	binder repokit.Binder[repo.Storage],
	fetcher domain.FetcherPort,
	norm *normalize.Normalizer,
	reader catalogdom.ReaderPort,
	publisher catalogdom.PublisherPort,
	sink *audit.Sink,
) *Service {
	return &Service{
		tx:        tx,
		binder:    binder,
		fetcher:   fetcher,
		norm:      norm,
		reader:    reader,
		publisher: publisher,
		sink:      sink,
		log:       *logger.Named("ingest"),
		now:       time.Now,
	}
}

// RunOnce implements domain.RunnerPort. A whole-run failure rolls back and
// leaves the previously committed snapshot current; per-record normalization
// rejects ride along in the report. Cancellation is honored at stage
// boundaries, never mid-commit
func (s *Service) RunOnce(ctx context.Context, term timetable.Term) (domain.RunReport, error) {
	ctx = logger.WithTerm(ctx, string(term))
	rep := domain.RunReport{
		RunID:     uuid.New(),
		Term:      term,
		StartedAt: s.now().UTC(),
		State:     domain.RunRunning,
	}
	log := s.log.With().Str("run_id", rep.RunID.String()).Str("term", string(term)).Logger()

	if err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).InsertRun(ctx, rep.RunID, string(term), rep.StartedAt)
	}); err != nil {
		return s.fail(ctx, rep, err)
	}

	raws, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		return s.fail(ctx, rep, perr.WrapIf(err, perr.ErrorCodeUnavailable, "crawl fetch failed"))
	}
	rep.Fetched = len(raws)
	if err := ctx.Err(); err != nil {
		return s.fail(ctx, rep, err)
	}

	offerings := make([]catalogdom.CourseOffering, 0, len(raws))
	for _, raw := range raws {
		o, ferr := s.norm.Normalize(raw)
		if ferr != nil {
			rep.NormFailures = append(rep.NormFailures, *ferr)
			continue
		}
		offerings = append(offerings, o)
	}
	log.Info().
		Int("fetched", rep.Fetched).
		Int("normalized", len(offerings)).
		Int("rejected", len(rep.NormFailures)).
		Msg("crawl normalize complete")
	if err := ctx.Err(); err != nil {
		return s.fail(ctx, rep, err)
	}

	prev := s.reader.Current()
	recs, err := diff.Diff(prev, offerings, term)
	if err != nil {
		return s.fail(ctx, rep, err)
	}
	rep.Added, rep.Changed, rep.Removed, rep.Unchanged = diff.Count(recs)

	if !rep.Effective() {
		// nothing moved: the current snapshot pointer stays where it is
		log.Info().Int("unchanged", rep.Unchanged).Msg("crawl run effectively empty")
		return s.finish(ctx, rep)
	}

	rep.State = domain.RunCommitting
	snap, affected, err := s.commit(ctx, rep, prev, recs)
	if err != nil {
		return s.fail(ctx, rep, err)
	}
	rep.AffectedUsers = affected
	rep.SnapshotID = snap.Meta().ID

	// pointer moves only after the transaction is durable
	s.publisher.Publish(snap)
	s.sink.WriteDiff(ctx, rep.RunID, string(term), recs)

	log.Info().
		Int("added", rep.Added).
		Int("changed", rep.Changed).
		Int("removed", rep.Removed).
		Int("affected_users", len(affected)).
		Str("snapshot_id", rep.SnapshotID.String()).
		Msg("crawl run committed")
	return s.finish(ctx, rep)
}

// commit applies the diff inside one transaction and returns the new
// snapshot ready to publish
func (s *Service) commit(
	ctx context.Context,
	rep domain.RunReport,
	prev *catalogdom.Snapshot,
	recs []domain.DiffRecord,
) (*catalogdom.Snapshot, []string, error) {
	meta := catalogdom.SnapshotMeta{
		ID:      uuid.New(),
		RunID:   rep.RunID,
		Term:    rep.Term,
		TakenAt: s.now().UTC(),
	}

	var (
		members  []catalogdom.CourseOffering
		affected []string
	)
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		st := s.binder.Bind(q)
		var removedIDs []uuid.UUID

		for _, r := range recs {
			switch r.Kind {
			case domain.Added:
				o := *r.Incoming
				o.ID = uuid.New()
				o.CreatedAt = meta.TakenAt
				if err := st.InsertOffering(ctx, o); err != nil {
					return err
				}
				members = append(members, o)

			case domain.Changed:
				if err := st.Supersede(ctx, r.PrevID); err != nil {
					return err
				}
				o := *r.Incoming
				o.ID = uuid.New()
				o.CreatedAt = meta.TakenAt
				if err := st.InsertOffering(ctx, o); err != nil {
					return err
				}
				members = append(members, o)

			case domain.Removed:
				if err := st.MarkRemoved(ctx, r.PrevID); err != nil {
					return err
				}
				removedIDs = append(removedIDs, r.PrevID)

			case domain.Unchanged:
				if prev == nil {
					return perr.Invariantf("unchanged record %s/%s without a previous snapshot", r.Key.Code, r.Key.Section)
				}
				o, ok := prev.Get(r.PrevID)
				if !ok {
					return perr.Invariantf("unchanged record %s/%s missing from previous snapshot", r.Key.Code, r.Key.Section)
				}
				members = append(members, o)
			}
		}

		var err error
		if affected, err = st.AffectedUsers(ctx, removedIDs); err != nil {
			return err
		}

		memberIDs := make([]uuid.UUID, len(members))
		for i := range members {
			memberIDs[i] = members[i].ID
		}
		return st.InsertSnapshot(ctx, meta, memberIDs)
	})
	if err != nil {
		return nil, nil, perr.WrapIf(err, perr.ErrorCodeDB, "crawl commit failed")
	}
	return catalogdom.NewSnapshot(meta, members), affected, nil
}

func (s *Service) finish(ctx context.Context, rep domain.RunReport) (domain.RunReport, error) {
	rep.State = domain.RunSucceeded
	rep.FinishedAt = s.now().UTC()
	if err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).FinishRun(ctx, rep)
	}); err != nil {
		s.log.Warn().Err(err).Msg("crawl run bookkeeping update failed")
	}
	return rep, nil
}

func (s *Service) fail(ctx context.Context, rep domain.RunReport, cause error) (domain.RunReport, error) {
	rep.State = domain.RunFailed
	rep.FinishedAt = s.now().UTC()
	rep.Err = cause.Error()
	s.log.Error().Err(cause).Str("run_id", rep.RunID.String()).Msg("crawl run failed")

	// best effort bookkeeping with a fresh context so a canceled run still records
	fctx := context.WithoutCancel(ctx)
	if err := repokit.WithTx(fctx, s.tx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).FinishRun(fctx, rep)
	}); err != nil {
		s.log.Warn().Err(err).Msg("crawl run bookkeeping update failed")
	}
	return rep, cause
}
