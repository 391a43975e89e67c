// Package service implements the catalog reader and snapshot holder
package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"courseboard/internal/modkit/repokit"
	perr "courseboard/internal/platform/errors"
	"courseboard/internal/platform/logger"
	"courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/catalog/repo"
)

// Config for the catalog service
type Config struct {
	HardLimit    int
	RefreshEvery time.Duration
}

// Service implements domain.ReaderPort and domain.PublisherPort.
// The current snapshot lives behind an atomic pointer: readers load it
// lock free, a successful ingest commit builds a new one and swaps
type Service struct {
	tx      repokit.TxRunner
	binder  repokit.Binder[repo.Storage]
	cfg     Config
	log     logger.Logger
	current atomic.Pointer[domain.Snapshot]
}

// New constructs the catalog service
func New(tx repokit.TxRunner, binder repokit.Binder[repo.Storage], cfg Config) *Service {
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 200
	}
	if cfg.RefreshEvery <= 0 {
		cfg.RefreshEvery = time.Minute
	}
	return &Service{
		tx:     tx,
		binder: binder,
		cfg:    cfg,
		log:    *logger.Named("catalog"),
	}
}

// Current implements domain.ReaderPort; nil means no snapshot published yet
func (s *Service) Current() *domain.Snapshot { return s.current.Load() }

// Publish implements domain.PublisherPort
func (s *Service) Publish(snap *domain.Snapshot) {
	s.current.Store(snap)
	s.log.Info().
		Str("snapshot_id", snap.Meta().ID.String()).
		Str("term", string(snap.Meta().Term)).
		Int("size", snap.Len()).
		Msg("catalog snapshot published")
}

// Reload implements domain.PublisherPort; a store with no committed snapshot
// yet is not an error, the pointer just stays empty until the first crawl.
// When the committed snapshot id matches what is already published the
// members are not re-read
func (s *Service) Reload(ctx context.Context) error {
	var snap *domain.Snapshot
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		st := s.binder.Bind(q)
		meta, err := st.CurrentSnapshotMeta(ctx)
		if err != nil {
			return err
		}
		if cur := s.current.Load(); cur != nil && cur.Meta().ID == meta.ID {
			return nil
		}
		offs, err := st.SnapshotOfferings(ctx, meta.ID)
		if err != nil {
			return err
		}
		snap = domain.NewSnapshot(meta, offs)
		return nil
	})
	if err != nil {
		if errors.Is(err, perr.ErrNotFound) {
			s.log.Info().Msg("catalog has no committed snapshot yet")
			return nil
		}
		return err
	}
	if snap == nil {
		return nil
	}
	s.Publish(snap)
	return nil
}

// KeepCurrent reloads the published snapshot on a cadence so processes that
// do not run the ingest pipeline still follow catalog swaps committed
// elsewhere. Blocks until ctx is done; refresh failures are logged and the
// previous snapshot stays published
func (s *Service) KeepCurrent(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil {
				s.log.Warn().Err(err).Msg("catalog snapshot refresh failed")
			}
		}
	}
}

// List implements domain.ReaderPort
func (s *Service) List(ctx context.Context, f domain.Filters, limit, offset int) ([]domain.CourseOffering, error) {
	if limit <= 0 || limit > s.cfg.HardLimit {
		limit = s.cfg.HardLimit
	}
	if offset < 0 {
		offset = 0
	}
	var out []domain.CourseOffering
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).ListOfferings(ctx, f, limit, offset)
		return err
	})
	return out, err
}

// Get implements domain.ReaderPort; the published snapshot answers first so
// hot lookups skip the store, historical versions fall through to it
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.CourseOffering, error) {
	if snap := s.current.Load(); snap != nil {
		if o, ok := snap.Get(id); ok {
			return o, nil
		}
	}
	var out domain.CourseOffering
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).GetOffering(ctx, id)
		return err
	})
	return out, err
}
