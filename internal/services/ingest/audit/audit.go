// Package audit writes per-run diff trails to ClickHouse. The trail is an
// operational artifact, so a sink failure is logged and never fails a run
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"courseboard/internal/platform/logger"
	"courseboard/internal/platform/store"
	"courseboard/internal/services/ingest/domain"
)

const table = "ingest_audit"

// Sink buffers one run's diff records into the ingest_audit table
type Sink struct {
	ch  store.Clickhouse
	log logger.Logger
}

// New constructs a Sink; ch may be nil when ClickHouse is disabled
func New(ch store.Clickhouse) *Sink {
	return &Sink{ch: ch, log: *logger.Named("ingest.audit")}
}

// WriteDiff records every non-unchanged diff entry for the run. Best effort
func (s *Sink) WriteDiff(ctx context.Context, runID uuid.UUID, term string, recs []domain.DiffRecord) {
	if s == nil || s.ch == nil || len(recs) == 0 {
		return
	}
	now := time.Now().UTC()
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		if r.Kind == domain.Unchanged {
			continue
		}
		rows = append(rows, []any{
			runID.String(),
			term,
			r.Key.Code,
			r.Key.Section,
			string(r.Kind),
			r.BeforeChecksum,
			r.AfterChecksum,
			now,
		})
	}
	if len(rows) == 0 {
		return
	}
	if err := s.ch.Insert(ctx, table, rows); err != nil {
		s.log.Warn().Err(err).Int("rows", len(rows)).Msg("ingest audit write failed")
		return
	}
	s.log.Debug().Int("rows", len(rows)).Msg("ingest audit written")
}
