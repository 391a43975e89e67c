package domain

import (
	"context"

	"courseboard/internal/adapters/crawlsource"
	"courseboard/internal/core/timetable"
)

// RunnerPort runs one full crawl pipeline pass. The scheduler owns cadence
// and exclusion; the runner owns fetch, normalize, diff, and commit
type RunnerPort interface {
	RunOnce(ctx context.Context, term timetable.Term) (RunReport, error)
}

// FetcherPort abstracts the raw source so the pipeline can be tested
// without a network
type FetcherPort interface {
	FetchAll(ctx context.Context) ([]crawlsource.RawRecord, error)
}
