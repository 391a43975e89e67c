package crawlsource

import (
	"context"
	"sort"
	"sync"

	"courseboard/internal/platform/logger"
)

// maxPages caps per-department pagination so a looping source cannot wedge a run
const maxPages = 200

// Fetcher pulls every raw record for a term from the configured source
type Fetcher struct {
	client  *Client
	profile Profile
	// Parallel bounds concurrent department fetches
	parallel int
	log      logger.Logger
}

// NewFetcher builds a Fetcher over client with the given profile
func NewFetcher(client *Client, profile Profile, parallel int) *Fetcher {
	if parallel <= 0 {
		parallel = 4
	}
	return &Fetcher{
		client:   client,
		profile:  profile,
		parallel: parallel,
		log:      *logger.Named("crawlsource"),
	}
}

// Profile exposes the loaded source profile for the normalizer
func (f *Fetcher) Profile() Profile { return f.profile }

// FetchAll walks every department page by page and returns all raw records.
// Departments fetch in parallel; pages within one department are sequential
// because pagination is a cursor. Any department failing fails the whole
// fetch since a partial catalog would diff as mass removals
func (f *Fetcher) FetchAll(ctx context.Context) ([]RawRecord, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		sem      = make(chan struct{}, f.parallel)
		records  []RawRecord
		firstErr error
	)

	for _, dept := range f.profile.Departments {
		wg.Add(1)
		go func(dept string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			recs, err := f.fetchDepartment(ctx, dept)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			records = append(records, recs...)
		}(dept)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	// deterministic order regardless of goroutine interleaving
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Department != records[j].Department {
			return records[i].Department < records[j].Department
		}
		return records[i].Page < records[j].Page
	})

	f.log.Info().Int("records", len(records)).Int("departments", len(f.profile.Departments)).Msg("crawlsource fetch complete")
	return records, nil
}

func (f *Fetcher) fetchDepartment(ctx context.Context, dept string) ([]RawRecord, error) {
	var out []RawRecord
	for page := 1; page <= maxPages; page++ {
		var doc pageDoc
		if err := f.client.getJSON(ctx, pageURL(f.profile, dept, page), &doc); err != nil {
			return nil, err
		}
		for _, row := range doc.Rows {
			out = append(out, RawRecord{Fields: row, Department: dept, Page: page})
		}
		if !doc.HasMore {
			break
		}
	}
	return out, nil
}
