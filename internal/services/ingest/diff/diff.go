// Package diff classifies normalized offerings against the last committed
// snapshot. Hash-map based so a run is linear in the combined size of both
// sides
package diff

import (
	"sort"

	"courseboard/internal/core/timetable"
	perr "courseboard/internal/platform/errors"
	catalogdom "courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/ingest/domain"
)

// Diff compares incoming against prev and classifies every identity on
// either side. prev may be nil for the first run, in which case everything
// is Added.
//
// Two conditions are run-fatal invariants rather than diffable data: a
// duplicate identity inside the incoming batch, and an incoming offering
// whose term differs from the run's term. Both mean the normalizer is
// broken and must surface loudly instead of being silently reconciled
func Diff(prev *catalogdom.Snapshot, incoming []catalogdom.CourseOffering, runTerm timetable.Term) ([]domain.DiffRecord, error) {
	seen := make(map[catalogdom.OfferingKey]struct{}, len(incoming))
	out := make([]domain.DiffRecord, 0, len(incoming))

	for i := range incoming {
		o := &incoming[i]
		if o.Term != runTerm {
			return nil, perr.Invariantf(
				"offering %s/%s carries term %s in a %s run", o.Code, o.Section, o.Term, runTerm)
		}
		key := o.Key()
		if _, dup := seen[key]; dup {
			return nil, perr.Invariantf(
				"duplicate identity %s/%s/%s in incoming batch", key.Code, key.Section, key.Term)
		}
		seen[key] = struct{}{}

		rec := domain.DiffRecord{Key: key, AfterChecksum: o.Checksum, Incoming: o}
		if prev == nil {
			rec.Kind = domain.Added
			out = append(out, rec)
			continue
		}
		old, ok := prev.Resolve(key)
		switch {
		case !ok:
			rec.Kind = domain.Added
		case old.Checksum != o.Checksum:
			rec.Kind = domain.Changed
			rec.BeforeChecksum = old.Checksum
			rec.PrevID = old.ID
		default:
			rec.Kind = domain.Unchanged
			rec.BeforeChecksum = old.Checksum
			rec.PrevID = old.ID
		}
		out = append(out, rec)
	}

	if prev != nil {
		for _, old := range prev.Offerings() {
			if _, ok := seen[old.Key()]; ok {
				continue
			}
			out = append(out, domain.DiffRecord{
				Key:            old.Key(),
				Kind:           domain.Removed,
				BeforeChecksum: old.Checksum,
				PrevID:         old.ID,
			})
		}
	}

	// deterministic output regardless of snapshot iteration order
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		return a.Term < b.Term
	})
	return out, nil
}

// Count tallies a diff by kind
func Count(recs []domain.DiffRecord) (added, changed, removed, unchanged int) {
	for _, r := range recs {
		switch r.Kind {
		case domain.Added:
			added++
		case domain.Changed:
			changed++
		case domain.Removed:
			removed++
		case domain.Unchanged:
			unchanged++
		}
	}
	return
}
