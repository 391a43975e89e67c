package diff

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	perr "courseboard/internal/platform/errors"
	catalogdom "courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/ingest/domain"
)

const term = "114-1"

func offering(code, section, sum string) catalogdom.CourseOffering {
	return catalogdom.CourseOffering{
		ID:       uuid.New(),
		Code:     code,
		Section:  section,
		Term:     term,
		Checksum: sum,
	}
}

func snap(offs ...catalogdom.CourseOffering) *catalogdom.Snapshot {
	return catalogdom.NewSnapshot(catalogdom.SnapshotMeta{ID: uuid.New(), Term: term}, offs)
}

func TestDiffClassifies(t *testing.T) {
	t.Parallel()

	kept := offering("CS101", "A", "same")
	changed := offering("CS102", "A", "before")
	gone := offering("CS103", "A", "x")
	prev := snap(kept, changed, gone)

	incoming := []catalogdom.CourseOffering{
		{Code: "CS101", Section: "A", Term: term, Checksum: "same"},
		{Code: "CS102", Section: "A", Term: term, Checksum: "after"},
		{Code: "CS104", Section: "A", Term: term, Checksum: "new"},
	}

	recs, err := Diff(prev, incoming, term)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	byCode := map[string]domain.DiffRecord{}
	for _, r := range recs {
		byCode[r.Key.Code] = r
	}
	if byCode["CS101"].Kind != domain.Unchanged {
		t.Fatalf("CS101 = %s", byCode["CS101"].Kind)
	}
	if r := byCode["CS102"]; r.Kind != domain.Changed || r.PrevID != changed.ID || r.BeforeChecksum != "before" || r.AfterChecksum != "after" {
		t.Fatalf("CS102 = %+v", r)
	}
	if r := byCode["CS103"]; r.Kind != domain.Removed || r.PrevID != gone.ID {
		t.Fatalf("CS103 = %+v", r)
	}
	if byCode["CS104"].Kind != domain.Added {
		t.Fatalf("CS104 = %s", byCode["CS104"].Kind)
	}

	added, ch, rm, un := Count(recs)
	if added != 1 || ch != 1 || rm != 1 || un != 1 {
		t.Fatalf("counts = %d/%d/%d/%d", added, ch, rm, un)
	}
}

func TestDiffFirstRunAllAdded(t *testing.T) {
	t.Parallel()

	incoming := []catalogdom.CourseOffering{
		{Code: "CS101", Section: "A", Term: term, Checksum: "a"},
		{Code: "CS102", Section: "A", Term: term, Checksum: "b"},
	}
	recs, err := Diff(nil, incoming, term)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	for _, r := range recs {
		if r.Kind != domain.Added {
			t.Fatalf("%s = %s, want added", r.Key.Code, r.Kind)
		}
	}
}

func TestDiffIdempotent(t *testing.T) {
	t.Parallel()

	prev := snap(offering("CS101", "A", "same"), offering("CS102", "A", "x"))
	incoming := []catalogdom.CourseOffering{
		{Code: "CS101", Section: "A", Term: term, Checksum: "same"},
		{Code: "CS103", Section: "A", Term: term, Checksum: "n"},
	}

	first, err := Diff(prev, incoming, term)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	second, err := Diff(prev, incoming, term)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("diff is not idempotent for identical inputs")
	}
}

func TestDiffUnchangedDataset(t *testing.T) {
	t.Parallel()

	a := offering("CS101", "A", "a")
	b := offering("CS102", "A", "b")
	prev := snap(a, b)
	incoming := []catalogdom.CourseOffering{
		{Code: "CS101", Section: "A", Term: term, Checksum: "a"},
		{Code: "CS102", Section: "A", Term: term, Checksum: "b"},
	}

	recs, err := Diff(prev, incoming, term)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	for _, r := range recs {
		if r.Kind != domain.Unchanged {
			t.Fatalf("%s = %s, want unchanged", r.Key.Code, r.Kind)
		}
	}
}

func TestDiffInvariants(t *testing.T) {
	t.Parallel()

	dup := []catalogdom.CourseOffering{
		{Code: "CS101", Section: "A", Term: term, Checksum: "a"},
		{Code: "CS101", Section: "A", Term: term, Checksum: "b"},
	}
	if _, err := Diff(nil, dup, term); !perr.IsCode(err, perr.ErrorCodeInvariant) {
		t.Fatalf("duplicate identity: got %v, want invariant error", err)
	}

	wrongTerm := []catalogdom.CourseOffering{
		{Code: "CS101", Section: "A", Term: "113-2", Checksum: "a"},
	}
	if _, err := Diff(nil, wrongTerm, term); !perr.IsCode(err, perr.ErrorCodeInvariant) {
		t.Fatalf("term mismatch: got %v, want invariant error", err)
	}
}
