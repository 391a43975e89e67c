package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"courseboard/internal/core/conflict"
	"courseboard/internal/core/timetable"
	"courseboard/internal/modkit/repokit"
	perr "courseboard/internal/platform/errors"
	"courseboard/internal/platform/store"
	catalogdom "courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/coursetable/domain"
	"courseboard/internal/services/coursetable/repo"
)

const term = "114-1"

type fakeTx struct{}

func (fakeTx) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return nil, nil
}

func (fakeTx) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return nil, nil
}

func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) store.Row { return nil }

func (f fakeTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error { return fn(f) }

// memStore is a thread safe in-memory Storage honoring version checks
type memStore struct {
	mu     sync.Mutex
	tables map[uuid.UUID]*domain.CourseTable
}

func newMemStore() *memStore {
	return &memStore{tables: map[uuid.UUID]*domain.CourseTable{}}
}

func (m *memStore) Insert(ctx context.Context, t domain.CourseTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := t
	m.tables[t.ID] = &cp
	return nil
}

func (m *memStore) List(ctx context.Context, ownerID string) ([]domain.CourseTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CourseTable
	for _, t := range m.tables {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, tableID uuid.UUID) (domain.CourseTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok {
		return domain.CourseTable{}, perr.ErrNotFound
	}
	cp := *t
	cp.Selections = append([]domain.Selection(nil), t.Selections...)
	return cp, nil
}

func (m *memStore) Rename(ctx context.Context, tableID uuid.UUID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[tableID]; ok {
		t.Name = name
	}
	return nil
}

func (m *memStore) Delete(ctx context.Context, tableID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, tableID)
	return nil
}

func (m *memStore) BumpVersion(ctx context.Context, tableID uuid.UUID, fromVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok || t.Version != fromVersion {
		return perr.Conflictf("course table changed concurrently")
	}
	t.Version++
	return nil
}

func (m *memStore) InsertSelection(ctx context.Context, tableID uuid.UUID, sel domain.Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[tableID].Selections = append(m.tables[tableID].Selections, sel)
	return nil
}

func (m *memStore) DeleteSelection(ctx context.Context, tableID, offeringID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok {
		return false, nil
	}
	for i, sel := range t.Selections {
		if sel.OfferingID == offeringID {
			t.Selections = append(t.Selections[:i], t.Selections[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeCatalog struct{ snap *catalogdom.Snapshot }

func (f *fakeCatalog) List(ctx context.Context, _ catalogdom.Filters, _, _ int) ([]catalogdom.CourseOffering, error) {
	return nil, nil
}

func (f *fakeCatalog) Get(ctx context.Context, id uuid.UUID) (catalogdom.CourseOffering, error) {
	if f.snap != nil {
		if o, ok := f.snap.Get(id); ok {
			return o, nil
		}
	}
	return catalogdom.CourseOffering{}, perr.ErrNotFound
}

func (f *fakeCatalog) Current() *catalogdom.Snapshot { return f.snap }

func offering(code string, day timetable.Weekday, start, end int) catalogdom.CourseOffering {
	return catalogdom.CourseOffering{
		ID:      uuid.New(),
		Code:    code,
		Section: "A",
		Term:    term,
		Title:   "Course " + code,
		Credits: 3,
		Slots:   []timetable.Slot{{Day: day, Start: start, End: end}},
	}
}

func newSvc(st *memStore, offs ...catalogdom.CourseOffering) *Service {
	snap := catalogdom.NewSnapshot(catalogdom.SnapshotMeta{ID: uuid.New(), Term: term}, offs)
	binder := repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage { return st })
	return New(fakeTx{}, binder, &fakeCatalog{snap: snap}, Config{
		Rules: conflict.Rules{MaxCredits: 25},
	})
}

func seedTable(t *testing.T, svc *Service, owner string) domain.CourseTable {
	t.Helper()
	tbl, err := svc.Create(context.Background(), owner, domain.CreateInput{Name: "fall", Term: term})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return tbl
}

func TestAddOfferingOverlapRejectedTouchingAccepted(t *testing.T) {
	t.Parallel()

	mon35 := offering("CS101", 1, 3, 5)
	mon46 := offering("CS102", 1, 4, 6)
	mon57 := offering("CS103", 1, 5, 7)
	svc := newSvc(newMemStore(), mon35, mon46, mon57)
	tbl := seedTable(t, svc, "u1")

	ctx := context.Background()
	res, err := svc.AddOffering(ctx, "u1", tbl.ID, mon35.ID)
	if err != nil || !res.Report.Ok() {
		t.Fatalf("first add: err=%v report=%+v", err, res.Report)
	}

	// (Mon, 4-6) overlaps (Mon, 3-5)
	res, err = svc.AddOffering(ctx, "u1", tbl.ID, mon46.ID)
	if err != nil {
		t.Fatalf("overlapping add errored: %v", err)
	}
	if res.Report.Ok() {
		t.Fatal("overlapping add must be rejected")
	}
	if res.Report.Conflicts[0].Kind != conflict.TimeOverlap {
		t.Fatalf("kind = %s", res.Report.Conflicts[0].Kind)
	}
	if len(res.Table.Selections) != 1 {
		t.Fatal("rejected add must leave the table untouched")
	}

	// (Mon, 5-7) touches (Mon, 3-5) and is fine
	res, err = svc.AddOffering(ctx, "u1", tbl.ID, mon57.ID)
	if err != nil || !res.Report.Ok() {
		t.Fatalf("touching add: err=%v report=%+v", err, res.Report)
	}
	if len(res.Table.Selections) != 2 {
		t.Fatalf("selections = %d", len(res.Table.Selections))
	}
}

func TestConcurrentAddsExactlyOneWins(t *testing.T) {
	t.Parallel()

	a := offering("CS201", 2, 3, 5)
	b := offering("CS202", 2, 4, 6)
	svc := newSvc(newMemStore(), a, b)
	tbl := seedTable(t, svc, "u1")

	type outcome struct {
		res domain.AddResult
		err error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for _, o := range []catalogdom.CourseOffering{a, b} {
		wg.Add(1)
		go func(o catalogdom.CourseOffering) {
			defer wg.Done()
			res, err := svc.AddOffering(context.Background(), "u1", tbl.ID, o.ID)
			results <- outcome{res, err}
		}(o)
	}
	wg.Wait()
	close(results)

	var oks, rejects int
	for out := range results {
		if out.err != nil {
			t.Fatalf("add errored: %v", out.err)
		}
		if out.res.Report.Ok() {
			oks++
		} else {
			rejects++
		}
	}
	if oks != 1 || rejects != 1 {
		t.Fatalf("oks=%d rejects=%d, want exactly one of each", oks, rejects)
	}

	final, err := svc.Get(context.Background(), "u1", tbl.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(final.Selections) != 1 {
		t.Fatalf("selections = %d, want 1", len(final.Selections))
	}
}

func TestAddOfferingGuards(t *testing.T) {
	t.Parallel()

	ok := offering("CS301", 3, 1, 3)
	suspended := offering("CS302", 3, 4, 6)
	suspended.Suspended = true
	otherTerm := offering("CS303", 3, 6, 8)
	otherTerm.Term = "113-2"
	removed := offering("CS304", 4, 1, 3)
	removed.Removed = true

	svc := newSvc(newMemStore(), ok, suspended, otherTerm, removed)
	tbl := seedTable(t, svc, "u1")
	ctx := context.Background()

	if _, err := svc.AddOffering(ctx, "u1", tbl.ID, suspended.ID); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("suspended: %v", err)
	}
	if _, err := svc.AddOffering(ctx, "u1", tbl.ID, otherTerm.ID); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("term mismatch: %v", err)
	}
	if _, err := svc.AddOffering(ctx, "u1", tbl.ID, uuid.New()); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("unknown offering: %v", err)
	}
	if _, err := svc.AddOffering(ctx, "u2", tbl.ID, ok.ID); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("foreign table must read as not found: %v", err)
	}
}

func TestRemoveOfferingUnconditional(t *testing.T) {
	t.Parallel()

	a := offering("CS401", 5, 1, 3)
	svc := newSvc(newMemStore(), a)
	tbl := seedTable(t, svc, "u1")
	ctx := context.Background()

	if _, err := svc.AddOffering(ctx, "u1", tbl.ID, a.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := svc.RemoveOffering(ctx, "u1", tbl.ID, a.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(out.Selections) != 0 {
		t.Fatalf("selections = %d", len(out.Selections))
	}

	// removing an absent reference is a no-op, not an error
	if _, err := svc.RemoveOffering(ctx, "u1", tbl.ID, a.ID); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestValidatePreviewDoesNotPersist(t *testing.T) {
	t.Parallel()

	withPrereq := offering("CS501", 1, 1, 3)
	withPrereq.Prereqs = []string{"CS101"}
	svc := newSvc(newMemStore(), withPrereq)
	tbl := seedTable(t, svc, "u1")
	ctx := context.Background()

	rep, err := svc.Validate(ctx, "u1", domain.ValidateInput{
		TableID:    tbl.ID.String(),
		OfferingID: withPrereq.ID.String(),
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if rep.Ok() || rep.Conflicts[0].Kind != conflict.PrerequisiteUnmet {
		t.Fatalf("report = %+v", rep)
	}

	rep, err = svc.Validate(ctx, "u1", domain.ValidateInput{
		TableID:    tbl.ID.String(),
		OfferingID: withPrereq.ID.String(),
		Completed:  []string{"CS101"},
	})
	if err != nil || !rep.Ok() {
		t.Fatalf("completed prereq: err=%v report=%+v", err, rep)
	}

	got, _ := svc.Get(ctx, "u1", tbl.ID)
	if len(got.Selections) != 0 {
		t.Fatal("preview validation must not persist")
	}
}

// a table that was clean when built can drift into conflict after a crawl
// changes offerings underneath; Check must surface that without mutating
func TestCheckReportsDriftAfterCatalogSwap(t *testing.T) {
	t.Parallel()

	mon35 := offering("CS101", 1, 3, 5)
	mon57 := offering("CS102", 1, 5, 7)
	cat := &fakeCatalog{snap: catalogdom.NewSnapshot(
		catalogdom.SnapshotMeta{ID: uuid.New(), Term: term},
		[]catalogdom.CourseOffering{mon35, mon57},
	)}
	st := newMemStore()
	binder := repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage { return st })
	svc := New(fakeTx{}, binder, cat, Config{Rules: conflict.Rules{MaxCredits: 25}})
	tbl := seedTable(t, svc, "u1")
	ctx := context.Background()

	if res, err := svc.AddOffering(ctx, "u1", tbl.ID, mon35.ID); err != nil || !res.Report.Ok() {
		t.Fatalf("add CS101: err=%v report=%+v", err, res.Report)
	}
	if res, err := svc.AddOffering(ctx, "u1", tbl.ID, mon57.ID); err != nil || !res.Report.Ok() {
		t.Fatalf("add CS102: err=%v report=%+v", err, res.Report)
	}

	rep, err := svc.Check(ctx, "u1", tbl.ID)
	if err != nil || !rep.Ok() {
		t.Fatalf("clean table: err=%v report=%+v", err, rep)
	}

	// a later crawl shifts CS102 onto CS101's periods
	moved := mon57
	moved.Slots = []timetable.Slot{{Day: 1, Start: 4, End: 6}}
	cat.snap = catalogdom.NewSnapshot(
		catalogdom.SnapshotMeta{ID: uuid.New(), Term: term},
		[]catalogdom.CourseOffering{mon35, moved},
	)

	rep, err = svc.Check(ctx, "u1", tbl.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.Ok() || rep.Conflicts[0].Kind != conflict.TimeOverlap {
		t.Fatalf("report = %+v", rep)
	}

	// revalidation is read only
	got, _ := svc.Get(ctx, "u1", tbl.ID)
	if len(got.Selections) != 2 {
		t.Fatalf("selections = %d", len(got.Selections))
	}

	// other users' tables stay hidden
	if _, err := svc.Check(ctx, "u2", tbl.ID); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("foreign owner: %v", err)
	}
}

func TestCreateRejectsBadTerm(t *testing.T) {
	t.Parallel()

	svc := newSvc(newMemStore())
	if _, err := svc.Create(context.Background(), "u1", domain.CreateInput{Name: "x", Term: "fall-2025"}); err == nil {
		t.Fatal("expected term parse failure")
	}
}

func TestRenameAndDelete(t *testing.T) {
	t.Parallel()

	svc := newSvc(newMemStore())
	tbl := seedTable(t, svc, "u1")
	ctx := context.Background()

	out, err := svc.Rename(ctx, "u1", tbl.ID, domain.RenameInput{Name: "spring"})
	if err != nil || out.Name != "spring" {
		t.Fatalf("rename: err=%v name=%q", err, out.Name)
	}
	if err := svc.Delete(ctx, "u1", tbl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, "u1", tbl.ID); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
}
