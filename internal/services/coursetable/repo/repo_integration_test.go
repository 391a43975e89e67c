//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	perr "courseboard/internal/platform/errors"
	"courseboard/internal/platform/store"
	"courseboard/internal/services/coursetable/domain"
)

// startPostgres launches a disposable Postgres and returns DSN + stop func
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

// openStore connects, applies the checked-in schema, and seeds one offering
// so selection FKs resolve
func openStore(ctx context.Context, t *testing.T, dsn string) (*store.Store, uuid.UUID) {
	t.Helper()

	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2},
	}, store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	ddl, err := os.ReadFile("../../../../migrations/postgres/0001_init.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	// pgx extended protocol takes one statement per Exec
	for _, stmt := range strings.Split(string(ddl), ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		if _, err := st.PG.Exec(ctx, stmt); err != nil {
			t.Fatalf("apply schema: %v\n%s", err, stmt)
		}
	}

	offeringID := uuid.New()
	if _, err := st.PG.Exec(ctx, `
		INSERT INTO offerings
			(id, code, section, term, title, teachers, slots, capacity, credits,
			course_type, campus, classroom, prereqs, suspended, checksum,
			superseded, removed, created_at)
		VALUES ($1, 'CS101', 'A', '113-1', 'Intro', '{}', '[]', 50, 3,
			'', '', '', '{}', FALSE, 'cafe', FALSE, FALSE, now())`,
		offeringID); err != nil {
		t.Fatalf("seed offering: %v", err)
	}
	return st, offeringID
}

// the live-identity index must reject a second live row for one identity
// but tolerate removed rows of that identity staying behind
func TestSchema_Integration_LiveIdentityIndex(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, _ := openStore(ctx, t, dsn)

	insert := func(id uuid.UUID, superseded, removed bool) error {
		_, err := st.PG.Exec(ctx, `
			INSERT INTO offerings
				(id, code, section, term, title, teachers, slots, capacity, credits,
				course_type, campus, classroom, prereqs, suspended, checksum,
				superseded, removed, created_at)
			VALUES ($1, 'EE200', 'B', '113-1', 'Circuits', '{}', '[]', 40, 3,
				'', '', '', '{}', FALSE, 'beef', $2, $3, now())`,
			id, superseded, removed)
		return err
	}

	removedID := uuid.New()
	if err := insert(removedID, false, false); err != nil {
		t.Fatalf("first live row: %v", err)
	}
	if _, err := st.PG.Exec(ctx,
		`UPDATE offerings SET removed = TRUE WHERE id = $1`, removedID); err != nil {
		t.Fatalf("mark removed: %v", err)
	}

	// identity reappears as a fresh live row next to the removed one
	liveID := uuid.New()
	if err := insert(liveID, false, false); err != nil {
		t.Fatalf("live row after removal: %v", err)
	}

	// a second live row for the same identity must be rejected
	if err := insert(uuid.New(), false, false); err == nil {
		t.Fatal("expected unique violation for second live row")
	}

	// superseded history rows are also fine
	if err := insert(uuid.New(), true, false); err != nil {
		t.Fatalf("superseded row: %v", err)
	}
}

func TestStorage_Integration_TableLifecycle(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, offeringID := openStore(ctx, t, dsn)
	repo := NewPG().Bind(st.PG)

	now := time.Now().UTC().Truncate(time.Microsecond)
	table := domain.CourseTable{
		ID:        uuid.New(),
		OwnerID:   "u1",
		Name:      "fall plan",
		Term:      "113-1",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Insert(ctx, table); err != nil {
		t.Fatalf("insert table: %v", err)
	}

	got, err := repo.Get(ctx, table.ID)
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if got.Name != "fall plan" || got.Version != 1 || string(got.Term) != "113-1" {
		t.Fatalf("unexpected table: %+v", got)
	}

	if err := repo.Rename(ctx, table.ID, "spring plan"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	// optimistic bump: current version wins, stale version conflicts
	if err := repo.BumpVersion(ctx, table.ID, 1); err != nil {
		t.Fatalf("bump from current version: %v", err)
	}
	err = repo.BumpVersion(ctx, table.ID, 1)
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("stale bump: want conflict, got %v", err)
	}

	sel := domain.Selection{
		OfferingID: offeringID,
		Code:       "CS101",
		Section:    "A",
		AddedAt:    now,
	}
	if err := repo.InsertSelection(ctx, table.ID, sel); err != nil {
		t.Fatalf("insert selection: %v", err)
	}

	got, err = repo.Get(ctx, table.ID)
	if err != nil {
		t.Fatalf("get after selection: %v", err)
	}
	if len(got.Selections) != 1 || got.Selections[0].Code != "CS101" {
		t.Fatalf("unexpected selections: %+v", got.Selections)
	}

	existed, err := repo.DeleteSelection(ctx, table.ID, offeringID)
	if err != nil || !existed {
		t.Fatalf("delete selection: existed=%v err=%v", existed, err)
	}
	existed, err = repo.DeleteSelection(ctx, table.ID, offeringID)
	if err != nil || existed {
		t.Fatalf("repeat delete selection: existed=%v err=%v", existed, err)
	}

	lists, err := repo.List(ctx, "u1")
	if err != nil || len(lists) != 1 {
		t.Fatalf("list: n=%d err=%v", len(lists), err)
	}

	if err := repo.Delete(ctx, table.ID); err != nil {
		t.Fatalf("delete table: %v", err)
	}
	if _, err := repo.Get(ctx, table.ID); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("get after delete: want not found, got %v", err)
	}
}
