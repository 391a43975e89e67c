package crawlsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient() *Client {
	c := NewClient(Options{Timeout: 2 * time.Second, MaxRetries: 2, RetryBase: time.Millisecond})
	c.sleep = func(time.Duration) {}
	return c
}

func servePages(t *testing.T, pagesByDept map[string][][]map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/timetable/", func(w http.ResponseWriter, r *http.Request) {
		dept := r.URL.Path[len("/api/timetable/"):]
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pages := pagesByDept[dept]
		if page < 1 || page > len(pages) {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(pageDoc{Rows: pages[page-1], HasMore: page < len(pages)})
	})
	return httptest.NewServer(mux)
}

func TestFetchAllPaginates(t *testing.T) {
	t.Parallel()

	srv := servePages(t, map[string][][]map[string]string{
		"cs": {
			{{"code": "CS101"}, {"code": "CS102"}},
			{{"code": "CS103"}},
		},
		"ma": {
			{{"code": "MA101"}},
		},
	})
	defer srv.Close()

	p := DefaultProfile()
	p.BaseURL = srv.URL
	p.Departments = []string{"cs", "ma"}

	recs, err := NewFetcher(newTestClient(), p, 2).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("records = %d, want 4", len(recs))
	}
	// deterministic department then page order
	if recs[0].Department != "cs" || recs[0].Fields["code"] != "CS101" {
		t.Fatalf("first record = %+v", recs[0])
	}
	if recs[2].Page != 2 || recs[2].Fields["code"] != "CS103" {
		t.Fatalf("third record = %+v", recs[2])
	}
	if recs[3].Department != "ma" {
		t.Fatalf("last record = %+v", recs[3])
	}
}

func TestFetchAllFailsWholeRunOnDepartmentError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/timetable/ok", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pageDoc{Rows: []map[string]string{{"code": "CS101"}}})
	})
	mux.HandleFunc("/api/timetable/bad", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := DefaultProfile()
	p.BaseURL = srv.URL
	p.Departments = []string{"ok", "bad"}

	if _, err := NewFetcher(newTestClient(), p, 2).FetchAll(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestClientRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"rows":[{"code":"CS101"}],"has_more":false}`)
	}))
	defer srv.Close()

	var doc pageDoc
	if err := newTestClient().getJSON(context.Background(), srv.URL, &doc); err != nil {
		t.Fatalf("getJSON: %v", err)
	}
	if len(doc.Rows) != 1 || hits.Load() != 3 {
		t.Fatalf("rows = %d hits = %d", len(doc.Rows), hits.Load())
	}
}

func TestClientGivesUpAfterBudget(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var doc pageDoc
	if err := newTestClient().getJSON(context.Background(), srv.URL, &doc); err == nil {
		t.Fatal("expected exhausted retry budget error")
	}
}
