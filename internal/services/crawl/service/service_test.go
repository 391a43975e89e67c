package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"courseboard/internal/core/timetable"
	perr "courseboard/internal/platform/errors"
	ingestdom "courseboard/internal/services/ingest/domain"
)

type blockingRunner struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	err     error
}

func (r *blockingRunner) RunOnce(ctx context.Context, term timetable.Term) (ingestdom.RunReport, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return ingestdom.RunReport{State: ingestdom.RunFailed}, ctx.Err()
		}
	}
	if r.err != nil {
		return ingestdom.RunReport{State: ingestdom.RunFailed}, r.err
	}
	return ingestdom.RunReport{State: ingestdom.RunSucceeded}, nil
}

func (r *blockingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestTryRunOnceSkipsWhileBusy(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{release: make(chan struct{})}
	s := New(runner, Config{Term: "114-1"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ran, err := s.TryRunOnce(context.Background()); !ran || err != nil {
			t.Errorf("first run: ran=%v err=%v", ran, err)
		}
	}()

	// wait for the first run to take the slot
	for runner.count() == 0 {
		time.Sleep(time.Millisecond)
	}

	if _, ran, err := s.TryRunOnce(context.Background()); ran || err != nil {
		t.Fatalf("overlapping start: ran=%v err=%v, want logged skip", ran, err)
	}

	close(runner.release)
	<-done

	// slot free again
	runner.release = nil
	if _, ran, _ := s.TryRunOnce(context.Background()); !ran {
		t.Fatal("run after release should start")
	}
}

func TestTryRunOnceSurfacesRunError(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{err: perr.Unavailablef("source down")}
	s := New(runner, Config{Term: "114-1"})

	_, ran, err := s.TryRunOnce(context.Background())
	if !ran || err == nil {
		t.Fatalf("ran=%v err=%v, want ran with error", ran, err)
	}
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	base := time.Minute
	max := 10 * time.Minute
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, time.Minute},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{5, 10 * time.Minute},
		{50, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := backoffDelay(base, max, tc.failures); got != tc.want {
			t.Fatalf("backoffDelay(%d) = %s, want %s", tc.failures, got, tc.want)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{}
	s := New(runner, Config{Term: "114-1", Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	// let the immediate first run fire
	for runner.count() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
