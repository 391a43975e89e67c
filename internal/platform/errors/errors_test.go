package errors

import (
	stderrs "errors"
	"net/http"
	"testing"
)

func TestWrapPreservesCodeAndCause(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("boom")
	err := Wrap(cause, ErrorCodeDB, "insert offering")

	if got := CodeOf(err); got != ErrorCodeDB {
		t.Fatalf("CodeOf = %v, want %v", got, ErrorCodeDB)
	}
	if !stderrs.Is(err, cause) {
		t.Fatalf("wrapped error should match cause via errors.Is")
	}
	if Root(err) != cause {
		t.Fatalf("Root should return the deepest cause")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFoundf("no such table"), http.StatusNotFound},
		{"invalid arg", InvalidArgf("bad term %q", "x"), http.StatusUnprocessableEntity},
		{"conflict", Conflictf("version moved"), http.StatusConflict},
		{"duplicate", DuplicateKeyf("already selected"), http.StatusConflict},
		{"validation", Newf(ErrorCodeValidation, "missing name"), http.StatusBadRequest},
		{"invariant", Invariantf("duplicate identity in batch"), http.StatusInternalServerError},
		{"foreign", stderrs.New("opaque"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestWithFieldCopyOnWrite(t *testing.T) {
	t.Parallel()

	base := Newf(ErrorCodeValidation, "credits out of range")
	withField := WithField(base, "credits")

	be, _ := As(base)
	fe, _ := As(withField)
	if be.Field() != "" {
		t.Fatalf("original error mutated: field = %q", be.Field())
	}
	if fe.Field() != "credits" {
		t.Fatalf("field = %q, want credits", fe.Field())
	}
}

func TestWireFrom(t *testing.T) {
	t.Parallel()

	w := WireFrom(WithField(Newf(ErrorCodeValidation, "bad weekday"), "weekday"))
	if w.Code != ErrorCodeValidation || w.Field != "weekday" {
		t.Fatalf("unexpected wire: %+v", w)
	}

	if w := WireFrom(nil); w.Code != ErrorCodeUnknown || w.Message != "" {
		t.Fatalf("nil error should map to zero wire, got %+v", w)
	}
}

func TestRetryableIgnoresContextErrors(t *testing.T) {
	t.Parallel()

	if IsRetryable(Wrap(stderrs.New("deadlock detected"), ErrorCodeDB, "commit")) != true {
		t.Fatalf("deadlock text should be retryable")
	}
	if IsRetryable(stderrs.New("some other failure")) {
		t.Fatalf("arbitrary errors are not retryable")
	}
}
