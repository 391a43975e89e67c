package strings

import (
	"testing"

	"courseboard/internal/platform/testkit"
)

func TestMustString(t *testing.T) {
	t.Parallel()

	if got := MustString("catalog", "name"); got != "catalog" {
		t.Fatalf("got %q", got)
	}
	testkit.MustPanic(t, func() { MustString("   ", "name") })
}

func TestMustPrefix(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"catalog":   "/catalog",
		"/tables":   "/tables",
		" /tables/": "/tables",
	}
	for in, want := range cases {
		if got := MustPrefix(in); got != want {
			t.Fatalf("MustPrefix(%q) = %q, want %q", in, got, want)
		}
	}
	testkit.MustPanic(t, func() { MustPrefix("  ") })
	testkit.MustNotPanic(t, func() { MustPrefix("tables") })
}

func TestSQLNull(t *testing.T) {
	t.Parallel()

	if v := SQLNull("  "); v != nil {
		t.Fatalf("blank: got %v", v)
	}
	if v := SQLNull("CS101"); v != "CS101" {
		t.Fatalf("got %v", v)
	}
}
