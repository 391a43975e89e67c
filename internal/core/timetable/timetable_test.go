package timetable

import "testing"

func TestParseTerm(t *testing.T) {
	t.Parallel()

	good := []string{"114-1", "113-2", "99-1"}
	for _, s := range good {
		if _, err := ParseTerm(s); err != nil {
			t.Fatalf("ParseTerm(%q): %v", s, err)
		}
	}

	bad := []string{"", "114", "114-3", "114-0", "1141", "abc-1", "114-1x"}
	for _, s := range bad {
		if _, err := ParseTerm(s); err == nil {
			t.Fatalf("ParseTerm(%q): want error", s)
		}
	}
}

func TestSlotOverlapsHalfOpen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b Slot
		want bool
	}{
		{"contained", Slot{1, 3, 5}, Slot{1, 4, 6}, true},
		{"identical", Slot{2, 1, 3}, Slot{2, 1, 3}, true},
		{"touching end-start", Slot{1, 3, 5}, Slot{1, 5, 7}, false},
		{"touching start-end", Slot{1, 5, 7}, Slot{1, 3, 5}, false},
		{"different days", Slot{1, 3, 5}, Slot{2, 3, 5}, false},
		{"disjoint", Slot{1, 1, 2}, Slot{1, 8, 10}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("%v vs %v = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			// symmetry
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("overlap is not symmetric for %v vs %v", tc.a, tc.b)
			}
		})
	}
}

func TestSlotValidate(t *testing.T) {
	t.Parallel()

	if err := (Slot{Day: 1, Start: 1, End: 2}).Validate(); err != nil {
		t.Fatalf("valid slot rejected: %v", err)
	}
	if err := (Slot{Day: 0, Start: 1, End: 2}).Validate(); err == nil {
		t.Fatalf("weekday 0 accepted")
	}
	if err := (Slot{Day: 1, Start: 3, End: 3}).Validate(); err == nil {
		t.Fatalf("empty interval accepted")
	}
	if err := (Slot{Day: 1, Start: 1, End: MaxPeriod + 2}).Validate(); err == nil {
		t.Fatalf("end past last period accepted")
	}
}

func TestSelfOverlap(t *testing.T) {
	t.Parallel()

	ok := []Slot{{1, 1, 3}, {1, 3, 5}, {2, 1, 3}}
	if _, _, bad := SelfOverlap(ok); bad {
		t.Fatalf("touching slots flagged as self-overlap")
	}

	overlapping := []Slot{{1, 1, 4}, {1, 3, 5}}
	if _, _, bad := SelfOverlap(overlapping); !bad {
		t.Fatalf("self-overlap not detected")
	}
}

func TestNormalizeOrders(t *testing.T) {
	t.Parallel()

	in := []Slot{{3, 1, 2}, {1, 5, 7}, {1, 1, 3}}
	out := Normalize(in)
	want := []Slot{{1, 1, 3}, {1, 5, 7}, {3, 1, 2}}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("Normalize order: got %v, want %v", out, want)
		}
	}
	// input untouched
	if in[0] != (Slot{3, 1, 2}) {
		t.Fatalf("Normalize mutated its input")
	}
}
