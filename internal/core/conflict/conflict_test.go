package conflict

import (
	"testing"

	"courseboard/internal/core/timetable"
)

func slot(day timetable.Weekday, start, end int) timetable.Slot {
	return timetable.Slot{Day: day, Start: start, End: end}
}

func kinds(r Report) map[Kind]int {
	out := map[Kind]int{}
	for _, c := range r.Conflicts {
		out[c.Kind]++
	}
	return out
}

func TestValidateTimeOverlap(t *testing.T) {
	t.Parallel()

	eng := New(Rules{MaxCredits: 25})
	existing := []Course{
		{ID: "a", Code: "CS101", Credits: 3, Slots: []timetable.Slot{slot(1, 3, 5)}},
	}

	// Mon 4-6 overlaps Mon 3-5
	rep := eng.Validate(existing, Course{ID: "b", Code: "CS201", Credits: 3, Slots: []timetable.Slot{slot(1, 4, 6)}}, nil)
	if rep.Ok() {
		t.Fatal("expected time overlap conflict")
	}
	if got := kinds(rep)[TimeOverlap]; got != 1 {
		t.Fatalf("TimeOverlap = %d, want 1", got)
	}
	if rep.Conflicts[0].With != "a" {
		t.Fatalf("With = %q, want a", rep.Conflicts[0].With)
	}

	// Mon 5-7 only touches Mon 3-5, which is fine
	rep = eng.Validate(existing, Course{ID: "c", Code: "CS201", Credits: 3, Slots: []timetable.Slot{slot(1, 5, 7)}}, nil)
	if !rep.Ok() {
		t.Fatalf("touching slots should not conflict: %+v", rep.Conflicts)
	}
}

func TestValidateDuplicateCourse(t *testing.T) {
	t.Parallel()

	existing := []Course{
		{ID: "a", Code: "CS101", Credits: 3, Slots: []timetable.Slot{slot(1, 1, 3)}},
	}
	next := Course{ID: "b", Code: "CS101", Credits: 3, Slots: []timetable.Slot{slot(2, 1, 3)}}

	rep := New(Rules{MaxCredits: 25}).Validate(existing, next, nil)
	if got := kinds(rep)[DuplicateCourse]; got != 1 {
		t.Fatalf("DuplicateCourse = %d, want 1", got)
	}

	rep = New(Rules{MaxCredits: 25, AllowRetakes: true}).Validate(existing, next, nil)
	if !rep.Ok() {
		t.Fatalf("retake should pass when allowed: %+v", rep.Conflicts)
	}
}

func TestValidateCreditCeiling(t *testing.T) {
	t.Parallel()

	eng := New(Rules{MaxCredits: 9})
	existing := []Course{
		{ID: "a", Code: "CS101", Credits: 4},
		{ID: "b", Code: "CS102", Credits: 4},
	}

	rep := eng.Validate(existing, Course{ID: "c", Code: "CS103", Credits: 2}, nil)
	if got := kinds(rep)[CreditLimitExceeded]; got != 1 {
		t.Fatalf("CreditLimitExceeded = %d, want 1", got)
	}

	// exactly at the ceiling passes
	rep = eng.Validate(existing, Course{ID: "d", Code: "CS104", Credits: 1}, nil)
	if !rep.Ok() {
		t.Fatalf("at-ceiling load should pass: %+v", rep.Conflicts)
	}

	// ceiling disabled
	rep = New(Rules{}).Validate(existing, Course{ID: "e", Code: "CS105", Credits: 40}, nil)
	if !rep.Ok() {
		t.Fatalf("disabled ceiling should pass: %+v", rep.Conflicts)
	}
}

func TestValidatePrerequisites(t *testing.T) {
	t.Parallel()

	eng := New(Rules{MaxCredits: 25})
	next := Course{ID: "a", Code: "CS301", Credits: 3, Prereqs: []string{"CS101", "CS201"}}

	rep := eng.Validate(nil, next, CompletedSet{"CS101": {}})
	if got := kinds(rep)[PrerequisiteUnmet]; got != 1 {
		t.Fatalf("PrerequisiteUnmet = %d, want 1", got)
	}
	if rep.Conflicts[0].With != "CS201" {
		t.Fatalf("With = %q, want CS201", rep.Conflicts[0].With)
	}

	// nil record skips the check entirely
	if rep := eng.Validate(nil, next, nil); !rep.Ok() {
		t.Fatalf("nil completed record should skip prereqs: %+v", rep.Conflicts)
	}
}

func TestValidateCollectsAllKinds(t *testing.T) {
	t.Parallel()

	eng := New(Rules{MaxCredits: 5})
	existing := []Course{
		{ID: "a", Code: "CS101", Credits: 3, Slots: []timetable.Slot{slot(3, 2, 4)}},
	}
	next := Course{
		ID:      "b",
		Code:    "CS101",
		Credits: 3,
		Slots:   []timetable.Slot{slot(3, 3, 5)},
		Prereqs: []string{"MA101"},
	}

	rep := eng.Validate(existing, next, CompletedSet{})
	ks := kinds(rep)
	for _, k := range []Kind{TimeOverlap, DuplicateCourse, CreditLimitExceeded, PrerequisiteUnmet} {
		if ks[k] != 1 {
			t.Fatalf("kind %s = %d, want 1 (report %+v)", k, ks[k], rep.Conflicts)
		}
	}
}

func TestValidateTable(t *testing.T) {
	t.Parallel()

	eng := New(Rules{MaxCredits: 25})
	members := []Course{
		{ID: "a", Code: "CS101", Credits: 3, Slots: []timetable.Slot{slot(1, 3, 5)}},
		{ID: "b", Code: "CS102", Credits: 3, Slots: []timetable.Slot{slot(1, 4, 6)}},
		{ID: "c", Code: "CS103", Credits: 3, Slots: []timetable.Slot{slot(2, 1, 3)}},
	}

	rep := eng.ValidateTable(members, nil)
	if got := kinds(rep)[TimeOverlap]; got != 1 {
		t.Fatalf("TimeOverlap = %d, want 1 (pair reported once)", got)
	}

	if rep := eng.ValidateTable(members[2:], nil); !rep.Ok() {
		t.Fatalf("clean table should pass: %+v", rep.Conflicts)
	}
}
