// Package timetable holds the pure schedule algebra: terms, weekdays, and
// half-open period slots
package timetable

import (
	"fmt"
	"regexp"
	"sort"

	perr "courseboard/internal/platform/errors"
)

// MaxPeriod is the last schedulable period of a day
// the crawl source numbers periods 1..14
const MaxPeriod = 14

// Term is an academic term like "114-1" (year dash semester)
type Term string

var termRe = regexp.MustCompile(`^\d{2,3}-[12]$`)

// ParseTerm validates and returns a Term
func ParseTerm(s string) (Term, error) {
	if !termRe.MatchString(s) {
		return "", perr.InvalidArgf("invalid term %q, want like 114-1", s)
	}
	return Term(s), nil
}

// String implements fmt.Stringer
func (t Term) String() string { return string(t) }

// Valid reports whether the term is well formed
func (t Term) Valid() bool { return termRe.MatchString(string(t)) }

// Weekday is 1..7, Monday through Sunday
type Weekday int

// Valid reports whether the weekday is in range
func (d Weekday) Valid() bool { return d >= 1 && d <= 7 }

// Slot is a half-open period interval [Start, End) on one weekday
// End == Start+1 means a single period; End is exclusive so touching
// slots (End == other.Start) never overlap
type Slot struct {
	Day   Weekday `json:"day"`
	Start int     `json:"start"`
	End   int     `json:"end"`
}

// Validate checks day and period bounds
func (s Slot) Validate() error {
	if !s.Day.Valid() {
		return perr.InvalidArgf("weekday %d out of range 1..7", s.Day)
	}
	if s.Start < 1 || s.End <= s.Start || s.End > MaxPeriod+1 {
		return perr.InvalidArgf("periods [%d,%d) out of range 1..%d", s.Start, s.End, MaxPeriod)
	}
	return nil
}

// Overlaps reports whether two slots collide
// same weekday and startA < endB && startB < endA
func (s Slot) Overlaps(o Slot) bool {
	return s.Day == o.Day && s.Start < o.End && o.Start < s.End
}

// String renders a slot like "3:5-7" (weekday:periods)
func (s Slot) String() string {
	return fmt.Sprintf("%d:%d-%d", s.Day, s.Start, s.End)
}

// Normalize sorts slots by (day, start) for a canonical order
func Normalize(slots []Slot) []Slot {
	out := append([]Slot(nil), slots...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// SelfOverlap returns the first pair of colliding slots within one offering,
// or ok=false when the set is internally consistent
func SelfOverlap(slots []Slot) (a, b Slot, ok bool) {
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if slots[i].Overlaps(slots[j]) {
				return slots[i], slots[j], true
			}
		}
	}
	return Slot{}, Slot{}, false
}

// AnyOverlap returns the first colliding pair between two slot sets
func AnyOverlap(xs, ys []Slot) (x, y Slot, ok bool) {
	for _, a := range xs {
		for _, b := range ys {
			if a.Overlaps(b) {
				return a, b, true
			}
		}
	}
	return Slot{}, Slot{}, false
}
