// Package conflict implements the schedule conflict engine
//
// Validation is one pass: every applicable conflict kind is collected so the
// caller can show all violations at once. A non-empty report is an expected
// result value, never an error path
package conflict

import (
	"fmt"

	"courseboard/internal/core/timetable"
)

// Kind classifies one conflict
type Kind string

// Conflict kinds
const (
	TimeOverlap         Kind = "time_overlap"
	DuplicateCourse     Kind = "duplicate_course"
	CreditLimitExceeded Kind = "credit_limit_exceeded"
	PrerequisiteUnmet   Kind = "prerequisite_unmet"
)

// Course is the narrow offering view the engine validates against
type Course struct {
	ID      string
	Code    string
	Credits float64
	Slots   []timetable.Slot
	Prereqs []string
}

// Conflict is one detected violation
type Conflict struct {
	Kind Kind `json:"kind"`
	// With is the offering id (or course code for prereqs) that triggered it
	With string `json:"with,omitempty"`
	// Detail is a short human readable explanation
	Detail string `json:"detail,omitempty"`
}

// Report is the full validation result; zero conflicts means Ok
type Report struct {
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Ok reports whether validation passed
func (r Report) Ok() bool { return len(r.Conflicts) == 0 }

func (r *Report) add(c Conflict) { r.Conflicts = append(r.Conflicts, c) }

// Rules configures the engine
type Rules struct {
	// MaxCredits is the aggregate credit ceiling; <= 0 disables the check
	MaxCredits float64
	// AllowRetakes permits a second section of an already-present course code
	AllowRetakes bool
}

// Completed answers prerequisite lookups from the user's completed-course record
// implementations come from the surrounding system
type Completed interface {
	Has(code string) bool
}

// CompletedSet is a map-backed Completed, handy for tests and static wiring
type CompletedSet map[string]struct{}

// Has reports membership
func (s CompletedSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Engine evaluates candidate schedules against the rules
type Engine struct {
	rules Rules
}

// New constructs an Engine
func New(rules Rules) *Engine { return &Engine{rules: rules} }

// Validate checks next against the existing members in one pass
// completed may be nil when the caller has no prerequisite record; the
// prerequisite check is then skipped
func (e *Engine) Validate(existing []Course, next Course, completed Completed) Report {
	var rep Report

	// time overlap against every member
	for _, m := range existing {
		if a, b, hit := timetable.AnyOverlap(m.Slots, next.Slots); hit {
			rep.add(Conflict{
				Kind:   TimeOverlap,
				With:   m.ID,
				Detail: fmt.Sprintf("slot %s collides with %s", b, a),
			})
		}
	}

	// duplicate course code regardless of section
	if !e.rules.AllowRetakes {
		for _, m := range existing {
			if m.Code == next.Code {
				rep.add(Conflict{
					Kind:   DuplicateCourse,
					With:   m.ID,
					Detail: fmt.Sprintf("course %s already selected", next.Code),
				})
				break
			}
		}
	}

	// aggregate credit ceiling
	if e.rules.MaxCredits > 0 {
		total := next.Credits
		for _, m := range existing {
			total += m.Credits
		}
		if total > e.rules.MaxCredits {
			rep.add(Conflict{
				Kind:   CreditLimitExceeded,
				Detail: fmt.Sprintf("%.1f credits exceeds ceiling %.1f", total, e.rules.MaxCredits),
			})
		}
	}

	// prerequisites against the completed-course record
	if completed != nil {
		for _, pre := range next.Prereqs {
			if !completed.Has(pre) {
				rep.add(Conflict{
					Kind:   PrerequisiteUnmet,
					With:   pre,
					Detail: fmt.Sprintf("prerequisite %s not completed", pre),
				})
			}
		}
	}

	return rep
}

// ValidateTable revalidates a whole member set, for table-level audits
// pairwise checks report each colliding pair once; the aggregate checks run once
func (e *Engine) ValidateTable(members []Course, completed Completed) Report {
	var rep Report

	for i := range members {
		for j := i + 1; j < len(members); j++ {
			if a, b, hit := timetable.AnyOverlap(members[i].Slots, members[j].Slots); hit {
				rep.add(Conflict{
					Kind:   TimeOverlap,
					With:   members[i].ID,
					Detail: fmt.Sprintf("slot %s collides with %s", b, a),
				})
			}
			if !e.rules.AllowRetakes && members[i].Code == members[j].Code {
				rep.add(Conflict{
					Kind:   DuplicateCourse,
					With:   members[i].ID,
					Detail: fmt.Sprintf("course %s selected twice", members[j].Code),
				})
			}
		}
	}

	if e.rules.MaxCredits > 0 {
		var total float64
		for _, m := range members {
			total += m.Credits
		}
		if total > e.rules.MaxCredits {
			rep.add(Conflict{
				Kind:   CreditLimitExceeded,
				Detail: fmt.Sprintf("%.1f credits exceeds ceiling %.1f", total, e.rules.MaxCredits),
			})
		}
	}

	if completed != nil {
		for _, m := range members {
			for _, pre := range m.Prereqs {
				if !completed.Has(pre) {
					rep.add(Conflict{
						Kind:   PrerequisiteUnmet,
						With:   pre,
						Detail: fmt.Sprintf("prerequisite %s not completed", pre),
					})
				}
			}
		}
	}

	return rep
}
