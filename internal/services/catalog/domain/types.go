// Package domain defines the catalog's offering and snapshot shapes
package domain

import (
	"time"

	"github.com/google/uuid"

	"courseboard/internal/core/timetable"
)

// OfferingKey is the natural identity of an offering. Term is part of the
// identity by definition; the same code and section in a new term is a new
// offering
type OfferingKey struct {
	Code    string
	Section string
	Term    timetable.Term
}

// CourseOffering is one schedulable section of a course in a term.
// Rows are versioned: a content change inserts a new row and marks the old
// one superseded, a disappearance sets the removed flag. Nothing is ever
// overwritten in place
type CourseOffering struct {
	ID      uuid.UUID      `json:"id" db:"id"`
	Code    string         `json:"code" db:"code"`
	Section string         `json:"section" db:"section"`
	Term    timetable.Term `json:"term" db:"term"`

	Title      string           `json:"title" db:"title"`
	Teachers   []string         `json:"teachers" db:"teachers"`
	Slots      []timetable.Slot `json:"slots" db:"slots"`
	Capacity   int              `json:"capacity" db:"capacity"`
	Credits    float64          `json:"credits" db:"credits"`
	CourseType string           `json:"course_type" db:"course_type"`
	Campus     string           `json:"campus,omitempty" db:"campus"`
	Classroom  string           `json:"classroom,omitempty" db:"classroom"`
	Prereqs    []string         `json:"prereqs,omitempty" db:"prereqs"`
	Suspended  bool             `json:"suspended" db:"suspended"`

	// Checksum covers every normalized field above except the identity triple
	Checksum   string    `json:"-" db:"checksum"`
	Superseded bool      `json:"superseded,omitempty" db:"superseded"`
	Removed    bool      `json:"removed,omitempty" db:"removed"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Key returns the offering's natural identity
func (o CourseOffering) Key() OfferingKey {
	return OfferingKey{Code: o.Code, Section: o.Section, Term: o.Term}
}

// SnapshotMeta is the persisted snapshot header
type SnapshotMeta struct {
	ID      uuid.UUID      `json:"id" db:"id"`
	RunID   uuid.UUID      `json:"run_id" db:"run_id"`
	Term    timetable.Term `json:"term" db:"term"`
	TakenAt time.Time      `json:"taken_at" db:"taken_at"`
	Size    int            `json:"size" db:"size"`
}

// Snapshot is an immutable indexed view of the catalog as of one crawl run.
// Readers share one instance through an atomic pointer; a commit builds a
// fresh Snapshot and swaps the pointer, never mutates a published one
type Snapshot struct {
	meta  SnapshotMeta
	byID  map[uuid.UUID]*CourseOffering
	byKey map[OfferingKey]*CourseOffering
	all   []CourseOffering
}

// NewSnapshot builds an indexed Snapshot over offerings
func NewSnapshot(meta SnapshotMeta, offerings []CourseOffering) *Snapshot {
	meta.Size = len(offerings)
	s := &Snapshot{
		meta:  meta,
		byID:  make(map[uuid.UUID]*CourseOffering, len(offerings)),
		byKey: make(map[OfferingKey]*CourseOffering, len(offerings)),
		all:   make([]CourseOffering, len(offerings)),
	}
	copy(s.all, offerings)
	for i := range s.all {
		o := &s.all[i]
		s.byID[o.ID] = o
		s.byKey[o.Key()] = o
	}
	return s
}

// Meta returns the snapshot header
func (s *Snapshot) Meta() SnapshotMeta { return s.meta }

// Len returns the member count
func (s *Snapshot) Len() int { return len(s.all) }

// Get resolves an offering version id; ok is false for ids outside this snapshot
func (s *Snapshot) Get(id uuid.UUID) (CourseOffering, bool) {
	o, ok := s.byID[id]
	if !ok {
		return CourseOffering{}, false
	}
	return *o, true
}

// Resolve looks up an offering by natural identity
func (s *Snapshot) Resolve(key OfferingKey) (CourseOffering, bool) {
	o, ok := s.byKey[key]
	if !ok {
		return CourseOffering{}, false
	}
	return *o, true
}

// Offerings returns a copy of the member list
func (s *Snapshot) Offerings() []CourseOffering {
	out := make([]CourseOffering, len(s.all))
	copy(out, s.all)
	return out
}

// Filters narrows offering listings
type Filters struct {
	Term    string `json:"term,omitempty"`
	Code    string `json:"code,omitempty"`
	Teacher string `json:"teacher,omitempty"`
	// IncludeRemoved keeps soft deleted offerings in the listing
	IncludeRemoved bool `json:"include_removed,omitempty"`
}
