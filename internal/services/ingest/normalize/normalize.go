// Package normalize parses raw source records into canonical offerings.
// Every assumption about the source's field names and cell formats lives
// here and in the crawlsource profile; downstream code sees only
// CourseOffering values
package normalize

import (
	"sort"
	"strconv"
	"strings"

	"courseboard/internal/adapters/crawlsource"
	"courseboard/internal/core/checksum"
	"courseboard/internal/core/textnorm"
	"courseboard/internal/core/timetable"
	catalogdom "courseboard/internal/services/catalog/domain"
	"courseboard/internal/services/ingest/domain"
)

// Source column names
const (
	fieldCode      = "code"
	fieldSection   = "section"
	fieldTerm      = "term"
	fieldTitle     = "title"
	fieldTeachers  = "teachers"
	fieldSchedule  = "schedule"
	fieldCapacity  = "capacity"
	fieldCredits   = "credits"
	fieldType      = "type"
	fieldCampus    = "campus"
	fieldClassroom = "classroom"
	fieldPrereqs   = "prereqs"
)

// Normalizer turns RawRecords into CourseOfferings under one source profile
type Normalizer struct {
	profile crawlsource.Profile
}

// New constructs a Normalizer
func New(profile crawlsource.Profile) *Normalizer {
	return &Normalizer{profile: profile}
}

func fail(rec crawlsource.RawRecord, reason domain.NormalizationReason, field, detail string) *domain.NormalizationError {
	return &domain.NormalizationError{
		Reason:     reason,
		Field:      field,
		Department: rec.Department,
		Page:       rec.Page,
		Detail:     detail,
	}
}

// Normalize parses one raw record. A nil error means the offering is usable;
// a non-nil one is collected by the caller and never aborts the batch
func (n *Normalizer) Normalize(rec crawlsource.RawRecord) (catalogdom.CourseOffering, *domain.NormalizationError) {
	var o catalogdom.CourseOffering

	get := func(k string) string { return textnorm.Clean(rec.Fields[k]) }

	o.Code = get(fieldCode)
	o.Section = get(fieldSection)
	rawTerm := get(fieldTerm)
	title := get(fieldTitle)

	for _, req := range []struct{ field, val string }{
		{fieldCode, o.Code},
		{fieldSection, o.Section},
		{fieldTerm, rawTerm},
		{fieldTitle, title},
	} {
		if req.val == "" {
			return o, fail(rec, domain.MissingField, req.field, "required field empty")
		}
	}

	term, err := timetable.ParseTerm(rawTerm)
	if err != nil {
		return o, fail(rec, domain.MissingField, fieldTerm, "malformed term "+rawTerm)
	}
	o.Term = term

	// the suspended marker rides inside the title cell
	if m := n.profile.SuspendedMarker; m != "" && strings.Contains(title, m) {
		o.Suspended = true
		title = textnorm.Clean(strings.ReplaceAll(title, m, ""))
	}
	o.Title = title

	o.Teachers = textnorm.CleanAll(splitList(rec.Fields[fieldTeachers]))
	o.Prereqs = textnorm.CleanAll(splitList(rec.Fields[fieldPrereqs]))
	o.CourseType = get(fieldType)
	o.Campus = get(fieldCampus)
	o.Classroom = get(fieldClassroom)

	capRaw := get(fieldCapacity)
	if capRaw == "" {
		return o, fail(rec, domain.MissingField, fieldCapacity, "required field empty")
	}
	capN, err := strconv.Atoi(capRaw)
	if err != nil || capN < 0 {
		return o, fail(rec, domain.InvalidCapacity, fieldCapacity, "not a non-negative integer: "+capRaw)
	}
	o.Capacity = capN

	if cr := get(fieldCredits); cr != "" {
		f, err := strconv.ParseFloat(cr, 64)
		if err != nil || f < 0 {
			return o, fail(rec, domain.InvalidCapacity, fieldCredits, "not a non-negative number: "+cr)
		}
		o.Credits = f
	}

	slots, perr := n.parseSchedule(rec)
	if perr != nil {
		return o, perr
	}
	o.Slots = slots

	o.Checksum = Checksum(o)
	return o, nil
}

// parseSchedule reads the schedule cell, e.g. "一 3-5, 三 6-7" with the
// profile's weekday tokens and half-open period spans. An empty cell is a
// course with no fixed meeting time
func (n *Normalizer) parseSchedule(rec crawlsource.RawRecord) ([]timetable.Slot, *domain.NormalizationError) {
	raw := textnorm.Clean(rec.Fields[fieldSchedule])
	if raw == "" {
		return nil, nil
	}

	var slots []timetable.Slot
	for _, part := range splitList(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, rest, ok := n.cutWeekday(part)
		if !ok {
			return nil, fail(rec, domain.UnparsableTimeSlot, fieldSchedule, "unknown weekday in "+part)
		}
		lo, hi, ok := cutSpan(rest)
		if !ok {
			return nil, fail(rec, domain.UnparsableTimeSlot, fieldSchedule, "malformed span in "+part)
		}
		s := timetable.Slot{Day: day, Start: lo, End: hi}
		if err := s.Validate(); err != nil || lo < n.profile.PeriodMin || hi > n.profile.PeriodMax+1 {
			return nil, fail(rec, domain.UnparsableTimeSlot, fieldSchedule, "period span out of bounds in "+part)
		}
		slots = append(slots, s)
	}

	slots = timetable.Normalize(slots)
	if a, b, bad := timetable.SelfOverlap(slots); bad {
		return nil, fail(rec, domain.UnparsableTimeSlot, fieldSchedule,
			"offering overlaps itself: "+a.String()+" and "+b.String())
	}
	return slots, nil
}

func (n *Normalizer) cutWeekday(part string) (timetable.Weekday, string, bool) {
	// longest token first so multi-rune markers win over prefixes
	toks := make([]string, 0, len(n.profile.WeekdayTokens))
	for t := range n.profile.WeekdayTokens {
		toks = append(toks, t)
	}
	sort.Slice(toks, func(i, j int) bool { return len(toks[i]) > len(toks[j]) })
	for _, t := range toks {
		if strings.HasPrefix(part, t) {
			return timetable.Weekday(n.profile.WeekdayTokens[t]), strings.TrimSpace(part[len(t):]), true
		}
	}
	return 0, "", false
}

// cutSpan converts a source period span to a half-open interval. The source
// convention is inclusive: "3-5" occupies periods 3, 4 and 5, and "3-3" is
// the same single period as plain "3"
func cutSpan(s string) (lo, hi int, ok bool) {
	a, b, found := strings.Cut(s, "-")
	if !found {
		p, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, 0, false
		}
		return p, p + 1, true
	}
	lo, err1 := strconv.Atoi(strings.TrimSpace(a))
	hi, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi + 1, true
}

func splitList(s string) []string {
	s = strings.ReplaceAll(s, "、", ",")
	return strings.Split(s, ",")
}

// Checksum digests every normalized field except the identity triple so
// identity-stable content changes are detectable
func Checksum(o catalogdom.CourseOffering) string {
	parts := []string{
		o.Title,
		strings.Join(o.Teachers, "\x1f"),
	}
	for _, s := range o.Slots {
		parts = append(parts, s.String())
	}
	parts = append(parts,
		strconv.Itoa(o.Capacity),
		strconv.FormatFloat(o.Credits, 'f', -1, 64),
		o.CourseType,
		o.Campus,
		o.Classroom,
		strings.Join(o.Prereqs, "\x1f"),
		strconv.FormatBool(o.Suspended),
	)
	return checksum.Fields(parts...)
}
