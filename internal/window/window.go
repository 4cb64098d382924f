// Package window selects records by acceptance time.
package window

import (
	"time"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// Range is [Start, End), or [Start, End] when ClosedEnd is set.
type Range struct {
	Start     time.Time
	End       time.Time
	ClosedEnd bool
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if t.Before(r.Start) {
		return false
	}
	if r.ClosedEnd {
		return !t.After(r.End)
	}
	return t.Before(r.End)
}

// Empty reports whether the range can contain nothing.
func (r Range) Empty() bool {
	if r.ClosedEnd {
		return r.End.Before(r.Start)
	}
	return !r.End.After(r.Start)
}

// Span widens r so it also covers other.
func (r Range) Span(other Range) Range {
	out := r
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if other.End.After(out.End) {
		out.End = other.End
		out.ClosedEnd = other.ClosedEnd
	} else if other.End.Equal(out.End) {
		out.ClosedEnd = out.ClosedEnd || other.ClosedEnd
	}
	return out
}

// TimeRange converts to the report representation.
func (r Range) TimeRange() domain.TimeRange {
	return domain.TimeRange{Start: r.Start, End: r.End, ClosedEnd: r.ClosedEnd}
}

// Truncate returns the latest instant at or before t whose wall clock in
// t's location reads boundaryHour:00:00.
func Truncate(t time.Time, boundaryHour int) time.Time {
	y, m, d := t.Date()
	b := time.Date(y, m, d, boundaryHour, 0, 0, 0, t.Location())
	if b.After(t) {
		b = time.Date(y, m, d-1, boundaryHour, 0, 0, 0, t.Location())
	}
	return b
}

// Lookback resolves (reference, days) into day-aligned bounds so that every
// run within the same reporting day sees the same window.
func Lookback(reference time.Time, days, boundaryHour int) Range {
	return Range{
		Start: Truncate(reference.AddDate(0, 0, -days), boundaryHour),
		End:   Truncate(reference, boundaryHour),
	}
}

// Trailing is the most recent span of hours ending at the last day boundary.
func Trailing(reference time.Time, hours, boundaryHour int) Range {
	end := Truncate(reference, boundaryHour)
	return Range{
		Start: end.Add(-time.Duration(hours) * time.Hour),
		End:   end,
	}
}

// Filter keeps records inside r, preserving input order.
func Filter(records []domain.ComplaintRecord, r Range) []domain.ComplaintRecord {
	out := make([]domain.ComplaintRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.AcceptedAt) {
			out = append(out, rec)
		}
	}
	return out
}
