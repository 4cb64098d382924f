// Package grouping deduplicates records, groups them by composite key and
// counts repeat complaints.
package grouping

import (
	"sort"

	"github.com/spec-kit/repeat-complaints/internal/domain"
	"github.com/spec-kit/repeat-complaints/internal/window"
)

// Dedup keeps the first record per ticket id in input order and returns how
// many were dropped.
func Dedup(records []domain.ComplaintRecord) ([]domain.ComplaintRecord, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.ComplaintRecord, 0, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.TicketID]; dup {
			continue
		}
		seen[rec.TicketID] = struct{}{}
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}

// GroupSet is the output of one grouping pass.
type GroupSet struct {
	// Groups are in order of first appearance of their key.
	Groups    []domain.ComplaintGroup
	Ungrouped []domain.ComplaintRecord
	index     map[string]int
}

// Lookup returns the group for a composite key.
func (s GroupSet) Lookup(key string) (domain.ComplaintGroup, bool) {
	i, ok := s.index[key]
	if !ok {
		return domain.ComplaintGroup{}, false
	}
	return s.Groups[i], true
}

// Group indexes records by composite key in a single pass. Members are
// ordered by acceptance time, ties keeping input order.
func Group(records []domain.ComplaintRecord) GroupSet {
	set := GroupSet{index: make(map[string]int)}
	for _, rec := range records {
		if !rec.HasKey() {
			set.Ungrouped = append(set.Ungrouped, rec)
			continue
		}
		i, ok := set.index[rec.CompositeKey]
		if !ok {
			i = len(set.Groups)
			set.index[rec.CompositeKey] = i
			set.Groups = append(set.Groups, domain.ComplaintGroup{
				CompositeKey:     rec.CompositeKey,
				Region:           rec.Region,
				SubscriberNumber: rec.SubscriberNumber,
			})
		}
		set.Groups[i].Members = append(set.Groups[i].Members, rec)
	}
	for i := range set.Groups {
		members := set.Groups[i].Members
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].AcceptedAt.Before(members[b].AcceptedAt)
		})
	}
	return set
}

// RepeatEntry is the repeat count of one composite key.
type RepeatEntry struct {
	Group           domain.ComplaintGroup
	Count           int
	Flagged         bool
	TargetTicketIDs []string
	Reportable      bool
}

// CountRepeats counts tickets per key over the lookback groups and flags
// keys with at least one ticket in target. Counts always come from the full
// lookback, never from the target window alone. Entries are ordered by
// count descending, then key.
func CountRepeats(set GroupSet, target window.Range, minRepeat int) []RepeatEntry {
	if minRepeat < 2 {
		minRepeat = 2
	}
	entries := make([]RepeatEntry, 0, len(set.Groups))
	for _, g := range set.Groups {
		entry := RepeatEntry{Group: g, Count: g.RepeatCount()}
		for _, m := range g.Members {
			if target.Contains(m.AcceptedAt) {
				entry.Flagged = true
				entry.TargetTicketIDs = append(entry.TargetTicketIDs, m.TicketID)
			}
		}
		entry.Reportable = entry.Flagged && entry.Count >= minRepeat
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].Count != entries[b].Count {
			return entries[a].Count > entries[b].Count
		}
		return entries[a].Group.CompositeKey < entries[b].Group.CompositeKey
	})
	return entries
}

// Reportable filters entries down to escalated keys.
func Reportable(entries []RepeatEntry) []RepeatEntry {
	out := make([]RepeatEntry, 0, len(entries))
	for _, e := range entries {
		if e.Reportable {
			out = append(out, e)
		}
	}
	return out
}
