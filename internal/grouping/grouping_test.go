package grouping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/repeat-complaints/internal/domain"
	"github.com/spec-kit/repeat-complaints/internal/window"
)

func rec(id, key string, day int, row int) domain.ComplaintRecord {
	return domain.ComplaintRecord{
		TicketID:     id,
		CompositeKey: key,
		AcceptedAt:   time.Date(2024, 5, day, 10, 0, 0, 0, time.UTC),
		Row:          row,
	}
}

func TestDedupKeepsFirstAndIsIdempotent(t *testing.T) {
	in := []domain.ComplaintRecord{rec("a", "k", 1, 0), rec("b", "k", 2, 1), rec("a", "k", 3, 2)}
	out, dropped := Dedup(in)
	require.Len(t, out, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, out[0].AcceptedAt.Day())

	again, dropped := Dedup(out)
	assert.Equal(t, out, again)
	assert.Zero(t, dropped)
}

func TestGroup(t *testing.T) {
	in := []domain.ComplaintRecord{
		rec("t1", "k2", 5, 0),
		rec("t2", "k1", 3, 1),
		rec("t3", "", 4, 2),
		rec("t4", "k2", 1, 3),
		rec("t5", "k2", 5, 4),
	}
	set := Group(in)
	require.Len(t, set.Groups, 2)
	assert.Equal(t, "k2", set.Groups[0].CompositeKey)
	assert.Equal(t, []string{"t4", "t1", "t5"}, set.Groups[0].TicketIDs())
	require.Len(t, set.Ungrouped, 1)
	assert.Equal(t, "t3", set.Ungrouped[0].TicketID)

	g, ok := set.Lookup("k1")
	require.True(t, ok)
	assert.Equal(t, 1, g.RepeatCount())
	_, ok = set.Lookup("nope")
	assert.False(t, ok)
}

func TestCountRepeats(t *testing.T) {
	set := Group([]domain.ComplaintRecord{
		rec("a1", "A", 1, 0), rec("a2", "A", 5, 1), rec("a3", "A", 20, 2),
		rec("b1", "B", 20, 3),
		rec("c1", "C", 2, 4), rec("c2", "C", 3, 5),
		rec("d1", "D", 19, 6), rec("d2", "D", 20, 7),
	})
	target := window.Range{
		Start: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC),
	}
	entries := CountRepeats(set, target, 2)
	require.Len(t, entries, 4)

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Group.CompositeKey
	}
	assert.Equal(t, []string{"A", "C", "D", "B"}, keys)

	byKey := map[string]RepeatEntry{}
	for _, e := range entries {
		byKey[e.Group.CompositeKey] = e
	}
	assert.Equal(t, 3, byKey["A"].Count)
	assert.True(t, byKey["A"].Reportable)
	assert.Equal(t, []string{"a3"}, byKey["A"].TargetTicketIDs)
	assert.True(t, byKey["B"].Flagged)
	assert.False(t, byKey["B"].Reportable, "single ticket is never a repeat")
	assert.False(t, byKey["C"].Flagged)
	assert.True(t, byKey["D"].Reportable)

	reportable := Reportable(entries)
	require.Len(t, reportable, 2)
	assert.Equal(t, "A", reportable[0].Group.CompositeKey)
	assert.Equal(t, "D", reportable[1].Group.CompositeKey)
}

func TestCountRepeatsMinimumIsTwo(t *testing.T) {
	set := Group([]domain.ComplaintRecord{rec("x", "X", 20, 0)})
	target := window.Range{
		Start: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC),
	}
	entries := CountRepeats(set, target, 0)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Reportable)

	entries = CountRepeats(set, target, 1)
	assert.False(t, entries[0].Reportable)
}

func TestCountRepeatsMonotonic(t *testing.T) {
	target := window.Range{
		Start: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC),
	}
	base := []domain.ComplaintRecord{rec("a1", "A", 20, 0), rec("a2", "A", 3, 1)}
	before := CountRepeats(Group(base), target, 2)[0].Count

	more := append(append([]domain.ComplaintRecord{}, base...), rec("a3", "A", 10, 2))
	after := CountRepeats(Group(more), target, 2)[0].Count
	assert.Equal(t, before+1, after)
}
