package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, at(21, 16), Truncate(at(21, 17), 16))
	assert.Equal(t, at(20, 16), Truncate(at(21, 15), 16))
	assert.Equal(t, at(21, 16), Truncate(at(21, 16), 16))
	assert.Equal(t, at(21, 0), Truncate(at(21, 9), 0))
}

func TestRangeContains(t *testing.T) {
	r := Range{Start: at(20, 16), End: at(21, 16)}
	assert.True(t, r.Contains(at(20, 16)))
	assert.True(t, r.Contains(at(21, 15)))
	assert.False(t, r.Contains(at(21, 16)))
	assert.False(t, r.Contains(at(20, 15)))

	r.ClosedEnd = true
	assert.True(t, r.Contains(at(21, 16)))
}

func TestRangeEmpty(t *testing.T) {
	assert.True(t, Range{Start: at(2, 0), End: at(2, 0)}.Empty())
	assert.False(t, Range{Start: at(2, 0), End: at(2, 0), ClosedEnd: true}.Empty())
	assert.True(t, Range{Start: at(3, 0), End: at(2, 0), ClosedEnd: true}.Empty())
}

func TestLookbackAndTrailing(t *testing.T) {
	ref := at(21, 17)
	lb := Lookback(ref, 30, 0)
	assert.Equal(t, time.Date(2024, 4, 21, 0, 0, 0, 0, time.UTC), lb.Start)
	assert.Equal(t, at(21, 0), lb.End)

	tr := Trailing(ref, 24, 16)
	assert.Equal(t, at(20, 16), tr.Start)
	assert.Equal(t, at(21, 16), tr.End)

	// runs later on the same reporting day see the same windows
	assert.Equal(t, tr, Trailing(at(21, 23), 24, 16))
	assert.Equal(t, lb, Lookback(at(21, 23), 30, 0))
}

func TestSpan(t *testing.T) {
	lb := Range{Start: at(1, 0), End: at(21, 0)}
	tr := Range{Start: at(20, 16), End: at(21, 16)}
	s := lb.Span(tr)
	assert.Equal(t, at(1, 0), s.Start)
	assert.Equal(t, at(21, 16), s.End)

	closed := Range{Start: at(2, 0), End: at(21, 0), ClosedEnd: true}
	assert.True(t, lb.Span(closed).ClosedEnd)
}

func TestFilterKeepsOrder(t *testing.T) {
	recs := []domain.ComplaintRecord{
		{TicketID: "a", AcceptedAt: at(5, 0)},
		{TicketID: "b", AcceptedAt: at(1, 0)},
		{TicketID: "c", AcceptedAt: at(3, 0)},
		{TicketID: "d", AcceptedAt: at(4, 0)},
	}
	got := Filter(recs, Range{Start: at(3, 0), End: at(5, 0)})
	assert.Equal(t, []string{"c", "d"}, []string{got[0].TicketID, got[1].TicketID})
	assert.Len(t, got, 2)
}
