package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/domain"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  南昌市\t西湖区  ", "南昌市 西湖区"},
		{"共青农大\uff14栋", "共青农大4栋"},
		{"丰和\u200b北大道\x07", "丰和北大道"},
		{"无", ""},
		{" None ", ""},
		{"NULL", ""},
		{"无锡市", "无锡市"},
		{"none of the above", "none of the above"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, IsSentinel("nan"))
	assert.True(t, IsSentinel(" - "))
	assert.False(t, IsSentinel("无锡"))
	assert.False(t, IsSentinel(""))
}

func row(id, accepted, region, sub, addr string) domain.RawRow {
	return domain.RawRow{
		"ticket_id":         id,
		"accepted_at":       accepted,
		"region":            region,
		"subscriber_number": sub,
		"complaint_address": addr,
	}
}

func TestNormalizeRow(t *testing.T) {
	n := New(config.DefaultSchema(), time.UTC)

	rec, rej := n.NormalizeRow(3, row(" T1 ", "2024-05-01 09:30:00", "南昌", "13800000000", "  丰和北大道 "))
	require.Nil(t, rej)
	assert.Equal(t, "T1", rec.TicketID)
	assert.Equal(t, "南昌-13800000000", rec.CompositeKey)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), rec.AcceptedAt)
	assert.Equal(t, "丰和北大道", rec.Text(config.FieldComplaintAddress))
	assert.Equal(t, 3, rec.Row)
}

func TestNormalizeRowKeylessAndTyped(t *testing.T) {
	n := New(config.DefaultSchema(), time.UTC)
	at := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	rec, rej := n.NormalizeRow(0, domain.RawRow{
		"ticket_id":         float64(1001),
		"accepted_at":       at,
		"region":            "南昌",
		"subscriber_number": "无",
	})
	require.Nil(t, rej)
	assert.Equal(t, "1001", rec.TicketID)
	assert.False(t, rec.HasKey())
	assert.Empty(t, rec.SubscriberNumber)

	rec, rej = n.NormalizeRow(1, domain.RawRow{
		"ticket_id":         "T2",
		"accepted_at":       &at,
		"region":            "九江",
		"subscriber_number": float64(13800000001),
	})
	require.Nil(t, rej)
	assert.Equal(t, "九江-13800000001", rec.CompositeKey)
}

func TestNormalizeRowRejections(t *testing.T) {
	n := New(config.DefaultSchema(), time.UTC)

	_, rej := n.NormalizeRow(0, row("", "2024-05-01 09:30:00", "南昌", "1", ""))
	require.NotNil(t, rej)
	assert.Equal(t, RejectTicketID, rej.Reason)

	_, rej = n.NormalizeRow(1, row("T1", "yesterday", "南昌", "1", ""))
	require.NotNil(t, rej)
	assert.Equal(t, RejectTimestamp, rej.Reason)
	assert.Equal(t, "T1", rej.TicketID)

	_, rej = n.NormalizeRow(2, domain.RawRow{"ticket_id": "T2"})
	require.NotNil(t, rej)
	assert.ErrorIs(t, rej.Err, ErrMissingTimestamp)
}

func TestNormalizeCounts(t *testing.T) {
	n := New(config.DefaultSchema(), time.UTC)
	rows := []domain.RawRow{
		row("T1", "2024-05-01 09:30:00", "南昌", "1", "a"),
		row("T2", "2024-13-01 09:30:00", "南昌", "1", "a"),
		row("", "2024-05-01 09:30:00", "南昌", "1", "a"),
		row("T4", "2024-05-01 10:30:00", "", "1", "a"),
	}
	res := n.Normalize(rows)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.ParseFailures)
	assert.Equal(t, 1, res.MissingTicketID)
	assert.Len(t, res.Rejections, 2)
}

func TestNormalizeUsesLocation(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	rec, rej := New(config.DefaultSchema(), loc).NormalizeRow(0, row("T1", "2024-05-01 16:00:00", "r", "s", ""))
	require.Nil(t, rej)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), rec.AcceptedAt.UTC())
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "13800000000", stringValue(float64(13800000000)))
	assert.Equal(t, "", stringValue(math.NaN()))
	assert.Equal(t, "12", stringValue(int64(12)))
	assert.Equal(t, "x", stringValue([]byte("x")))
	assert.Equal(t, "", stringValue(nil))
}
