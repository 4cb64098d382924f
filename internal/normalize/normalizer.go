// Package normalize turns loosely typed snapshot rows into ComplaintRecords.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// RejectReason explains why a row did not become a record.
type RejectReason string

const (
	RejectTimestamp RejectReason = "timestamp"
	RejectTicketID  RejectReason = "ticket_id"
)

// ErrMissingTimestamp is returned for rows without an acceptance time.
var ErrMissingTimestamp = errors.New("acceptance timestamp missing")

// Rejection records one excluded row.
type Rejection struct {
	Row      int
	TicketID string
	Reason   RejectReason
	Err      error
}

// Result is the outcome of normalising a snapshot.
type Result struct {
	Records         []domain.ComplaintRecord
	Rejections      []Rejection
	ParseFailures   int
	MissingTicketID int
}

// Normalizer validates rows against a schema mapping.
type Normalizer struct {
	schema config.Schema
	loc    *time.Location
}

// New builds a Normalizer. A nil location means UTC.
func New(schema config.Schema, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if schema.TimestampLayout == "" {
		schema.TimestampLayout = config.DefaultTimestampLayout
	}
	return &Normalizer{schema: schema, loc: loc}
}

// Normalize converts every row, collecting rejections instead of failing.
func (n *Normalizer) Normalize(rows []domain.RawRow) Result {
	res := Result{Records: make([]domain.ComplaintRecord, 0, len(rows))}
	for i, row := range rows {
		rec, rej := n.NormalizeRow(i, row)
		if rej != nil {
			res.Rejections = append(res.Rejections, *rej)
			switch rej.Reason {
			case RejectTimestamp:
				res.ParseFailures++
			case RejectTicketID:
				res.MissingTicketID++
			}
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// NormalizeRow converts one row; idx is its position in the snapshot.
func (n *Normalizer) NormalizeRow(idx int, row domain.RawRow) (domain.ComplaintRecord, *Rejection) {
	ticketID := strings.TrimSpace(stringValue(row[n.schema.TicketIDColumn]))
	if ticketID == "" || IsSentinel(ticketID) {
		return domain.ComplaintRecord{}, &Rejection{
			Row:    idx,
			Reason: RejectTicketID,
			Err:    errors.New("ticket id missing"),
		}
	}

	acceptedAt, err := n.parseTime(row[n.schema.AcceptedAtColumn])
	if err != nil {
		return domain.ComplaintRecord{}, &Rejection{
			Row:      idx,
			TicketID: ticketID,
			Reason:   RejectTimestamp,
			Err:      err,
		}
	}

	region := CleanText(stringValue(row[n.schema.RegionColumn]))
	subscriber := CleanText(stringValue(row[n.schema.SubscriberColumn]))

	rec := domain.ComplaintRecord{
		TicketID:         ticketID,
		AcceptedAt:       acceptedAt,
		Region:           region,
		SubscriberNumber: subscriber,
		TextFields:       make(map[string]string, len(n.schema.TextFields)),
		Row:              idx,
	}
	if region != "" && subscriber != "" {
		rec.CompositeKey = region + n.schema.KeySeparator + subscriber
	}
	for field, column := range n.schema.TextFields {
		if text := CleanText(stringValue(row[column])); text != "" {
			rec.TextFields[field] = text
		}
	}
	return rec, nil
}

func (n *Normalizer) parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, ErrMissingTimestamp
	case time.Time:
		if t.IsZero() {
			return time.Time{}, ErrMissingTimestamp
		}
		return t, nil
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, ErrMissingTimestamp
		}
		return *t, nil
	}

	raw := strings.TrimSpace(stringValue(v))
	if raw == "" {
		return time.Time{}, ErrMissingTimestamp
	}
	parsed, err := time.ParseInLocation(n.schema.TimestampLayout, raw, n.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse acceptance time %q: %w", raw, err)
	}
	return parsed, nil
}

// stringValue renders cell values. Floats never use exponent notation so
// subscriber numbers exported as numbers survive.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case time.Time:
		return t.Format(config.DefaultTimestampLayout)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
