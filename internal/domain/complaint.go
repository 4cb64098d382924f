package domain

import "time"

// RawRow is one untyped row of a tabular snapshot keyed by column name.
type RawRow map[string]any

// ComplaintRecord is the typed snapshot of one ticket.
type ComplaintRecord struct {
	TicketID         string
	CompositeKey     string
	AcceptedAt       time.Time
	Region           string
	SubscriberNumber string
	TextFields       map[string]string
	Row              int
}

// HasKey reports whether the record can take part in grouping.
func (r ComplaintRecord) HasKey() bool {
	return r.CompositeKey != ""
}

// Text returns a cleaned text field, or "" when absent.
func (r ComplaintRecord) Text(field string) string {
	if r.TextFields == nil {
		return ""
	}
	return r.TextFields[field]
}

// ComplaintGroup holds every record sharing one composite key.
type ComplaintGroup struct {
	CompositeKey     string
	Region           string
	SubscriberNumber string
	Members          []ComplaintRecord
}

// RepeatCount is the number of distinct tickets in the group.
func (g ComplaintGroup) RepeatCount() int {
	return len(g.Members)
}

// TicketIDs returns member ids in member order.
func (g ComplaintGroup) TicketIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.TicketID)
	}
	return ids
}
