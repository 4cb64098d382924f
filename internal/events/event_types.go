package events

import (
	"time"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAnalysisCompleted EventType = "analysis_completed"
	EventAnalysisFailed    EventType = "analysis_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AnalysisCompletedPayload payload.
type AnalysisCompletedPayload struct {
	Reference     time.Time            `json:"reference"`
	Reportable    int                  `json:"reportable"`
	ParseFailures int                  `json:"parse_failures"`
	Warnings      []domain.WarningCode `json:"warnings,omitempty"`
	// Top holds the highest-count entries, at most MaxDigestEntries.
	Top []EntryDigest `json:"top,omitempty"`
}

// MaxDigestEntries caps the entries carried on a completion event.
const MaxDigestEntries = 10

// EntryDigest is the notification view of one repeat complainant.
type EntryDigest struct {
	CompositeKey string `json:"composite_key"`
	RepeatCount  int    `json:"repeat_count"`
	Address      string `json:"address"`
}

// Digest summarizes the leading report entries, which are already ordered
// by repeat count.
func Digest(entries []domain.ReportEntry) []EntryDigest {
	n := min(len(entries), MaxDigestEntries)
	out := make([]EntryDigest, 0, n)
	for _, e := range entries[:n] {
		d := EntryDigest{CompositeKey: e.CompositeKey, RepeatCount: e.RepeatCount}
		if len(e.RepresentativeAddresses) > 0 {
			d.Address = e.RepresentativeAddresses[0]
		}
		out = append(out, d)
	}
	return out
}

// AnalysisFailedPayload payload.
type AnalysisFailedPayload struct {
	Reference time.Time `json:"reference"`
	Error     string    `json:"error"`
}
