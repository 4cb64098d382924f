package dto

import (
	"time"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// AnalyzeRequest carries a snapshot inline.
type AnalyzeRequest struct {
	// Reference defaults to the current time.
	Reference *time.Time      `json:"reference"`
	Rows      []domain.RawRow `json:"rows"`
}

// SourceAnalyzeRequest triggers a run against the configured source.
type SourceAnalyzeRequest struct {
	Reference *time.Time `json:"reference"`
}

// ConsensusRequest asks for the canonical addresses of ad-hoc observations.
type ConsensusRequest struct {
	Observations []string `json:"observations"`
	Strategy     string   `json:"strategy"`
}

// ReportSummary is the compact view returned when creating an analysis.
type ReportSummary struct {
	RunID      string           `json:"run_id"`
	Reference  time.Time        `json:"reference"`
	Strategy   string           `json:"strategy"`
	Reportable int              `json:"reportable"`
	Warnings   []domain.Warning `json:"warnings"`
}
