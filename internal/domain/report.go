package domain

import "time"

// NoValidAddress stands in for a group with no usable address text.
const NoValidAddress = "no valid address"

// ConsensusStrategy selects the address clustering algorithm.
type ConsensusStrategy string

const (
	StrategySubstring ConsensusStrategy = "lcs"
	StrategyFuzzy     ConsensusStrategy = "fuzzy"
	StrategyFrequency ConsensusStrategy = "frequency"
)

// ConsensusResult is the ranked outcome of address clustering for one group.
type ConsensusResult struct {
	Addresses []string          `json:"addresses"`
	Support   []int             `json:"support"`
	Strategy  ConsensusStrategy `json:"strategy"`
	NoData    bool              `json:"no_data"`
	Fallback  bool              `json:"fallback"`
}

// NoDataResult builds the explicit empty consensus.
func NoDataResult(strategy ConsensusStrategy) ConsensusResult {
	return ConsensusResult{
		Addresses: []string{NoValidAddress},
		Support:   []int{0},
		Strategy:  strategy,
		NoData:    true,
	}
}

// WarningCode classifies non-fatal pipeline conditions.
type WarningCode string

const (
	WarningTimestampParse    WarningCode = "TIMESTAMP_PARSE_FAILED"
	WarningMissingTicketID   WarningCode = "MISSING_TICKET_ID"
	WarningEmptyWindow       WarningCode = "EMPTY_WINDOW"
	WarningNoRepeats         WarningCode = "NO_REPEATS"
	WarningConsensusFallback WarningCode = "CONSENSUS_FALLBACK"
)

// Warning is surfaced to callers alongside a successful run.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	Count   int         `json:"count,omitempty"`
}

// TimeRange is the serialisable form of a window.
type TimeRange struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	ClosedEnd bool      `json:"closed_end"`
}

// ReportEntry describes one reportable repeat complainant.
type ReportEntry struct {
	CompositeKey            string    `json:"composite_key"`
	Region                  string    `json:"region"`
	SubscriberNumber        string    `json:"subscriber_number"`
	RepeatCount             int       `json:"repeat_count"`
	RepresentativeAddresses []string  `json:"representative_addresses"`
	AddressSupport          []int     `json:"address_support"`
	MemberTicketIDs         []string  `json:"member_ticket_ids"`
	TargetTicketIDs         []string  `json:"target_ticket_ids"`
	FirstAcceptedAt         time.Time `json:"first_accepted_at"`
	LastAcceptedAt          time.Time `json:"last_accepted_at"`
	NoValidAddress          bool      `json:"no_valid_address"`
	ConsensusFallback       bool      `json:"consensus_fallback"`
}

// RunStats counts what happened at each pipeline stage.
type RunStats struct {
	InputRows          int `json:"input_rows"`
	Accepted           int `json:"accepted"`
	ParseFailures      int `json:"parse_failures"`
	MissingTicketID    int `json:"missing_ticket_id"`
	OutsideLookback    int `json:"outside_lookback"`
	Duplicates         int `json:"duplicates"`
	InWindow           int `json:"in_window"`
	Ungrouped          int `json:"ungrouped"`
	Groups             int `json:"groups"`
	Flagged            int `json:"flagged"`
	Reportable         int `json:"reportable"`
	ConsensusFallbacks int `json:"consensus_fallbacks"`
}

// AnalysisReport is the full output of one batch run.
type AnalysisReport struct {
	RunID              string            `json:"run_id"`
	GeneratedAt        time.Time         `json:"generated_at"`
	Reference          time.Time         `json:"reference"`
	Lookback           TimeRange         `json:"lookback"`
	Target             TimeRange         `json:"target"`
	Strategy           ConsensusStrategy `json:"strategy"`
	Entries            []ReportEntry     `json:"entries"`
	UngroupedTicketIDs []string          `json:"ungrouped_ticket_ids"`
	Stats              RunStats          `json:"stats"`
	Warnings           []Warning         `json:"warnings"`
}

// HasWarning reports whether a warning with the code was raised.
func (r *AnalysisReport) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
