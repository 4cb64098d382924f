package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/repeat-complaints/internal/address"
	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/domain"
	"github.com/spec-kit/repeat-complaints/internal/events"
	"github.com/spec-kit/repeat-complaints/internal/grouping"
	"github.com/spec-kit/repeat-complaints/internal/normalize"
	"github.com/spec-kit/repeat-complaints/internal/observability"
	"github.com/spec-kit/repeat-complaints/internal/repository"
	"github.com/spec-kit/repeat-complaints/internal/window"
)

// ErrSourceNotConfigured is returned when a source-backed run has no source.
var ErrSourceNotConfigured = errors.New("snapshot source not configured")

// AnalysisService runs the repeat-complaint pipeline over one snapshot.
type AnalysisService struct {
	cfg        config.AnalysisConfig
	schema     config.Schema
	normalizer *normalize.Normalizer
	collector  *address.Collector
	clusterer  address.Clusterer
	opts       address.Options
	source     repository.SnapshotSource
	reports    repository.ReportStore
	reportTTL  time.Duration
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// AnalysisDependencies bundles optional collaborators for the service.
type AnalysisDependencies struct {
	Source     repository.SnapshotSource
	Reports    repository.ReportStore
	ReportTTL  time.Duration
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAnalysisService validates configuration and builds the service.
func NewAnalysisService(cfg config.AnalysisConfig, schema config.Schema, deps AnalysisDependencies) (*AnalysisService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	opts := address.OptionsFrom(cfg, schema)
	clusterer, err := address.NewClusterer(cfg.Strategy, opts)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		cfg:        cfg,
		schema:     schema,
		normalizer: normalize.New(schema, cfg.Zone()),
		collector:  address.NewCollector(schema),
		clusterer:  clusterer,
		opts:       opts,
		source:     deps.Source,
		reports:    deps.Reports,
		reportTTL:  deps.ReportTTL,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Windows resolves the lookback and target windows for a reference instant.
// The lookback is widened so it always covers the target window.
func (s *AnalysisService) Windows(reference time.Time) (lookback, target window.Range) {
	ref := reference.In(s.cfg.Zone())
	lookback = window.Lookback(ref, s.cfg.LookbackDays, s.cfg.LookbackBoundaryHour)
	target = window.Trailing(ref, s.cfg.TargetHours, s.cfg.DayBoundaryHour)
	lookback.ClosedEnd = s.cfg.ClosedEnd
	target.ClosedEnd = s.cfg.ClosedEnd
	return lookback.Span(target), target
}

// AnalyzeSource pulls the lookback snapshot from the configured source and analyses it.
func (s *AnalysisService) AnalyzeSource(ctx context.Context, reference time.Time) (*domain.AnalysisReport, error) {
	if s.source == nil {
		return nil, ErrSourceNotConfigured
	}
	reference = s.referenceOrNow(reference)
	lookback, _ := s.Windows(reference)
	rows, err := s.source.ListAccepted(ctx, lookback.Start, lookback.End)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return s.Analyze(ctx, rows, reference)
}

// Analyze runs the full pipeline. Row and group level problems become
// warnings on the report; only cancellation is returned as an error.
func (s *AnalysisService) Analyze(ctx context.Context, rows []domain.RawRow, reference time.Time) (*domain.AnalysisReport, error) {
	reference = s.referenceOrNow(reference)
	lookback, target := s.Windows(reference)

	report := &domain.AnalysisReport{
		RunID:       uuid.NewString(),
		GeneratedAt: s.now(),
		Reference:   reference,
		Lookback:    lookback.TimeRange(),
		Target:      target.TimeRange(),
		Strategy:    s.clusterer.Strategy(),
		Entries:     []domain.ReportEntry{},
	}
	stats := &report.Stats
	stats.InputRows = len(rows)

	normalized := s.normalizer.Normalize(rows)
	stats.Accepted = len(normalized.Records)
	stats.ParseFailures = normalized.ParseFailures
	stats.MissingTicketID = normalized.MissingTicketID
	for _, rej := range normalized.Rejections {
		s.logger.Debug("row rejected",
			zap.Int("row", rej.Row),
			zap.String("ticket_id", rej.TicketID),
			zap.String("reason", string(rej.Reason)),
			zap.Error(rej.Err))
	}

	inWindow := window.Filter(normalized.Records, lookback)
	stats.OutsideLookback = len(normalized.Records) - len(inWindow)

	deduped, dups := grouping.Dedup(inWindow)
	stats.Duplicates = dups
	stats.InWindow = len(deduped)

	set := grouping.Group(deduped)
	stats.Groups = len(set.Groups)
	stats.Ungrouped = len(set.Ungrouped)
	for _, rec := range set.Ungrouped {
		report.UngroupedTicketIDs = append(report.UngroupedTicketIDs, rec.TicketID)
	}

	counted := grouping.CountRepeats(set, target, s.cfg.EffectiveMinRepeat())
	for _, e := range counted {
		if e.Flagged {
			stats.Flagged++
		}
	}
	reportable := grouping.Reportable(counted)
	stats.Reportable = len(reportable)

	results, err := s.resolveConsensus(ctx, reportable)
	if err != nil {
		return nil, err
	}
	for i, e := range reportable {
		res := results[i]
		if res.Fallback {
			stats.ConsensusFallbacks++
		}
		members := e.Group.Members
		report.Entries = append(report.Entries, domain.ReportEntry{
			CompositeKey:            e.Group.CompositeKey,
			Region:                  e.Group.Region,
			SubscriberNumber:        e.Group.SubscriberNumber,
			RepeatCount:             e.Count,
			RepresentativeAddresses: res.Addresses,
			AddressSupport:          res.Support,
			MemberTicketIDs:         e.Group.TicketIDs(),
			TargetTicketIDs:         e.TargetTicketIDs,
			FirstAcceptedAt:         members[0].AcceptedAt,
			LastAcceptedAt:          members[len(members)-1].AcceptedAt,
			NoValidAddress:          res.NoData,
			ConsensusFallback:       res.Fallback,
		})
	}

	report.Warnings = buildWarnings(report.Stats)
	for _, w := range report.Warnings {
		s.logger.Warn("analysis warning",
			zap.String("run_id", report.RunID),
			zap.String("code", string(w.Code)),
			zap.Int("count", w.Count))
	}
	s.logger.Info("analysis completed",
		zap.String("run_id", report.RunID),
		zap.Time("reference", reference),
		zap.Int("input_rows", stats.InputRows),
		zap.Int("groups", stats.Groups),
		zap.Int("reportable", stats.Reportable))

	s.metrics.RecordRun(observability.RunCounters{
		InputRows:     stats.InputRows,
		ParseFailures: stats.ParseFailures,
		Reportable:    stats.Reportable,
		Fallbacks:     stats.ConsensusFallbacks,
	})
	s.store(ctx, report)
	s.publish(ctx, report)
	return report, nil
}

// Consensus clusters ad-hoc observations with the configured strategy, or
// with strategy when it is non-empty.
func (s *AnalysisService) Consensus(observations []string, strategy string) (domain.ConsensusResult, error) {
	clusterer := s.clusterer
	if strategy != "" && domain.ConsensusStrategy(strategy) != clusterer.Strategy() {
		c, err := address.NewClusterer(strategy, s.opts)
		if err != nil {
			return domain.ConsensusResult{}, err
		}
		clusterer = c
	}
	res, err := address.Resolve(clusterer, observations, s.opts)
	if err != nil {
		s.logger.Warn("consensus fell back to frequency ranking", zap.Error(err))
	}
	return res, nil
}

// GetReport loads a stored report by run id.
func (s *AnalysisService) GetReport(ctx context.Context, runID string) (*domain.AnalysisReport, error) {
	if s.reports == nil {
		return nil, repository.ErrReportNotFound
	}
	return s.reports.Get(ctx, runID)
}

// resolveConsensus computes one consensus per entry. Groups are independent,
// so they run on a bounded pool; results are written to fixed slots to keep
// output order independent of scheduling.
func (s *AnalysisService) resolveConsensus(ctx context.Context, entries []grouping.RepeatEntry) ([]domain.ConsensusResult, error) {
	results := make([]domain.ConsensusResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers())
	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			observations := s.collector.Collect(entries[i].Group)
			res, err := address.Resolve(s.clusterer, observations, s.opts)
			if err != nil {
				s.logger.Warn("consensus fell back to frequency ranking",
					zap.String("composite_key", entries[i].Group.CompositeKey),
					zap.Error(err))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *AnalysisService) referenceOrNow(reference time.Time) time.Time {
	if reference.IsZero() {
		reference = s.now()
	}
	return reference.In(s.cfg.Zone())
}

func (s *AnalysisService) store(ctx context.Context, report *domain.AnalysisReport) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Save(ctx, report, s.reportTTL); err != nil {
		s.logger.Warn("failed to store report", zap.String("run_id", report.RunID), zap.Error(err))
	}
}

func (s *AnalysisService) publish(ctx context.Context, report *domain.AnalysisReport) {
	if s.dispatcher == nil {
		return
	}
	codes := make([]domain.WarningCode, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		codes = append(codes, w.Code)
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAnalysisCompleted,
		RunID:     report.RunID,
		Timestamp: s.now(),
		Payload: events.AnalysisCompletedPayload{
			Reference:     report.Reference,
			Reportable:    report.Stats.Reportable,
			ParseFailures: report.Stats.ParseFailures,
			Warnings:      codes,
			Top:           events.Digest(report.Entries),
		},
	})
}

func buildWarnings(stats domain.RunStats) []domain.Warning {
	warnings := []domain.Warning{}
	if stats.ParseFailures > 0 {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarningTimestampParse,
			Message: "rows with unparseable acceptance time were excluded",
			Count:   stats.ParseFailures,
		})
	}
	if stats.MissingTicketID > 0 {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarningMissingTicketID,
			Message: "rows without ticket id were excluded",
			Count:   stats.MissingTicketID,
		})
	}
	switch {
	case stats.InWindow == 0:
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarningEmptyWindow,
			Message: "no tickets fall inside the lookback window",
		})
	case stats.Reportable == 0:
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarningNoRepeats,
			Message: "no repeat complainants in the target window",
		})
	}
	if stats.ConsensusFallbacks > 0 {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarningConsensusFallback,
			Message: "address consensus degraded to frequency ranking",
			Count:   stats.ConsensusFallbacks,
		})
	}
	return warnings
}
