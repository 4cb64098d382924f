package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/repeat-complaints/internal/domain"
	"github.com/spec-kit/repeat-complaints/internal/events"
)

// SourceAnalyzer runs a source-backed analysis.
type SourceAnalyzer interface {
	AnalyzeSource(ctx context.Context, reference time.Time) (*domain.AnalysisReport, error)
}

// AnalysisWorker periodically analyses the configured snapshot source.
type AnalysisWorker struct {
	analyzer   SourceAnalyzer
	interval   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewAnalysisWorker builds a worker; a non-positive interval disables it.
func NewAnalysisWorker(analyzer SourceAnalyzer, interval time.Duration, dispatcher events.Dispatcher, logger *zap.Logger) *AnalysisWorker {
	return &AnalysisWorker{
		analyzer:   analyzer,
		interval:   interval,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Run blocks until ctx is done, analysing once per interval.
func (w *AnalysisWorker) Run(ctx context.Context) {
	if w.interval <= 0 || w.analyzer == nil {
		w.logger.Info("scheduled analysis disabled")
		return
	}
	w.logger.Info("scheduled analysis started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("scheduled analysis stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single run and reports failures as events.
func (w *AnalysisWorker) RunOnce(ctx context.Context) {
	reference := w.now()
	report, err := w.analyzer.AnalyzeSource(ctx, reference)
	if err != nil {
		w.logger.Error("scheduled analysis failed", zap.Error(err))
		if w.dispatcher != nil {
			_ = w.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventAnalysisFailed,
				Timestamp: reference,
				Payload:   events.AnalysisFailedPayload{Reference: reference, Error: err.Error()},
			})
		}
		return
	}
	w.logger.Info("scheduled analysis finished",
		zap.String("run_id", report.RunID),
		zap.Int("reportable", report.Stats.Reportable))
}
