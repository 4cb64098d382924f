package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// ErrReportNotFound is returned for unknown or expired run ids.
var ErrReportNotFound = errors.New("report not found")

// ReportStore keeps finished reports retrievable for a limited time.
type ReportStore interface {
	Save(ctx context.Context, report *domain.AnalysisReport, ttl time.Duration) error
	Get(ctx context.Context, runID string) (*domain.AnalysisReport, error)
}

const reportKeyPrefix = "repeat-complaints:report:"

type redisReportStore struct {
	client redis.Cmdable
}

// NewRedisReportStore stores reports as JSON values.
func NewRedisReportStore(client redis.Cmdable) ReportStore {
	return &redisReportStore{client: client}
}

func (s *redisReportStore) Save(ctx context.Context, report *domain.AnalysisReport, ttl time.Duration) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return s.client.Set(ctx, reportKeyPrefix+report.RunID, payload, ttl).Err()
}

func (s *redisReportStore) Get(ctx context.Context, runID string) (*domain.AnalysisReport, error) {
	payload, err := s.client.Get(ctx, reportKeyPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	var report domain.AnalysisReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return &report, nil
}

type memoryEntry struct {
	report    domain.AnalysisReport
	expiresAt time.Time
}

type memoryReportStore struct {
	mu      sync.RWMutex
	reports map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryReportStore keeps reports in process; used when Redis is unreachable.
func NewMemoryReportStore() ReportStore {
	return &memoryReportStore{reports: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryReportStore) Save(_ context.Context, report *domain.AnalysisReport, ttl time.Duration) error {
	entry := memoryEntry{report: *report}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.RunID] = entry
	return nil
}

func (s *memoryReportStore) Get(_ context.Context, runID string) (*domain.AnalysisReport, error) {
	s.mu.RLock()
	entry, ok := s.reports[runID]
	s.mu.RUnlock()
	if !ok || (!entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)) {
		return nil, ErrReportNotFound
	}
	report := entry.report
	return &report, nil
}
