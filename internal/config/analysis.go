package config

import (
	"errors"
	"fmt"
	"time"
)

// Supported consensus strategies and similarity metrics.
const (
	StrategySubstring = "lcs"
	StrategyFuzzy     = "fuzzy"

	MetricLevenshtein = "levenshtein"
	MetricJaroWinkler = "jaro_winkler"
)

// AnalysisConfig replaces the script-level knobs of the nightly report with
// one explicit value passed through the pipeline.
type AnalysisConfig struct {
	LookbackDays int
	TargetHours  int
	// DayBoundaryHour is the hour at which a reporting day ends for the
	// target window (16 for the daily report, 0 for calendar days).
	DayBoundaryHour      int
	LookbackBoundaryHour int
	ClosedEnd            bool
	MinRepeatCount       int
	Strategy             string
	SimilarityMetric     string
	SimilarityThreshold  float64
	MaxAddresses         int
	Concurrency          int
	ScheduleMinutes      int
	Location             *time.Location
}

// DefaultAnalysis returns the nightly report defaults.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		LookbackDays:         30,
		TargetHours:          24,
		DayBoundaryHour:      16,
		LookbackBoundaryHour: 0,
		MinRepeatCount:       2,
		Strategy:             StrategySubstring,
		SimilarityMetric:     MetricLevenshtein,
		SimilarityThreshold:  80,
		MaxAddresses:         3,
		Concurrency:          1,
		Location:             time.UTC,
	}
}

// Validate rejects settings the pipeline cannot honour.
func (c AnalysisConfig) Validate() error {
	var errs []error
	if c.LookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("lookback days must be positive, got %d", c.LookbackDays))
	}
	if c.TargetHours <= 0 {
		errs = append(errs, fmt.Errorf("target hours must be positive, got %d", c.TargetHours))
	}
	if c.DayBoundaryHour < 0 || c.DayBoundaryHour > 23 {
		errs = append(errs, fmt.Errorf("day boundary hour out of range: %d", c.DayBoundaryHour))
	}
	if c.LookbackBoundaryHour < 0 || c.LookbackBoundaryHour > 23 {
		errs = append(errs, fmt.Errorf("lookback boundary hour out of range: %d", c.LookbackBoundaryHour))
	}
	switch c.Strategy {
	case StrategySubstring, StrategyFuzzy:
	default:
		errs = append(errs, fmt.Errorf("unknown consensus strategy %q", c.Strategy))
	}
	switch c.SimilarityMetric {
	case MetricLevenshtein, MetricJaroWinkler:
	default:
		errs = append(errs, fmt.Errorf("unknown similarity metric %q", c.SimilarityMetric))
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		errs = append(errs, fmt.Errorf("similarity threshold must be within 0-100, got %v", c.SimilarityThreshold))
	}
	if c.MaxAddresses <= 0 {
		errs = append(errs, fmt.Errorf("max addresses must be positive, got %d", c.MaxAddresses))
	}
	return errors.Join(errs...)
}

// EffectiveMinRepeat never lets a single ticket count as a repeat.
func (c AnalysisConfig) EffectiveMinRepeat() int {
	if c.MinRepeatCount < 2 {
		return 2
	}
	return c.MinRepeatCount
}

// Workers returns the bounded consensus worker count.
func (c AnalysisConfig) Workers() int {
	if c.Concurrency < 1 {
		return 1
	}
	return c.Concurrency
}

// Zone returns the configured location, defaulting to UTC.
func (c AnalysisConfig) Zone() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// ScheduleInterval returns the periodic analysis interval, zero when disabled.
func (c AnalysisConfig) ScheduleInterval() time.Duration {
	if c.ScheduleMinutes <= 0 {
		return 0
	}
	return time.Duration(c.ScheduleMinutes) * time.Minute
}
